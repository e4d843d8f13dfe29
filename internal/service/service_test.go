package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tracking"
)

type notifierRecorder struct {
	mu      sync.Mutex
	updates []tracking.Update
}

func (n *notifierRecorder) Publish(u tracking.Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
}

type testEnv struct {
	repo     *repo.GormRepo
	events   *events.Recorder
	kv       *kv.Memory
	carts    *cart.Store
	notifier *notifierRecorder

	catalog  *CatalogService
	users    *UserService
	cart     *CartService
	orders   *OrderService
	wishlist *WishlistService
	reviews  *ReviewService
	returns  *ReturnService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	env := &testEnv{
		repo:     &repo.GormRepo{DB: gdb},
		events:   &events.Recorder{},
		kv:       kv.NewMemory(),
		notifier: &notifierRecorder{},
	}
	env.carts = cart.NewStore(env.kv)
	env.catalog = &CatalogService{Repo: env.repo, Cache: env.kv, Events: env.events}
	env.users = &UserService{Repo: env.repo, Events: env.events, JWTSecret: []byte("test-secret"), TokenTTL: time.Hour}
	env.cart = &CartService{Repo: env.repo, Carts: env.carts}
	env.orders = &OrderService{Repo: env.repo, Carts: env.carts, Events: env.events, Notifier: env.notifier}
	env.wishlist = &WishlistService{Repo: env.repo}
	env.reviews = &ReviewService{Repo: env.repo}
	env.returns = &ReturnService{Repo: env.repo, Events: env.events}
	return env
}

// seedCatalog creates Men > T-Shirts and one product with the given stock.
func (env *testEnv) seedCatalog(t *testing.T, price string, stock string) (*models.Category, *models.Product) {
	t.Helper()
	ctx := context.Background()
	cat, err := env.catalog.CreateCategory(ctx, forms.Values{"name": {"Men"}, "subCategories": {"T-Shirts", "Jeans"}})
	require.NoError(t, err)
	p, err := env.catalog.CreateProduct(ctx, forms.Values{
		"name":          {"Red Shirt"},
		"categoryId":    {uintStr(cat.ID)},
		"subCategoryId": {uintStr(cat.SubCategories[0].ID)},
		"price":         {price},
		"stockQuantity": {stock},
		"sizes":         {"S", "M"},
		"colors":        {"Red"},
		"images":        {"/uploads/red.jpg"},
	})
	require.NoError(t, err)
	return cat, p
}

func (env *testEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := env.users.Register(context.Background(), forms.Values{
		"fullName": {"Jane Doe"},
		"email":    {email},
		"password": {"secret123"},
	})
	require.NoError(t, err)
	return u
}

func checkoutValues() forms.Values {
	return forms.Values{
		"fullName":      {"Jane Doe"},
		"phoneNumber":   {"123456789"},
		"address":       {"12 Main Street"},
		"city":          {"Lahore"},
		"paymentMethod": {"cashondelivery"},
	}
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
