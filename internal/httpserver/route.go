package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	Catalog  *CatalogHTTP
	Users    *UserHTTP
	Cart     *CartHTTP
	Orders   *OrderHTTP
	Wishlist *WishlistHTTP
	Reviews  *ReviewHTTP
	Returns  *ReturnHTTP

	JWTSecret []byte
	DB        *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	mw := &auth.Middleware{JWTSecret: d.JWTSecret}
	if d.Users != nil && d.Users.Svc != nil {
		mw.CurrentRole = d.Users.Svc.CurrentRole
	}
	api := e.Group("/api")
	signedIn := api.Group("", mw.RequireAuth)
	admin := api.Group("", mw.RequireAuth, mw.RequireAdmin)

	api.GET("/Categories", d.Catalog.ListCategories)
	api.GET("/Categories/:id", d.Catalog.GetCategory)
	admin.POST("/Categories", d.Catalog.CreateCategory)
	admin.PUT("/Categories/:id", d.Catalog.UpdateCategory)
	admin.DELETE("/Categories/:id", d.Catalog.DeleteCategory)
	admin.POST("/Categories/:id/SubCategories", d.Catalog.AddSubCategory)
	admin.DELETE("/Categories/:id/SubCategories/:subId", d.Catalog.DeleteSubCategory)

	api.GET("/Product/GetAllProducts", d.Catalog.GetAllProducts)
	api.GET("/Product/search", d.Catalog.SearchProducts)
	admin.GET("/Product/export", d.Catalog.ExportProducts)
	api.GET("/Product/:id", d.Catalog.GetProduct)
	admin.POST("/Product/Addproduct", d.Catalog.AddProduct)
	admin.PUT("/Product/UpdateProduct/:id", d.Catalog.UpdateProduct)
	admin.DELETE("/Product/DeleteProduct/:id", d.Catalog.DeleteProduct)

	api.POST("/Users/register", d.Users.Register)
	api.POST("/Users/login", d.Users.Login)
	api.POST("/Users/logout", d.Users.Logout)
	signedIn.GET("/Users/me", d.Users.Me)
	admin.GET("/Users", d.Users.ListUsers)
	admin.GET("/Users/:id", d.Users.GetUser)
	admin.PUT("/Users/:id", d.Users.UpdateUser)
	admin.DELETE("/Users/:id", d.Users.DeleteUser)

	carts := api.Group("/Cart", mw.OptionalAuth)
	carts.GET("", d.Cart.Get)
	carts.POST("/Add", d.Cart.Add)
	carts.PUT("/Update", d.Cart.Update)
	carts.DELETE("/Remove", d.Cart.Remove)
	carts.DELETE("/Clear", d.Cart.Clear)

	signedIn.POST("/Checkout/PlaceOrder", d.Orders.PlaceOrder)

	signedIn.GET("/Orders/my", d.Orders.MyOrders)
	signedIn.GET("/Orders/:id", d.Orders.GetOrder)
	signedIn.GET("/Orders/:id/tracking", d.Orders.Tracking)
	signedIn.GET("/Orders/:id/ws", d.Orders.Live)
	signedIn.POST("/Orders/:id/cancel", d.Orders.Cancel)
	admin.GET("/Orders", d.Orders.ListOrders)
	admin.PUT("/Orders/:id/status", d.Orders.UpdateStatus)

	signedIn.GET("/Wishlist/Get", d.Wishlist.Get)
	signedIn.POST("/Wishlist/Add", d.Wishlist.Add)
	signedIn.DELETE("/Wishlist/Remove/:productId", d.Wishlist.Remove)

	api.GET("/ProductReview/product/:productId", d.Reviews.ForProduct)
	signedIn.POST("/ProductReview", d.Reviews.Add)

	signedIn.POST("/ReturnRequest/submit", d.Returns.Submit)
	admin.GET("/ReturnRequest/all", d.Returns.All)
	signedIn.GET("/ReturnRequest/by-order/:id", d.Returns.ByOrder)
	signedIn.GET("/ReturnRequest/my", d.Returns.Mine)
	admin.PUT("/ReturnRequest/:id/status", d.Returns.SetStatus)
}
