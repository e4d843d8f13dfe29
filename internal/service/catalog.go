package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/export"
	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/kv"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
)

const (
	categoriesCacheKey = "catalog:categories"
	categoriesCacheTTL = 10 * time.Minute
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  kv.Store
	Events events.Publisher
	Index  search.Indexer
	Search search.Engine
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	l := logging.FromContext(ctx)
	if s.Cache != nil {
		raw, err := s.Cache.Get(ctx, categoriesCacheKey)
		if err == nil {
			var cats []models.Category
			if err := json.Unmarshal(raw, &cats); err == nil {
				return cats, nil
			}
		} else if !errors.Is(err, kv.ErrNotFound) {
			l.Warn("category_cache_read_failed", "error", err)
		}
	}

	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if raw, err := json.Marshal(cats); err == nil {
			if err := s.Cache.Set(ctx, categoriesCacheKey, raw, categoriesCacheTTL); err != nil {
				l.Warn("category_cache_write_failed", "error", err)
			}
		}
	}
	return cats, nil
}

func (s *CatalogService) invalidateCategories(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, categoriesCacheKey); err != nil {
		logging.FromContext(ctx).Warn("category_cache_invalidate_failed", "error", err)
	}
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return cat, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, v forms.Values) (*models.Category, error) {
	v = v.Trimmed()
	if err := forms.AddCategory.Validate(v); err != nil {
		return nil, invalid(err)
	}
	name := strings.TrimSpace(v.Get("name"))
	taken, err := s.Repo.CategoryNameTaken(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("category %q already exists: %w", name, ErrConflict)
	}

	cat := models.Category{
		Name:        name,
		Description: strings.TrimSpace(v.Get("description")),
		ImageURL:    strings.TrimSpace(v.Get("imageUrl")),
	}
	for _, sub := range v["subCategories"] {
		if sub = strings.TrimSpace(sub); sub != "" {
			cat.SubCategories = append(cat.SubCategories, models.SubCategory{Name: sub})
		}
	}
	if err := s.Repo.CreateCategory(ctx, &cat); err != nil {
		return nil, err
	}

	s.invalidateCategories(ctx)
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(cat.ID), 10), events.Event{
		"type":       "category_created",
		"categoryID": cat.ID,
		"name":       cat.Name,
	})
	return &cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, v forms.Values) (*models.Category, error) {
	v = v.Trimmed()
	if err := forms.AddCategory.Optional().Validate(v); err != nil {
		return nil, invalid(err)
	}
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if _, ok := v["name"]; ok {
		name := strings.TrimSpace(v.Get("name"))
		if name == "" {
			return nil, invalidf("category name is required")
		}
		taken, err := s.Repo.CategoryNameTaken(ctx, name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("category %q already exists: %w", name, ErrConflict)
		}
		fields["name"] = name
	}
	if _, ok := v["description"]; ok {
		fields["description"] = strings.TrimSpace(v.Get("description"))
	}
	if _, ok := v["imageUrl"]; ok {
		fields["image_url"] = strings.TrimSpace(v.Get("imageUrl"))
	}
	if len(fields) == 0 {
		return s.GetCategory(ctx, id)
	}

	cat, err := s.Repo.UpdateCategory(ctx, id, fields)
	if err != nil {
		return nil, notFound(err, "category")
	}
	s.invalidateCategories(ctx)
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(id), 10), events.Event{
		"type":       "category_updated",
		"categoryID": id,
	})
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	n, err := s.Repo.CountProducts(ctx, id, 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("category has %d products: %w", n, ErrConflict)
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "category")
	}
	s.invalidateCategories(ctx)
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(id), 10), events.Event{
		"type":       "category_deleted",
		"categoryID": id,
	})
	return nil
}

// AddSubCategory rejects a name already used in the category, ignoring case.
func (s *CatalogService) AddSubCategory(ctx context.Context, categoryID uint, name string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if n := len([]rune(name)); n < 2 || n > 50 {
		return nil, invalidf("subcategory must be between 2 and 50 characters")
	}
	cat, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	for _, sub := range cat.SubCategories {
		if strings.EqualFold(sub.Name, name) {
			return nil, fmt.Errorf("subcategory %q already exists: %w", name, ErrConflict)
		}
	}

	sub := models.SubCategory{CategoryID: categoryID, Name: name}
	if err := s.Repo.AddSubCategory(ctx, &sub); err != nil {
		return nil, err
	}
	s.invalidateCategories(ctx)
	return &sub, nil
}

func (s *CatalogService) DeleteSubCategory(ctx context.Context, categoryID, subID uint) error {
	n, err := s.Repo.CountProducts(ctx, categoryID, subID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("subcategory has %d products: %w", n, ErrConflict)
	}
	if err := s.Repo.DeleteSubCategory(ctx, categoryID, subID); err != nil {
		return notFound(err, "subcategory")
	}
	s.invalidateCategories(ctx)
	return nil
}

// Products

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func parseID(v forms.Values, key string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v.Get(key)), 10, 64)
	if err != nil || n == 0 {
		return 0, invalidf("%s must be a positive integer", key)
	}
	return uint(n), nil
}

func parsePrice(v forms.Values) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.Get("price")))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, invalidf("price must be a positive number")
	}
	return d.Round(2), nil
}

func parseStock(v forms.Values) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v.Get("stockQuantity")), 10, 32)
	if err != nil {
		return 0, invalidf("stock quantity must be a whole number")
	}
	return uint(n), nil
}

func cleanList(values []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(values))
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// checkPlacement verifies that the subcategory belongs to the category.
func (s *CatalogService) checkPlacement(ctx context.Context, categoryID, subCategoryID uint) error {
	cat, err := s.Repo.GetCategory(ctx, categoryID)
	if repo.IsNotFound(err) {
		return invalidf("category %d does not exist", categoryID)
	}
	if err != nil {
		return err
	}
	for _, sub := range cat.SubCategories {
		if sub.ID == subCategoryID {
			return nil
		}
	}
	return invalidf("subcategory %d does not belong to category %q", subCategoryID, cat.Name)
}

func (s *CatalogService) CreateProduct(ctx context.Context, v forms.Values) (*models.Product, error) {
	v = v.Trimmed()
	if err := forms.AddProduct.Validate(v); err != nil {
		return nil, invalid(err)
	}
	p := models.Product{
		Name:        v.Get("name"),
		Description: v.Get("description"),
		Sizes:       cleanList(v["sizes"]),
		Colors:      cleanList(v["colors"]),
		Images:      cleanList(v["images"]),
	}
	var err error
	if p.CategoryID, err = parseID(v, "categoryId"); err != nil {
		return nil, err
	}
	if p.SubCategoryID, err = parseID(v, "subCategoryId"); err != nil {
		return nil, err
	}
	if p.Price, err = parsePrice(v); err != nil {
		return nil, err
	}
	if p.StockQuantity, err = parseStock(v); err != nil {
		return nil, err
	}

	if err := s.checkPlacement(ctx, p.CategoryID, p.SubCategoryID); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}

	s.index(ctx, p)
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(p.ID), 10), events.Event{
		"type":      "product_created",
		"productID": p.ID,
		"name":      p.Name,
		"price":     p.Price.String(),
	})
	return &p, nil
}

// UpdateProduct applies only the fields present in v.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, v forms.Values) (*models.Product, error) {
	v = v.Trimmed()
	if err := forms.AddProduct.Optional().Validate(v); err != nil {
		return nil, invalid(err)
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	has := func(k string) bool { _, ok := v[k]; return ok && strings.TrimSpace(v.Get(k)) != "" }
	if has("name") {
		p.Name = strings.TrimSpace(v.Get("name"))
	}
	if _, ok := v["description"]; ok {
		p.Description = strings.TrimSpace(v.Get("description"))
	}
	if has("price") {
		if p.Price, err = parsePrice(v); err != nil {
			return nil, err
		}
	}
	if has("stockQuantity") {
		if p.StockQuantity, err = parseStock(v); err != nil {
			return nil, err
		}
	}
	if _, ok := v["sizes"]; ok {
		p.Sizes = cleanList(v["sizes"])
	}
	if _, ok := v["colors"]; ok {
		p.Colors = cleanList(v["colors"])
	}
	if imgs := cleanList(v["images"]); len(imgs) > 0 {
		p.Images = imgs
	}
	placementChanged := false
	if has("categoryId") {
		if p.CategoryID, err = parseID(v, "categoryId"); err != nil {
			return nil, err
		}
		placementChanged = true
	}
	if has("subCategoryId") {
		if p.SubCategoryID, err = parseID(v, "subCategoryId"); err != nil {
			return nil, err
		}
		placementChanged = true
	}
	if placementChanged {
		if err := s.checkPlacement(ctx, p.CategoryID, p.SubCategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, *p)
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(p.ID), 10), events.Event{
		"type":      "product_updated",
		"productID": p.ID,
		"name":      p.Name,
	})
	return p, nil
}

// DeleteProduct returns the removed product so callers can clean up its images.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return nil, notFound(err, "product")
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(id), 10), events.Event{
		"type":      "product_deleted",
		"productID": id,
	})
	return p, nil
}

func (s *CatalogService) index(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (search.Results, error) {
	engine := s.Search
	if engine == nil {
		engine = search.SQL{DB: s.Repo.DB}
	}
	return engine.Search(ctx, q, offset, limit)
}

// ExportProducts writes the whole catalog as an xlsx workbook.
func (s *CatalogService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}
	cats, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	names := export.Names{Categories: map[uint]string{}, SubCategories: map[uint]string{}}
	for _, c := range cats {
		names.Categories[c.ID] = c.Name
		for _, sub := range c.SubCategories {
			names.SubCategories[sub.ID] = sub.Name
		}
	}
	return export.WriteProducts(w, products, names)
}
