package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func preloadSubCategories(db *gorm.DB) *gorm.DB {
	return db.Order("sub_categories.id ASC")
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).
		Preload("SubCategories", preloadSubCategories).
		Order("id ASC").
		Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).
		Preload("SubCategories", preloadSubCategories).
		First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// CategoryNameTaken compares names case-insensitively, ignoring excludeID.
func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) UpdateCategory(ctx context.Context, id uint, fields map[string]any) (*models.Category, error) {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	return r.GetCategory(ctx, id)
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
			return err
		}
		return notFoundIfNone(tx.Delete(&models.Category{}, id))
	})
}

func (r *GormRepo) AddSubCategory(ctx context.Context, sub *models.SubCategory) error {
	return r.DB.WithContext(ctx).Create(sub).Error
}

func (r *GormRepo) GetSubCategory(ctx context.Context, id uint) (*models.SubCategory, error) {
	var sub models.SubCategory
	if err := r.DB.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormRepo) DeleteSubCategory(ctx context.Context, categoryID, subID uint) error {
	return notFoundIfNone(r.DB.WithContext(ctx).
		Where("id = ? AND category_id = ?", subID, categoryID).
		Delete(&models.SubCategory{}))
}

// CountProducts counts products in a category and, when subCategoryID is set, in that subcategory.
func (r *GormRepo) CountProducts(ctx context.Context, categoryID, subCategoryID uint) (int64, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if subCategoryID != 0 {
		q = q.Where("sub_category_id = ?", subCategoryID)
	}
	err := q.Count(&n).Error
	return n, err
}
