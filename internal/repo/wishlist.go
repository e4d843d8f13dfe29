package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

// WishlistProducts returns the products on a user's wishlist, most recently added first.
func (r *GormRepo) WishlistProducts(ctx context.Context, userID uint) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Joins("JOIN wishlist_items ON wishlist_items.product_id = products.id").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.id DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// AddToWishlist reports whether a new entry was created.
func (r *GormRepo) AddToWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	return notFoundIfNone(r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}))
}
