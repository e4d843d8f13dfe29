package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ReviewStats struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uint) ([]models.ProductReview, error) {
	reviews := []models.ProductReview{}
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *GormRepo) ReviewStats(ctx context.Context, productID uint) (ReviewStats, error) {
	var s ReviewStats
	err := r.DB.WithContext(ctx).
		Model(&models.ProductReview{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&s).Error
	return s, err
}

func (r *GormRepo) HasReviewed(ctx context.Context, productID, userID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.ProductReview{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.ProductReview) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}
