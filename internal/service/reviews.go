package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/forms"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type ReviewService struct {
	Repo *repo.GormRepo
}

type ProductReviews struct {
	ProductID uint                   `json:"productId"`
	Average   float64                `json:"average"`
	Count     int64                  `json:"count"`
	Reviews   []models.ProductReview `json:"reviews"`
}

func (s *ReviewService) List(ctx context.Context, productID uint) (*ProductReviews, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	reviews, err := s.Repo.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	stats, err := s.Repo.ReviewStats(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{ProductID: productID, Average: stats.Average, Count: stats.Count, Reviews: reviews}, nil
}

// Add stores one review per user and product.
func (s *ReviewService) Add(ctx context.Context, actor Actor, productID uint, v forms.Values) (*models.ProductReview, error) {
	if productID == 0 {
		return nil, invalidf("productId is required")
	}
	v = v.Trimmed()
	if err := forms.Review.Validate(v); err != nil {
		return nil, invalid(err)
	}
	rating, err := strconv.Atoi(v.Get("rating"))
	if err != nil {
		return nil, invalidf("rating must be a whole number")
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	done, err := s.Repo.HasReviewed(ctx, productID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("product %d already reviewed: %w", productID, ErrConflict)
	}
	u, err := s.Repo.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	rv := models.ProductReview{
		ProductID: productID,
		UserID:    u.ID,
		UserName:  u.FullName,
		Rating:    rating,
		Comment:   v.Get("comment"),
	}
	if err := s.Repo.CreateReview(ctx, &rv); err != nil {
		return nil, err
	}
	return &rv, nil
}
