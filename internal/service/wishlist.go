package service

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) Get(ctx context.Context, userID uint) ([]models.Product, error) {
	return s.Repo.WishlistProducts(ctx, userID)
}

// Add is idempotent; created is false when the product was already listed.
func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (bool, error) {
	if productID == 0 {
		return false, invalidf("productId is required")
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return false, notFound(err, "product")
	}
	return s.Repo.AddToWishlist(ctx, userID, productID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	if err := s.Repo.RemoveFromWishlist(ctx, userID, productID); err != nil {
		return notFound(err, "wishlist item")
	}
	return nil
}
