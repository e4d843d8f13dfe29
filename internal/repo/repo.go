package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStaleStatus       = errors.New("status changed concurrently")
)

// StockError names the product that could not be reserved.
type StockError struct {
	ProductID uint
	Name      string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("product %d (%s): %v", e.ProductID, e.Name, ErrInsufficientStock)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type GormRepo struct {
	DB *gorm.DB
}

func notFoundIfNone(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
