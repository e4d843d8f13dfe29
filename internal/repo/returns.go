package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateReturn(ctx context.Context, rr *models.ReturnRequest) error {
	return r.DB.WithContext(ctx).Create(rr).Error
}

func (r *GormRepo) HasOpenReturn(ctx context.Context, orderID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("order_id = ? AND product_id = ? AND status = ?", orderID, productID, models.ReturnStatusPending).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) GetReturn(ctx context.Context, id uint) (*models.ReturnRequest, error) {
	var rr models.ReturnRequest
	if err := r.DB.WithContext(ctx).First(&rr, id).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

// ListReturns lists every request, newest first; an empty status means all.
func (r *GormRepo) ListReturns(ctx context.Context, status models.ReturnStatus, offset, limit int) (int64, []models.ReturnRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.ReturnRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := make([]models.ReturnRequest, 0, limit)
	if err := q.Session(&gorm.Session{}).Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListReturnsByOrder(ctx context.Context, orderID uint) ([]models.ReturnRequest, error) {
	items := []models.ReturnRequest{}
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("id DESC").Find(&items).Error
	return items, err
}

func (r *GormRepo) ListReturnsByUser(ctx context.Context, userID uint) ([]models.ReturnRequest, error) {
	items := []models.ReturnRequest{}
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&items).Error
	return items, err
}

// SetReturnStatus only succeeds while the request is still in status from.
func (r *GormRepo) SetReturnStatus(ctx context.Context, id uint, from, to models.ReturnStatus, note string) (*models.ReturnRequest, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "admin_note": note})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetReturn(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return r.GetReturn(ctx, id)
}
