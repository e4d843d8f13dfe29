package search

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// SQL matches name and description with a case-insensitive LIKE.
type SQL struct {
	DB *gorm.DB
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s SQL) Search(ctx context.Context, rawQ string, offset, limit int) (Results, error) {
	q := sanitizeQuery(rawQ)
	if q == "" {
		return Results{Items: []models.Product{}}, nil
	}
	offset, limit = clamp(offset, limit)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	pattern := "%" + strings.ToLower(escapeLike(q)) + "%"
	where := `LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where(where, pattern, pattern).
		Count(&total).Error; err != nil {
		return Results{}, err
	}

	items := make([]models.Product, 0, limit)
	if err := s.DB.WithContext(ctx).
		Where(where, pattern, pattern).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return Results{}, err
	}
	return Results{Total: total, Items: items}, nil
}
