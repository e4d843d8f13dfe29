// Package search finds products by free text. Elasticsearch is used when
// configured; otherwise the catalog table is queried directly.
package search

import (
	"context"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Results struct {
	Total int64            `json:"total"`
	Items []models.Product `json:"items"`
}

type Engine interface {
	Search(ctx context.Context, query string, offset, limit int) (Results, error)
}

// Indexer keeps a search backend in sync with catalog writes.
type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type NopIndexer struct{}

func (NopIndexer) IndexProduct(context.Context, models.Product) error { return nil }
func (NopIndexer) DeleteProduct(context.Context, uint) error          { return nil }

func sanitizeQuery(q string) string {
	return strings.TrimSpace(q)
}

func clamp(offset, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
