package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketbridge/backend/internal/domain/shared"
)

// Product is the slice of the catalog this context needs: enough to link an
// order line to local stock, build marketplace offers, and feed rule
// evaluation with category and on-hand quantity. Full catalog management
// lives elsewhere.
type Product struct {
	shared.BaseAggregateRoot
	SKU                string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name               string `gorm:"type:varchar(200);not null"`
	Category           string `gorm:"type:varchar(100);index"`
	PriceCents         int64
	Currency           string
	StockQty           int
	MarketplaceEnabled bool
	LastSyncedAt       *time.Time
}

// NewProduct creates a new product
func NewProduct(sku, name, category string, priceCents int64, stockQty int) (*Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if priceCents < 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if stockQty < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Product stock cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Category:          category,
		PriceCents:        priceCents,
		Currency:          "EUR",
		StockQty:          stockQty,
	}, nil
}

// EnableMarketplace marks the product as visible to marketplace channels
func (p *Product) EnableMarketplace() {
	p.MarketplaceEnabled = true
	p.UpdatedAt = time.Now()
}

// DisableMarketplace hides the product from marketplace channels
func (p *Product) DisableMarketplace() {
	p.MarketplaceEnabled = false
	p.UpdatedAt = time.Now()
}

// MarkSynced stamps the last successful offer sync time
func (p *Product) MarkSynced(at time.Time) {
	p.LastSyncedAt = &at
	p.UpdatedAt = at
}

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindMarketplaceEnabled returns marketplace-visible products ordered by
	// sync priority: never-synced first, then oldest-synced-first.
	FindMarketplaceEnabled(ctx context.Context, limit int) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	// DecrementStock applies a conditional floor-clamped decrement
	// (stock = max(0, stock - qty)) in a single statement and returns the
	// previous and new quantities. It never drives stock below zero and is
	// safe to retry.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (previous int, current int, err error)
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}
