package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/blytz-live/storefront/internal/api"
	"github.com/blytz-live/storefront/internal/domain"
)

// ProductLister is the slice of the REST client the snapshot refreshes from.
type ProductLister interface {
	List(ctx context.Context, filter api.ProductFilter) ([]domain.Product, int, error)
}

// CatalogSnapshotDeps wires the snapshot's collaborators.
type CatalogSnapshotDeps struct {
	Products ProductLister
	PageSize int
	Logger   func(ctx context.Context, event string, fields map[string]any)
	Clock    func() time.Time
}

// CatalogSnapshot is the session's read-only product view. Refresh failures
// degrade to the previous snapshot, or to a built-in static catalog when
// nothing has ever been fetched, so the storefront always has something to
// show.
type CatalogSnapshot struct {
	products ProductLister
	pageSize int
	logger   func(ctx context.Context, event string, fields map[string]any)
	clock    func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	items       []domain.Product
	refreshedAt time.Time
	fromNetwork bool
}

// NewCatalogSnapshot constructs a snapshot seeded with the static fallback
// catalog.
func NewCatalogSnapshot(deps CatalogSnapshotDeps) (*CatalogSnapshot, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog: product lister is required")
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &CatalogSnapshot{
		products: deps.Products,
		pageSize: pageSize,
		logger:   logger,
		clock:    clock,
		items:    fallbackCatalog(),
	}, nil
}

// Refresh fetches the product list, replacing the snapshot on success.
// Concurrent refreshes are collapsed into one backend call. Failure keeps
// the prior snapshot and reports no error to the caller.
func (s *CatalogSnapshot) Refresh(ctx context.Context) {
	_, _, _ = s.group.Do("refresh", func() (any, error) {
		items, _, err := s.products.List(ctx, api.ProductFilter{Page: 1, Limit: s.pageSize})
		if err != nil {
			s.logger(ctx, "catalog.refresh_failed", map[string]any{"error": err.Error()})
			return nil, nil
		}
		if len(items) == 0 {
			s.logger(ctx, "catalog.refresh_empty", nil)
			return nil, nil
		}
		s.mu.Lock()
		s.items = items
		s.refreshedAt = s.clock()
		s.fromNetwork = true
		s.mu.Unlock()
		return nil, nil
	})
}

// Products returns a copy of the current snapshot.
func (s *CatalogSnapshot) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dup := make([]domain.Product, len(s.items))
	copy(dup, s.items)
	return dup
}

// ByID returns the product with the given id.
func (s *CatalogSnapshot) ByID(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, product := range s.items {
		if product.ID == id {
			return product, true
		}
	}
	return domain.Product{}, false
}

// ByCategory returns the products in a category, case-insensitively.
func (s *CatalogSnapshot) ByCategory(category string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []domain.Product
	for _, product := range s.items {
		if strings.EqualFold(product.Category, category) {
			matched = append(matched, product)
		}
	}
	return matched
}

// Stale reports whether the snapshot still holds the static fallback.
func (s *CatalogSnapshot) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.fromNetwork
}

// Summary renders the title, price, and category digest the chat assistant
// feeds to the model.
func (s *CatalogSnapshot) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b strings.Builder
	for _, product := range s.items {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", product.Title, product.Price.String(), product.Category)
	}
	return b.String()
}

func money(minor int64) domain.Money {
	return domain.Money{Minor: minor, Currency: domain.DefaultCurrency}
}

func moneyPtr(minor int64) *domain.Money {
	value := money(minor)
	return &value
}

// fallbackCatalog is the static product set shown when the backend has
// never answered.
func fallbackCatalog() []domain.Product {
	return []domain.Product{
		{
			ID: "neonx-runner-vapor", Title: "NeonX Runner Vapor",
			Price: money(14999), OriginalPrice: moneyPtr(22000),
			Rating: 4.9, Reviews: 128, Category: "Active", Flash: true,
		},
		{
			ID: "cybersync-headset-pro", Title: "CyberSync Headset Pro",
			Price: money(29900), Rating: 4.8, Reviews: 854,
			Category: "Audio", Hot: true,
		},
		{
			ID: "quantm-smart-watch", Title: "Quantm Smart Watch",
			Price: money(35000), Rating: 4.7, Reviews: 342,
			Category: "Wearables",
		},
		{
			ID: "velocity-drone-mk2", Title: "Velocity Drone MK-II",
			Price: money(89900), OriginalPrice: moneyPtr(120000),
			Rating: 5.0, Reviews: 42, Category: "Tech", Flash: true,
		},
		{
			ID: "mechkey-rgb-60", Title: "MechKey RGB 60%",
			Price: money(12000), Rating: 4.6, Reviews: 1102,
			Category: "Tech",
		},
	}
}
