// Package services holds the storefront's client-side state machines: the
// cart store, the checkout wizard, the catalog snapshot, and the chat
// assistant. Each service takes its collaborators through a Deps struct and
// validates them at construction.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blytz-live/storefront/internal/domain"
	"github.com/blytz-live/storefront/internal/state"
)

// ErrCartInvalidInput indicates a caller-supplied argument was rejected
// before any backend call was attempted.
var ErrCartInvalidInput = errors.New("cart: invalid input")

// CartBackend is the slice of the REST client the cart store needs.
type CartBackend interface {
	Fetch(ctx context.Context) ([]domain.CartItem, error)
	AddItem(ctx context.Context, productID string, quantity int) error
	UpdateItem(ctx context.Context, productID string, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// CartStoreDeps wires the cart store's collaborators. Backend is optional:
// without one the store runs purely on the local projection.
type CartStoreDeps struct {
	Backend CartBackend
	Local   state.Repository
	Logger  func(ctx context.Context, event string, fields map[string]any)
	Clock   func() time.Time
}

// CartStore keeps the user's cart. Mutations are local-first: the intended
// change is always reflected in the local projection, and the backend is
// synced opportunistically. Backend unavailability never blocks a mutation;
// it only risks temporary divergence, resolved on the next successful Load.
type CartStore struct {
	backend CartBackend
	local   state.Repository
	logger  func(ctx context.Context, event string, fields map[string]any)
	clock   func() time.Time

	mu      sync.Mutex
	items   []domain.CartItem
	open    bool
	loading bool

	// generation and clearing fence resyncs: any Load begun, or landing,
	// before a Clear has fully settled (backend included) must not
	// resurrect the cleared items.
	generation uint64
	clearing   int
}

// NewCartStore constructs a CartStore, hydrating from the local repository
// when a snapshot is present.
func NewCartStore(deps CartStoreDeps) (*CartStore, error) {
	if deps.Local == nil {
		return nil, errors.New("cart: local repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	store := &CartStore{
		backend: deps.Backend,
		local:   deps.Local,
		logger:  logger,
		clock:   clock,
	}
	if snapshot, err := deps.Local.Load(context.Background()); err == nil {
		store.items = snapshot.Clone().Items
		store.open = snapshot.CartOpen
	}
	return store, nil
}

// Load resyncs from the backend. Failures are swallowed: existing local
// state stays untouched and only a diagnostic is logged.
func (s *CartStore) Load(ctx context.Context) {
	if s.backend == nil {
		return
	}

	s.mu.Lock()
	s.loading = true
	generation := s.generation
	s.mu.Unlock()

	items, err := s.backend.Fetch(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		s.logger(ctx, "cart.load_failed", map[string]any{"error": err.Error()})
		return
	}
	if generation != s.generation || s.clearing > 0 {
		s.mu.Unlock()
		s.logger(ctx, "cart.load_stale_dropped", nil)
		return
	}
	s.items = cloneItems(items)
	s.mu.Unlock()
	s.persist(ctx)
}

// AddItem adds quantity of product to the cart. The backend add is attempted
// first; whether or not it succeeds the local projection reflects the change
// by merge-by-id, so the user never sees a no-op. A successful backend add is
// followed by an authoritative re-fetch.
func (s *CartStore) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity < 1 {
		return ErrCartInvalidInput
	}
	if product.ID == "" {
		return ErrCartInvalidInput
	}

	synced := false
	if s.backend != nil {
		if err := s.backend.AddItem(ctx, product.ID, quantity); err != nil {
			s.logger(ctx, "cart.add_sync_failed", map[string]any{
				"product_id": product.ID,
				"error":      err.Error(),
			})
		} else {
			synced = true
		}
	}

	now := s.clock()
	s.mu.Lock()
	merged := false
	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			s.items[i].Quantity += quantity
			s.items[i].UpdatedAt = &now
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, domain.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
			AddedAt:   now,
		})
	}
	s.mu.Unlock()
	s.persist(ctx)

	if synced {
		s.Load(ctx)
	}
	return nil
}

// RemoveItem drops the entry for productID. A missing entry is a no-op, not
// an error.
func (s *CartStore) RemoveItem(ctx context.Context, productID string) {
	if productID == "" {
		return
	}

	s.mu.Lock()
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
	s.mu.Unlock()
	s.persist(ctx)

	if s.backend != nil {
		if err := s.backend.RemoveItem(ctx, productID); err != nil {
			s.logger(ctx, "cart.remove_sync_failed", map[string]any{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
	}
}

// UpdateQuantity sets the quantity for productID. Zero or negative delegates
// to RemoveItem.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}

	now := s.clock()
	s.mu.Lock()
	found := false
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
			s.items[i].UpdatedAt = &now
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return
	}
	s.persist(ctx)

	if s.backend != nil {
		if err := s.backend.UpdateItem(ctx, productID, quantity); err != nil {
			s.logger(ctx, "cart.update_sync_failed", map[string]any{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
	}
}

// Clear empties the cart. The resync fence rises only once the backend
// clear has settled, so any Load begun against the pre-clear cart is dropped
// when its response lands.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.clearing++
	s.mu.Unlock()
	s.persist(ctx)

	if s.backend != nil {
		if err := s.backend.Clear(ctx); err != nil {
			s.logger(ctx, "cart.clear_sync_failed", map[string]any{"error": err.Error()})
		}
	}

	s.mu.Lock()
	s.clearing--
	s.generation++
	s.mu.Unlock()
}

// Items returns a copy of the current entries in insertion order.
func (s *CartStore) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Total computes the exact sum of price times quantity, fresh on every call.
func (s *CartStore) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SumLineTotals(s.items)
}

// TotalMajor returns the total as a major-unit float. Display only.
func (s *CartStore) TotalMajor() float64 {
	return s.Total().Major()
}

// ItemCount sums the quantities across all entries.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Loading reports whether a backend resync is in flight.
func (s *CartStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Open reports whether the cart drawer is open.
func (s *CartStore) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// SetOpen toggles the cart drawer flag.
func (s *CartStore) SetOpen(ctx context.Context, open bool) {
	s.mu.Lock()
	s.open = open
	s.mu.Unlock()
	s.persist(ctx)
}

func (s *CartStore) persist(ctx context.Context) {
	s.mu.Lock()
	snapshot := state.Snapshot{
		Items:    cloneItems(s.items),
		CartOpen: s.open,
		SavedAt:  s.clock(),
	}
	s.mu.Unlock()
	if err := s.local.Save(ctx, snapshot); err != nil {
		s.logger(ctx, "cart.persist_failed", map[string]any{"error": err.Error()})
	}
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return nil
	}
	dup := make([]domain.CartItem, len(items))
	copy(dup, items)
	for i := range dup {
		if dup[i].UpdatedAt != nil {
			at := *dup[i].UpdatedAt
			dup[i].UpdatedAt = &at
		}
	}
	return dup
}
