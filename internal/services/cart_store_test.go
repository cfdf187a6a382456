package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/blytz-live/storefront/internal/domain"
	"github.com/blytz-live/storefront/internal/state"
)

type stubCartBackend struct {
	fetch  func(ctx context.Context) ([]domain.CartItem, error)
	add    func(ctx context.Context, productID string, quantity int) error
	update func(ctx context.Context, productID string, quantity int) error
	remove func(ctx context.Context, productID string) error
	clear  func(ctx context.Context) error
}

func (s *stubCartBackend) Fetch(ctx context.Context) ([]domain.CartItem, error) {
	if s.fetch != nil {
		return s.fetch(ctx)
	}
	return nil, nil
}

func (s *stubCartBackend) AddItem(ctx context.Context, productID string, quantity int) error {
	if s.add != nil {
		return s.add(ctx, productID, quantity)
	}
	return nil
}

func (s *stubCartBackend) UpdateItem(ctx context.Context, productID string, quantity int) error {
	if s.update != nil {
		return s.update(ctx, productID, quantity)
	}
	return nil
}

func (s *stubCartBackend) RemoveItem(ctx context.Context, productID string) error {
	if s.remove != nil {
		return s.remove(ctx, productID)
	}
	return nil
}

func (s *stubCartBackend) Clear(ctx context.Context) error {
	if s.clear != nil {
		return s.clear(ctx)
	}
	return nil
}

func usd(minor int64) domain.Money {
	return domain.Money{Minor: minor, Currency: domain.DefaultCurrency}
}

var (
	testSneaker = domain.Product{ID: "p-sneaker", Title: "NeonX Runner Vapor", Price: usd(14999)}
	testHeadset = domain.Product{ID: "p-headset", Title: "CyberSync Headset Pro", Price: usd(29900)}
)

func newLocalCartStore(t *testing.T, backend CartBackend) *CartStore {
	t.Helper()
	store, err := NewCartStore(CartStoreDeps{Backend: backend, Local: state.NewMemoryRepository()})
	if err != nil {
		t.Fatalf("NewCartStore: %v", err)
	}
	return store
}

func TestNewCartStoreRequiresLocalRepository(t *testing.T) {
	if _, err := NewCartStore(CartStoreDeps{}); err == nil {
		t.Fatal("expected error for missing local repository")
	}
}

func TestAddItemMergesByProductID(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
	if got := store.Total(); got.Minor != 29998 {
		t.Fatalf("expected total 299.98, got %s", got.String())
	}
}

func TestTotalAndItemCountAreExact(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := store.AddItem(ctx, testHeadset, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if got := store.Total(); got.Minor != 59898 {
		t.Fatalf("expected total 598.98, got %s", got.String())
	}
	if got := store.ItemCount(); got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 0); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
	if err := store.AddItem(ctx, domain.Product{}, 1); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatal("rejected input must not change the cart")
	}
}

func TestUpdateQuantityZeroDelegatesToRemove(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	store.UpdateQuantity(ctx, testSneaker.ID, 0)
	if len(store.Items()) != 0 {
		t.Fatal("quantity 0 must remove the entry")
	}

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	store.UpdateQuantity(ctx, testSneaker.ID, -1)
	if len(store.Items()) != 0 {
		t.Fatal("negative quantity must remove the entry")
	}
}

func TestRemoveItemAbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	store.RemoveItem(ctx, "no-such-product")
	if len(store.Items()) != 1 {
		t.Fatal("removing an absent id must leave the cart unchanged")
	}
}

func TestUpdateQuantitySetsNotAdds(t *testing.T) {
	ctx := context.Background()
	store := newLocalCartStore(t, nil)

	if err := store.AddItem(ctx, testSneaker, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	store.UpdateQuantity(ctx, testSneaker.ID, 5)
	items := store.Items()
	if len(items) != 1 || items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %+v", items)
	}
}

func TestAddItemBackendFailureFallsBackLocally(t *testing.T) {
	ctx := context.Background()
	backendErr := errors.New("backend down")
	backend := &stubCartBackend{
		add: func(context.Context, string, int) error { return backendErr },
	}
	store := newLocalCartStore(t, backend)

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem must not surface a sync failure, got %v", err)
	}
	items := store.Items()
	if len(items) != 1 || items[0].ProductID != testSneaker.ID {
		t.Fatalf("expected local projection to hold the item, got %+v", items)
	}

	// A later successful resync replaces the projection.
	backend.fetch = func(context.Context) ([]domain.CartItem, error) {
		return []domain.CartItem{{ProductID: testSneaker.ID, Title: testSneaker.Title, Price: testSneaker.Price, Quantity: 3}}, nil
	}
	store.Load(ctx)
	items = store.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("expected resync to replace the projection, got %+v", items)
	}
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	backend := &stubCartBackend{
		fetch: func(context.Context) ([]domain.CartItem, error) {
			return nil, errors.New("backend down")
		},
	}
	store := newLocalCartStore(t, backend)
	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	store.Load(ctx)
	if len(store.Items()) != 1 {
		t.Fatal("failed load must leave local state untouched")
	}
	if store.Loading() {
		t.Fatal("loading flag must reset after a failed load")
	}
}

func TestClearDropsStaleLoadResponse(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &stubCartBackend{
		fetch: func(context.Context) ([]domain.CartItem, error) {
			close(entered)
			<-release
			return []domain.CartItem{{ProductID: testSneaker.ID, Title: testSneaker.Title, Price: testSneaker.Price, Quantity: 1}}, nil
		},
	}
	store := newLocalCartStore(t, backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Load(ctx)
	}()

	// The load is in flight against the pre-clear cart when the clear fires.
	<-entered
	store.Clear(ctx)
	close(release)
	wg.Wait()

	if items := store.Items(); len(items) != 0 {
		t.Fatalf("stale load after clear must not resurrect items, got %+v", items)
	}
}

func TestLoadDuringBackendClearIsDropped(t *testing.T) {
	ctx := context.Background()
	clearStarted := make(chan struct{})
	releaseClear := make(chan struct{})
	backend := &stubCartBackend{
		clear: func(context.Context) error {
			close(clearStarted)
			<-releaseClear
			return nil
		},
		fetch: func(context.Context) ([]domain.CartItem, error) {
			// The backend has not processed the clear yet.
			return []domain.CartItem{{ProductID: testSneaker.ID, Title: testSneaker.Title, Price: testSneaker.Price, Quantity: 2}}, nil
		},
	}
	store := newLocalCartStore(t, backend)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Clear(ctx)
	}()
	<-clearStarted

	// A load that starts and finishes while the backend clear is still
	// running must not re-apply the pre-clear cart.
	store.Load(ctx)
	close(releaseClear)
	wg.Wait()

	if items := store.Items(); len(items) != 0 {
		t.Fatalf("load during clear must not resurrect items, got %+v", items)
	}
}

func TestCartStoreHydratesFromLocalSnapshot(t *testing.T) {
	ctx := context.Background()
	local := state.NewMemoryRepository()
	if err := local.Save(ctx, state.Snapshot{
		Items: []domain.CartItem{{ProductID: testSneaker.ID, Title: testSneaker.Title, Price: testSneaker.Price, Quantity: 2}},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store, err := NewCartStore(CartStoreDeps{Local: local})
	if err != nil {
		t.Fatalf("NewCartStore: %v", err)
	}
	if got := store.ItemCount(); got != 2 {
		t.Fatalf("expected hydrated count 2, got %d", got)
	}
}

func TestCartStorePersistsMutations(t *testing.T) {
	ctx := context.Background()
	local := state.NewMemoryRepository()
	store, err := NewCartStore(CartStoreDeps{Local: local})
	if err != nil {
		t.Fatalf("NewCartStore: %v", err)
	}

	if err := store.AddItem(ctx, testSneaker, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	snapshot, err := local.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snapshot.Items) != 1 {
		t.Fatalf("expected persisted snapshot with one item, got %+v", snapshot.Items)
	}
}
