package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blytz-live/storefront/internal/api"
	"github.com/blytz-live/storefront/internal/domain"
)

type stubProductLister struct {
	list func(ctx context.Context, filter api.ProductFilter) ([]domain.Product, int, error)
}

func (s *stubProductLister) List(ctx context.Context, filter api.ProductFilter) ([]domain.Product, int, error) {
	if s.list != nil {
		return s.list(ctx, filter)
	}
	return nil, 0, nil
}

func TestSnapshotSeedsFallbackCatalog(t *testing.T) {
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: &stubProductLister{}})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	products := snapshot.Products()
	if len(products) == 0 {
		t.Fatal("fallback catalog must not be empty")
	}
	if !snapshot.Stale() {
		t.Fatal("snapshot must report stale before a successful refresh")
	}

	sneaker, ok := snapshot.ByID("neonx-runner-vapor")
	if !ok {
		t.Fatal("fallback catalog must include the NeonX Runner Vapor")
	}
	if sneaker.Price.Minor != 14999 {
		t.Fatalf("expected price 149.99, got %s", sneaker.Price.String())
	}
}

func TestRefreshFailureKeepsPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	lister := &stubProductLister{
		list: func(context.Context, api.ProductFilter) ([]domain.Product, int, error) {
			return nil, 0, errors.New("backend down")
		},
	}
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: lister})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	before := len(snapshot.Products())
	snapshot.Refresh(ctx)
	if got := len(snapshot.Products()); got != before {
		t.Fatalf("failed refresh must keep the prior snapshot, got %d items", got)
	}
	if !snapshot.Stale() {
		t.Fatal("failed refresh must leave the snapshot stale")
	}
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	lister := &stubProductLister{
		list: func(context.Context, api.ProductFilter) ([]domain.Product, int, error) {
			return []domain.Product{{ID: "live-1", Title: "Live Product", Price: usd(500), Category: "Tech"}}, 1, nil
		},
	}
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: lister})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	snapshot.Refresh(ctx)
	products := snapshot.Products()
	if len(products) != 1 || products[0].ID != "live-1" {
		t.Fatalf("expected refreshed snapshot, got %+v", products)
	}
	if snapshot.Stale() {
		t.Fatal("successful refresh must clear staleness")
	}
}

func TestConcurrentRefreshesCollapse(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	entered := make(chan struct{})
	gate := make(chan struct{})
	lister := &stubProductLister{
		list: func(context.Context, api.ProductFilter) ([]domain.Product, int, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-gate
			}
			return []domain.Product{{ID: "live-1", Title: "Live", Price: usd(500)}}, 1, nil
		},
	}
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: lister})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Refresh(ctx)
	}()
	<-entered

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot.Refresh(ctx)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected concurrent refreshes to collapse into one call, got %d", got)
	}
}

func TestByCategoryIsCaseInsensitive(t *testing.T) {
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: &stubProductLister{}})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	if got := snapshot.ByCategory("tech"); len(got) == 0 {
		t.Fatal("expected tech products from the fallback catalog")
	}
}

func TestSummaryListsTitlesAndPrices(t *testing.T) {
	snapshot, err := NewCatalogSnapshot(CatalogSnapshotDeps{Products: &stubProductLister{}})
	if err != nil {
		t.Fatalf("NewCatalogSnapshot: %v", err)
	}

	summary := snapshot.Summary()
	if !strings.Contains(summary, "NeonX Runner Vapor") || !strings.Contains(summary, "149.99") {
		t.Fatalf("summary missing product digest:\n%s", summary)
	}
}
