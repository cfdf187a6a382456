package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// OrdersService wraps order creation, listing, and privileged status updates.
type OrdersService struct {
	client *Client
}

// CreateOrderRequest is the order-creation payload assembled by the checkout
// flow from the shipping form.
type CreateOrderRequest struct {
	ShippingAddress domain.Address `json:"shipping_address"`
	BillingAddress  domain.Address `json:"billing_address"`
	Notes           string         `json:"notes,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Page   int
	Limit  int
	Status domain.OrderStatus
}

// OrderStatistics aggregates seller-dashboard order metrics.
type OrderStatistics struct {
	TotalOrders     int          `json:"total_orders"`
	PendingOrders   int          `json:"pending_orders"`
	ShippedOrders   int          `json:"shipped_orders"`
	DeliveredOrders int          `json:"delivered_orders"`
	CancelledOrders int          `json:"cancelled_orders"`
	TotalRevenue    domain.Money `json:"total_revenue"`
}

type orderEnvelope struct {
	Wrapped *domain.Order `json:"order"`
	domain.Order
}

// Create submits a new order for the authenticated user's cart.
func (s *OrdersService) Create(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	if !req.ShippingAddress.Complete() {
		return domain.Order{}, fmt.Errorf("api: shipping address is incomplete")
	}
	var envelope orderEnvelope
	if err := s.client.post(ctx, "/orders", req, &envelope); err != nil {
		return domain.Order{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.Order, nil
}

// List fetches the user's orders.
func (s *OrdersService) List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		q.Set("status", filter.Status.String())
	}
	var envelope struct {
		Orders []domain.Order `json:"orders"`
		Total  int            `json:"total"`
	}
	if err := s.client.get(ctx, "/orders", q, &envelope); err != nil {
		return nil, 0, err
	}
	total := envelope.Total
	if total == 0 {
		total = len(envelope.Orders)
	}
	return envelope.Orders, total, nil
}

// Get fetches a single order.
func (s *OrdersService) Get(ctx context.Context, id string) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, fmt.Errorf("api: order id is required")
	}
	var envelope orderEnvelope
	if err := s.client.get(ctx, "/orders/"+url.PathEscape(id), nil, &envelope); err != nil {
		return domain.Order{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.Order, nil
}

// UpdateStatus requests a status transition; the backend enforces the linear
// progression, the client pre-checks to fail fast.
func (s *OrdersService) UpdateStatus(ctx context.Context, id string, current, next domain.OrderStatus) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, fmt.Errorf("api: order id is required")
	}
	if current != "" && !current.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("api: order status cannot move from %s to %s", current, next)
	}
	body := map[string]any{"status": next.String()}
	var envelope orderEnvelope
	if err := s.client.put(ctx, "/orders/"+url.PathEscape(id)+"/status", body, &envelope); err != nil {
		return domain.Order{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.Order, nil
}

// Cancel cancels an order still in a cancellable state.
func (s *OrdersService) Cancel(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: order id is required")
	}
	return s.client.delete(ctx, "/orders/"+url.PathEscape(id), nil)
}

// Statistics fetches seller-dashboard aggregates.
func (s *OrdersService) Statistics(ctx context.Context) (OrderStatistics, error) {
	var stats OrderStatistics
	if err := s.client.get(ctx, "/admin/orders/statistics", nil, &stats); err != nil {
		return OrderStatistics{}, err
	}
	return stats, nil
}
