package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// CartService wraps the backend cart endpoints. The cart store layers
// local-first fallback on top; this type only speaks the wire protocol.
type CartService struct {
	client *Client
}

type wireCartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Product   struct {
		ID     string       `json:"id"`
		Title  string       `json:"title"`
		Price  domain.Money `json:"price"`
		Images []string     `json:"images"`
	} `json:"product"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at"`
}

type cartEnvelope struct {
	Items []wireCartItem `json:"items"`
	Cart  *struct {
		Items []wireCartItem `json:"items"`
	} `json:"cart"`
}

func (e cartEnvelope) items() []wireCartItem {
	if len(e.Items) > 0 {
		return e.Items
	}
	if e.Cart != nil {
		return e.Cart.Items
	}
	return nil
}

// Fetch returns the authoritative cart contents.
func (s *CartService) Fetch(ctx context.Context) ([]domain.CartItem, error) {
	var envelope cartEnvelope
	if err := s.client.get(ctx, "/cart", nil, &envelope); err != nil {
		return nil, err
	}

	wire := envelope.items()
	items := make([]domain.CartItem, 0, len(wire))
	for _, entry := range wire {
		item := domain.CartItem{
			ProductID: entry.ProductID,
			Title:     entry.Product.Title,
			Price:     entry.Product.Price,
			Quantity:  entry.Quantity,
		}
		if len(entry.Product.Images) > 0 {
			item.Image = entry.Product.Images[0]
		}
		items = append(items, item)
	}
	return items, nil
}

// AddItem posts an add-to-cart request.
func (s *CartService) AddItem(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("api: product id is required")
	}
	if quantity < 1 {
		return fmt.Errorf("api: quantity must be at least 1")
	}
	body := map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}
	return s.client.post(ctx, "/cart/items", body, nil)
}

// UpdateItem sets the quantity for a cart line.
func (s *CartService) UpdateItem(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("api: product id is required")
	}
	body := map[string]any{"quantity": quantity}
	return s.client.put(ctx, "/cart/items/"+url.PathEscape(productID), body, nil)
}

// RemoveItem deletes a cart line.
func (s *CartService) RemoveItem(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("api: product id is required")
	}
	return s.client.delete(ctx, "/cart/items/"+url.PathEscape(productID), nil)
}

// Clear empties the backend cart.
func (s *CartService) Clear(ctx context.Context) error {
	return s.client.delete(ctx, "/cart", nil)
}

// Merge folds a guest cart into the authenticated user's cart.
func (s *CartService) Merge(ctx context.Context, cartToken string) error {
	body := map[string]any{}
	if token := strings.TrimSpace(cartToken); token != "" {
		body["cart_token"] = token
	}
	return s.client.post(ctx, "/cart/merge", body, nil)
}
