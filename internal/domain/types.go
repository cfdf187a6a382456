package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry as presented by the storefront. Products are
// immutable once fetched; the catalog snapshot owns them for the session.
type Product struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Price         Money    `json:"price"`
	OriginalPrice *Money   `json:"original_price,omitempty"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	Flash         bool     `json:"is_flash,omitempty"`
	Hot           bool     `json:"is_hot,omitempty"`
	TimeLeft      string   `json:"time_left,omitempty"`
	Description   string   `json:"description,omitempty"`
	SellerID      string   `json:"seller_id,omitempty"`
	Images        []string `json:"images,omitempty"`
}

// CartItem is a product held in the cart together with its quantity.
// A cart never contains two items with the same product id.
type CartItem struct {
	ProductID string     `json:"product_id"`
	Title     string     `json:"title"`
	Price     Money      `json:"price"`
	Image     string     `json:"image,omitempty"`
	Quantity  int        `json:"quantity"`
	AddedAt   time.Time  `json:"added_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// LineTotal returns price multiplied by quantity in exact minor units.
func (i CartItem) LineTotal() Money {
	if i.Quantity <= 0 {
		return Money{Currency: i.Price.Currency}
	}
	return Money{Minor: i.Price.Minor * int64(i.Quantity), Currency: i.Price.Currency}
}

// OrderStatus models the server-owned order lifecycle. Progression is linear;
// cancellation is only reachable from pending or processing.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// String returns the wire representation.
func (s OrderStatus) String() string { return string(s) }

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the linear forward progression (or a
// cancellation from pending/processing) permits moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return s == OrderStatusPending || s == OrderStatusProcessing
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// Address is a shipping or billing address snapshot.
type Address struct {
	ID         string `json:"id,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Line1      string `json:"address_line1"`
	Line2      string `json:"address_line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

// Complete reports whether the fields required to create an order are present.
func (a Address) Complete() bool {
	required := []string{a.FirstName, a.LastName, a.Line1, a.City, a.State, a.PostalCode, a.Country}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// OrderItem is a line in a server-owned order projection.
type OrderItem struct {
	ID        string `json:"id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	ProductID string `json:"product_id"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	Total     Money  `json:"total"`
}

// Order is the client's read-only projection of a server-owned order.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id,omitempty"`
	Status          OrderStatus `json:"status"`
	Subtotal        Money       `json:"subtotal"`
	Tax             Money       `json:"tax_amount"`
	Shipping        Money       `json:"shipping_cost"`
	Discount        Money       `json:"discount_amount"`
	Total           Money       `json:"total_amount"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`
	PaymentID       string      `json:"payment_id,omitempty"`
	TrackingNumber  string      `json:"tracking_number,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// PaymentIntentStatus models the payment confirmation handshake.
type PaymentIntentStatus string

const (
	PaymentIntentPending    PaymentIntentStatus = "pending"
	PaymentIntentProcessing PaymentIntentStatus = "processing"
	PaymentIntentCompleted  PaymentIntentStatus = "completed"
	PaymentIntentFailed     PaymentIntentStatus = "failed"
)

// PaymentIntent is the server-owned intent the client confirms during checkout.
// Amount is expressed in the backend's minor currency units.
type PaymentIntent struct {
	ID              string              `json:"id"`
	Amount          int64               `json:"amount"`
	Currency        string              `json:"currency"`
	Status          PaymentIntentStatus `json:"status"`
	ClientSecret    string              `json:"client_secret,omitempty"`
	PaymentMethodID string              `json:"payment_method_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at,omitempty"`
}

// PaymentMethod is a saved payment instrument.
type PaymentMethod struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id,omitempty"`
	Type        string `json:"type"`
	Provider    string `json:"provider"`
	MethodRef   string `json:"method_ref,omitempty"`
	IsDefault   bool   `json:"is_default"`
	Last4       string `json:"last4,omitempty"`
	ExpiryMonth int    `json:"expiry_month,omitempty"`
	ExpiryYear  int    `json:"expiry_year,omitempty"`
	Brand       string `json:"brand,omitempty"`
}

// User is the authenticated account profile.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Category is a catalog taxonomy node.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
}

// Auction is the live-sale projection for a product.
type Auction struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	Status       string    `json:"status"`
	CurrentBid   Money     `json:"current_bid"`
	BidCount     int       `json:"bid_count"`
	StartsAt     time.Time `json:"starts_at,omitempty"`
	EndsAt       time.Time `json:"ends_at,omitempty"`
	WinnerUserID string    `json:"winner_user_id,omitempty"`
}

// Bid is a single auction bid.
type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    Money     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// AuctionStats aggregates bidding activity for an auction.
type AuctionStats struct {
	AuctionID    string `json:"auction_id"`
	BidCount     int    `json:"bid_count"`
	UniqueBidder int    `json:"unique_bidders"`
	HighestBid   Money  `json:"highest_bid"`
}
