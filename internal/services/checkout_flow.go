package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blytz-live/storefront/internal/api"
	"github.com/blytz-live/storefront/internal/domain"
)

var (
	// ErrUnauthenticated rejects a checkout attempt without a session.
	ErrUnauthenticated = errors.New("checkout: not authenticated")
	// ErrEmptyCart rejects a checkout attempt with nothing to buy.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidStage rejects a submission that does not match the current
	// wizard stage.
	ErrInvalidStage = errors.New("checkout: operation not valid in current stage")
	// ErrInvalidAddress rejects a shipping form with missing required fields.
	ErrInvalidAddress = errors.New("checkout: address is incomplete")
)

// Stage is a step of the checkout wizard. Transitions are one-directional;
// only Reset returns to the start.
type Stage int

const (
	StageShipping Stage = iota
	StagePayment
	StageConfirmation
)

func (s Stage) String() string {
	switch s {
	case StageShipping:
		return "shipping"
	case StagePayment:
		return "payment"
	case StageConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// CheckoutOrders is the slice of the REST client that creates orders.
type CheckoutOrders interface {
	Create(ctx context.Context, req api.CreateOrderRequest) (domain.Order, error)
}

// CheckoutPayments is the slice of the REST client that runs the payment
// intent handshake.
type CheckoutPayments interface {
	CreateIntent(ctx context.Context, req api.CreatePaymentIntentRequest) (domain.PaymentIntent, error)
	Confirm(ctx context.Context, req api.ConfirmPaymentRequest) (domain.PaymentIntent, error)
}

// SessionSource reports whether a user session is held.
type SessionSource interface {
	Authenticated() bool
}

// CheckoutFlowDeps wires the checkout wizard's collaborators.
type CheckoutFlowDeps struct {
	Cart     *CartStore
	Orders   CheckoutOrders
	Payments CheckoutPayments
	Session  SessionSource
	Logger   func(ctx context.Context, event string, fields map[string]any)
	Clock    func() time.Time
}

// CheckoutFlow is the 3-step wizard: Shipping, Payment, Confirmation. The
// order is created exactly once per attempt; payment retries reuse the held
// order id. Reaching Confirmation clears the cart.
type CheckoutFlow struct {
	cart     *CartStore
	orders   CheckoutOrders
	payments CheckoutPayments
	session  SessionSource
	logger   func(ctx context.Context, event string, fields map[string]any)
	clock    func() time.Time

	stage        Stage
	orderRequest api.CreateOrderRequest
	orderID      string
	orderTotal   domain.Money
	intentID     string
}

// NewCheckoutFlow constructs a CheckoutFlow validating required dependencies.
func NewCheckoutFlow(deps CheckoutFlowDeps) (*CheckoutFlow, error) {
	if deps.Cart == nil {
		return nil, errors.New("checkout: cart store is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout: orders client is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout: payments client is required")
	}
	if deps.Session == nil {
		return nil, errors.New("checkout: session source is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &CheckoutFlow{
		cart:     deps.Cart,
		orders:   deps.Orders,
		payments: deps.Payments,
		session:  deps.Session,
		logger:   logger,
		clock:    clock,
		stage:    StageShipping,
	}, nil
}

// Stage returns the current wizard step.
func (f *CheckoutFlow) Stage() Stage {
	return f.stage
}

// OrderID returns the created order's id, empty before the first successful
// order creation.
func (f *CheckoutFlow) OrderID() string {
	return f.orderID
}

// SubmitShipping validates the session, cart, and address, normalises the
// form into an order request, and advances to Payment. No backend call is
// made here; the order is created on the first payment submission.
func (f *CheckoutFlow) SubmitShipping(ctx context.Context, shipping, billing domain.Address, notes string) error {
	if f.stage != StageShipping {
		return ErrInvalidStage
	}
	if !f.session.Authenticated() {
		return ErrUnauthenticated
	}
	if len(f.cart.Items()) == 0 {
		return ErrEmptyCart
	}
	if !shipping.Complete() {
		return ErrInvalidAddress
	}
	if !billing.Complete() {
		billing = shipping
	}

	f.orderRequest = api.CreateOrderRequest{
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Notes:           strings.TrimSpace(notes),
	}
	f.orderTotal = f.cart.Total()
	f.stage = StagePayment
	f.logger(ctx, "checkout.shipping_submitted", map[string]any{
		"total": f.orderTotal.String(),
	})
	return nil
}

// SubmitPayment creates the order once, then creates and confirms a payment
// intent for its total. Any failure leaves the stage at Payment for retry;
// a retry reuses the held order id. Success clears the cart and advances to
// Confirmation.
func (f *CheckoutFlow) SubmitPayment(ctx context.Context, paymentMethodID string) error {
	if f.stage != StagePayment {
		return ErrInvalidStage
	}

	if f.orderID == "" {
		order, err := f.orders.Create(ctx, f.orderRequest)
		if err != nil {
			f.logger(ctx, "checkout.order_create_failed", map[string]any{"error": err.Error()})
			return err
		}
		f.orderID = order.ID
		if order.Total.Minor > 0 {
			f.orderTotal = order.Total
		}
		f.logger(ctx, "checkout.order_created", map[string]any{"order_id": f.orderID})
	}

	if f.intentID == "" {
		intent, err := f.payments.CreateIntent(ctx, api.CreatePaymentIntentRequest{
			Amount:   f.orderTotal.Minor,
			Currency: strings.ToLower(f.orderTotal.Currency),
			Metadata: map[string]string{"order_id": f.orderID},
		})
		if err != nil {
			f.logger(ctx, "checkout.intent_create_failed", map[string]any{
				"order_id": f.orderID,
				"error":    err.Error(),
			})
			return err
		}
		f.intentID = intent.ID
	}

	if _, err := f.payments.Confirm(ctx, api.ConfirmPaymentRequest{
		PaymentIntentID: f.intentID,
		PaymentMethodID: strings.TrimSpace(paymentMethodID),
	}); err != nil {
		f.logger(ctx, "checkout.confirm_failed", map[string]any{
			"order_id":  f.orderID,
			"intent_id": f.intentID,
			"error":     err.Error(),
		})
		return err
	}

	f.stage = StageConfirmation
	f.cart.Clear(ctx)
	f.logger(ctx, "checkout.completed", map[string]any{"order_id": f.orderID})
	return nil
}

// Reset returns the wizard to Shipping and forgets the attempt.
func (f *CheckoutFlow) Reset() {
	f.stage = StageShipping
	f.orderRequest = api.CreateOrderRequest{}
	f.orderID = ""
	f.intentID = ""
	f.orderTotal = domain.Money{}
}
