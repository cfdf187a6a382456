package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// PaymentsService wraps payment methods, intents, and privileged refunds.
type PaymentsService struct {
	client *Client
}

// CreatePaymentIntentRequest creates an intent scoped to an order total.
// Amount is expressed in minor currency units as the backend expects.
type CreatePaymentIntentRequest struct {
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency,omitempty"`
	PaymentMethodID string            `json:"payment_method_id,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ConfirmPaymentRequest completes the confirmation handshake for an intent.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

type paymentIntentEnvelope struct {
	Wrapped *domain.PaymentIntent `json:"payment_intent"`
	domain.PaymentIntent
}

func (e paymentIntentEnvelope) intent() domain.PaymentIntent {
	if e.Wrapped != nil {
		return *e.Wrapped
	}
	return e.PaymentIntent
}

// ListMethods fetches the user's saved payment methods.
func (s *PaymentsService) ListMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	var envelope struct {
		Methods []domain.PaymentMethod `json:"methods"`
	}
	if err := s.client.get(ctx, "/payments/methods", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Methods, nil
}

// SaveMethod stores a provider payment-method reference against the user.
func (s *PaymentsService) SaveMethod(ctx context.Context, paymentMethodID string) (domain.PaymentMethod, error) {
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return domain.PaymentMethod{}, fmt.Errorf("api: payment method id is required")
	}
	body := map[string]any{"payment_method_id": paymentMethodID}
	var method domain.PaymentMethod
	if err := s.client.post(ctx, "/payments/methods", body, &method); err != nil {
		return domain.PaymentMethod{}, err
	}
	return method, nil
}

// DeleteMethod removes a saved payment method.
func (s *PaymentsService) DeleteMethod(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: payment method id is required")
	}
	return s.client.delete(ctx, "/payments/methods/"+url.PathEscape(id), nil)
}

// CreateIntent creates a payment intent.
func (s *PaymentsService) CreateIntent(ctx context.Context, req CreatePaymentIntentRequest) (domain.PaymentIntent, error) {
	if req.Amount <= 0 {
		return domain.PaymentIntent{}, fmt.Errorf("api: intent amount must be positive")
	}
	if req.Currency == "" {
		req.Currency = strings.ToLower(domain.DefaultCurrency)
	}
	var envelope paymentIntentEnvelope
	if err := s.client.post(ctx, "/payments/intents", req, &envelope); err != nil {
		return domain.PaymentIntent{}, err
	}
	return envelope.intent(), nil
}

// GetIntent fetches an intent by id.
func (s *PaymentsService) GetIntent(ctx context.Context, id string) (domain.PaymentIntent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PaymentIntent{}, fmt.Errorf("api: intent id is required")
	}
	var envelope paymentIntentEnvelope
	if err := s.client.get(ctx, "/payments/"+url.PathEscape(id), nil, &envelope); err != nil {
		return domain.PaymentIntent{}, err
	}
	return envelope.intent(), nil
}

// Confirm completes the intent confirmation handshake.
func (s *PaymentsService) Confirm(ctx context.Context, req ConfirmPaymentRequest) (domain.PaymentIntent, error) {
	if strings.TrimSpace(req.PaymentIntentID) == "" {
		return domain.PaymentIntent{}, fmt.Errorf("api: intent id is required")
	}
	var envelope paymentIntentEnvelope
	if err := s.client.post(ctx, "/payments/confirm", req, &envelope); err != nil {
		return domain.PaymentIntent{}, err
	}
	return envelope.intent(), nil
}

// Refund issues a privileged full or partial refund.
func (s *PaymentsService) Refund(ctx context.Context, paymentID string, amount *int64) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return fmt.Errorf("api: payment id is required")
	}
	body := map[string]any{"payment_id": paymentID}
	if amount != nil {
		body["amount"] = *amount
	}
	return s.client.post(ctx, "/admin/payments/refund", body, nil)
}
