package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// AddressesService manages the user's saved shipping addresses.
type AddressesService struct {
	client *Client
}

type addressEnvelope struct {
	Wrapped *domain.Address `json:"address"`
	domain.Address
}

func (e addressEnvelope) address() domain.Address {
	if e.Wrapped != nil {
		return *e.Wrapped
	}
	return e.Address
}

// List fetches all saved addresses.
func (s *AddressesService) List(ctx context.Context) ([]domain.Address, error) {
	var envelope struct {
		Addresses []domain.Address `json:"addresses"`
	}
	if err := s.client.get(ctx, "/addresses", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Addresses, nil
}

// Create saves a new address. The address must carry every required field.
func (s *AddressesService) Create(ctx context.Context, addr domain.Address) (domain.Address, error) {
	if !addr.Complete() {
		return domain.Address{}, fmt.Errorf("api: address is missing required fields")
	}
	var envelope addressEnvelope
	if err := s.client.post(ctx, "/addresses", addr, &envelope); err != nil {
		return domain.Address{}, err
	}
	return envelope.address(), nil
}

// Update replaces a saved address.
func (s *AddressesService) Update(ctx context.Context, id string, addr domain.Address) (domain.Address, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Address{}, fmt.Errorf("api: address id is required")
	}
	if !addr.Complete() {
		return domain.Address{}, fmt.Errorf("api: address is missing required fields")
	}
	var envelope addressEnvelope
	if err := s.client.put(ctx, "/addresses/"+url.PathEscape(id), addr, &envelope); err != nil {
		return domain.Address{}, err
	}
	return envelope.address(), nil
}

// Delete removes a saved address.
func (s *AddressesService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: address id is required")
	}
	return s.client.delete(ctx, "/addresses/"+url.PathEscape(id), nil)
}

// SetDefault marks an address as the default shipping address.
func (s *AddressesService) SetDefault(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: address id is required")
	}
	return s.client.put(ctx, "/addresses/"+url.PathEscape(id)+"/default", nil, nil)
}
