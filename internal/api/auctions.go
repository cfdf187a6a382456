package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// AuctionsService wraps the live-sale endpoints.
type AuctionsService struct {
	client *Client
}

// AuctionFilter narrows auction listings.
type AuctionFilter struct {
	Status string
	Limit  int
	Offset int
}

func (f AuctionFilter) query() url.Values {
	values := url.Values{}
	if f.Status != "" {
		values.Set("status", f.Status)
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		values.Set("offset", strconv.Itoa(f.Offset))
	}
	return values
}

// List fetches auctions matching the filter.
func (s *AuctionsService) List(ctx context.Context, filter AuctionFilter) ([]domain.Auction, error) {
	var envelope struct {
		Auctions []domain.Auction `json:"auctions"`
	}
	if err := s.client.get(ctx, "/auctions", filter.query(), &envelope); err != nil {
		return nil, err
	}
	return envelope.Auctions, nil
}

// Live fetches currently running auctions.
func (s *AuctionsService) Live(ctx context.Context) ([]domain.Auction, error) {
	var envelope struct {
		Auctions []domain.Auction `json:"auctions"`
	}
	if err := s.client.get(ctx, "/auctions/live", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Auctions, nil
}

// Get fetches a single auction.
func (s *AuctionsService) Get(ctx context.Context, id string) (domain.Auction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Auction{}, fmt.Errorf("api: auction id is required")
	}
	var envelope struct {
		Wrapped *domain.Auction `json:"auction"`
		domain.Auction
	}
	if err := s.client.get(ctx, "/auctions/"+url.PathEscape(id), nil, &envelope); err != nil {
		return domain.Auction{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.Auction, nil
}

// Bids fetches the bid history for an auction, newest first.
func (s *AuctionsService) Bids(ctx context.Context, auctionID string) ([]domain.Bid, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return nil, fmt.Errorf("api: auction id is required")
	}
	var envelope struct {
		Bids []domain.Bid `json:"bids"`
	}
	if err := s.client.get(ctx, "/auctions/"+url.PathEscape(auctionID)+"/bids", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Bids, nil
}

// Stats fetches bidding activity aggregates for an auction.
func (s *AuctionsService) Stats(ctx context.Context, auctionID string) (domain.AuctionStats, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return domain.AuctionStats{}, fmt.Errorf("api: auction id is required")
	}
	var stats domain.AuctionStats
	if err := s.client.get(ctx, "/auctions/"+url.PathEscape(auctionID)+"/stats", nil, &stats); err != nil {
		return domain.AuctionStats{}, err
	}
	return stats, nil
}

// PlaceBid submits a bid. Amount is expressed in major units as entered by
// the user and converted before transmission.
func (s *AuctionsService) PlaceBid(ctx context.Context, auctionID string, amount domain.Money) (domain.Bid, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return domain.Bid{}, fmt.Errorf("api: auction id is required")
	}
	if amount.Minor <= 0 {
		return domain.Bid{}, fmt.Errorf("api: bid amount must be positive")
	}
	body := map[string]any{"amount": amount}
	var envelope struct {
		Wrapped *domain.Bid `json:"bid"`
		domain.Bid
	}
	if err := s.client.post(ctx, "/auctions/"+url.PathEscape(auctionID)+"/bids", body, &envelope); err != nil {
		return domain.Bid{}, err
	}
	if envelope.Wrapped != nil {
		return *envelope.Wrapped, nil
	}
	return envelope.Bid, nil
}
