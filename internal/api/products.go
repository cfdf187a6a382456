package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Page      int
	Limit     int
	Category  string
	MinPrice  *domain.Money
	MaxPrice  *domain.Money
	Condition string
	Status    string
	SortBy    string
	SortOrder string
	Search    string
}

func (f ProductFilter) query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		q.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("max_price", f.MaxPrice.String())
	}
	if f.Condition != "" {
		q.Set("condition", f.Condition)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		q.Set("sort_order", f.SortOrder)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// ProductsService wraps the product listing and detail endpoints.
type ProductsService struct {
	client *Client
}

type productEnvelope struct {
	Product *wireProduct `json:"product"`
	// Some deployments return the product unwrapped.
	wireProduct
}

type productListEnvelope struct {
	Products []wireProduct `json:"products"`
	Total    int           `json:"total"`
}

// wireProduct is the backend's product record before storefront projection.
type wireProduct struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartingPrice domain.Money  `json:"starting_price"`
	BuyNowPrice   *domain.Money `json:"buy_now_price"`
	OriginalPrice *domain.Money `json:"original_price"`
	Condition     string        `json:"condition"`
	Status        string        `json:"status"`
	Images        []string      `json:"images"`
	CategoryID    string        `json:"category_id"`
	SellerID      string        `json:"seller_id"`
	Category      *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"category"`
	Featured  bool    `json:"featured"`
	Rating    float64 `json:"rating"`
	Reviews   int     `json:"review_count"`
	ViewCount int     `json:"view_count"`
}

func (w wireProduct) toDomain() domain.Product {
	price := w.StartingPrice
	if w.BuyNowPrice != nil {
		price = *w.BuyNowPrice
	}
	product := domain.Product{
		ID:          w.ID,
		Title:       w.Title,
		Price:       price,
		Rating:      w.Rating,
		Reviews:     w.Reviews,
		Category:    "Tech",
		Hot:         w.Featured,
		Description: w.Description,
		SellerID:    w.SellerID,
		Images:      w.Images,
	}
	if w.OriginalPrice != nil {
		dup := *w.OriginalPrice
		product.OriginalPrice = &dup
	}
	if len(w.Images) > 0 {
		product.Image = w.Images[0]
	}
	if w.Category != nil && strings.TrimSpace(w.Category.Name) != "" {
		product.Category = w.Category.Name
	}
	return product
}

// List fetches a page of products.
func (s *ProductsService) List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error) {
	var envelope productListEnvelope
	if err := s.client.get(ctx, "/products", filter.query(), &envelope); err != nil {
		return nil, 0, err
	}
	products := make([]domain.Product, 0, len(envelope.Products))
	for _, wire := range envelope.Products {
		products = append(products, wire.toDomain())
	}
	total := envelope.Total
	if total == 0 {
		total = len(products)
	}
	return products, total, nil
}

// Get fetches a single product by id.
func (s *ProductsService) Get(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, fmt.Errorf("api: product id is required")
	}
	var envelope productEnvelope
	if err := s.client.get(ctx, "/products/"+url.PathEscape(id), nil, &envelope); err != nil {
		return domain.Product{}, err
	}
	if envelope.Product != nil {
		return envelope.Product.toDomain(), nil
	}
	return envelope.wireProduct.toDomain(), nil
}

// Search queries the catalog search endpoint.
func (s *ProductsService) Search(ctx context.Context, query string, filter ProductFilter) ([]domain.Product, int, error) {
	q := filter.query()
	q.Set("q", query)
	var envelope struct {
		Data  []wireProduct `json:"data"`
		Total int           `json:"total"`
	}
	if err := s.client.get(ctx, "/catalog/search/products", q, &envelope); err != nil {
		return nil, 0, err
	}
	products := make([]domain.Product, 0, len(envelope.Data))
	for _, wire := range envelope.Data {
		products = append(products, wire.toDomain())
	}
	total := envelope.Total
	if total == 0 {
		total = len(products)
	}
	return products, total, nil
}
