package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blytz-live/storefront/internal/domain"
)

// CatalogService wraps taxonomy, collection, variant, and inventory
// management endpoints. Most of these require an elevated role; the client
// sends them like any other call and surfaces the backend's authorisation
// verdict.
type CatalogService struct {
	client *Client
}

// Collection groups products for merchandising.
type Collection struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug,omitempty"`
	Description string   `json:"description,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty"`
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	SKU       string            `json:"sku"`
	Price     domain.Money      `json:"price"`
	Options   map[string]string `json:"options,omitempty"`
}

// InventoryLevel is the stock position for a variant.
type InventoryLevel struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved,omitempty"`
}

// InventoryMovement is a single stock adjustment record.
type InventoryMovement struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CatalogStats summarises the catalog for dashboards.
type CatalogStats struct {
	ProductCount    int `json:"product_count"`
	CategoryCount   int `json:"category_count"`
	CollectionCount int `json:"collection_count"`
	LowStockCount   int `json:"low_stock_count"`
	OutOfStockCount int `json:"out_of_stock_count"`
}

// Categories fetches the category tree as a flat list.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	var envelope struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := s.client.get(ctx, "/catalog/categories", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Categories, nil
}

// CreateCategory adds a taxonomy node.
func (s *CatalogService) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return domain.Category{}, fmt.Errorf("api: category name is required")
	}
	var created domain.Category
	if err := s.client.post(ctx, "/catalog/categories", category, &created); err != nil {
		return domain.Category{}, err
	}
	return created, nil
}

// UpdateCategory replaces a taxonomy node.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, category domain.Category) (domain.Category, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Category{}, fmt.Errorf("api: category id is required")
	}
	var updated domain.Category
	if err := s.client.put(ctx, "/catalog/categories/"+url.PathEscape(id), category, &updated); err != nil {
		return domain.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes a taxonomy node.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: category id is required")
	}
	return s.client.delete(ctx, "/catalog/categories/"+url.PathEscape(id), nil)
}

// MoveCategory reparents a taxonomy node. An empty parent moves it to the
// root.
func (s *CatalogService) MoveCategory(ctx context.Context, id, parentID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: category id is required")
	}
	body := map[string]string{"parent_id": strings.TrimSpace(parentID)}
	return s.client.put(ctx, "/catalog/categories/"+url.PathEscape(id)+"/move", body, nil)
}

// Collections fetches merchandising collections.
func (s *CatalogService) Collections(ctx context.Context) ([]Collection, error) {
	var envelope struct {
		Collections []Collection `json:"collections"`
	}
	if err := s.client.get(ctx, "/catalog/collections", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Collections, nil
}

// CreateCollection adds a collection.
func (s *CatalogService) CreateCollection(ctx context.Context, collection Collection) (Collection, error) {
	if strings.TrimSpace(collection.Name) == "" {
		return Collection{}, fmt.Errorf("api: collection name is required")
	}
	var created Collection
	if err := s.client.post(ctx, "/catalog/collections", collection, &created); err != nil {
		return Collection{}, err
	}
	return created, nil
}

// UpdateCollection replaces a collection.
func (s *CatalogService) UpdateCollection(ctx context.Context, id string, collection Collection) (Collection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Collection{}, fmt.Errorf("api: collection id is required")
	}
	var updated Collection
	if err := s.client.put(ctx, "/catalog/collections/"+url.PathEscape(id), collection, &updated); err != nil {
		return Collection{}, err
	}
	return updated, nil
}

// DeleteCollection removes a collection.
func (s *CatalogService) DeleteCollection(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: collection id is required")
	}
	return s.client.delete(ctx, "/catalog/collections/"+url.PathEscape(id), nil)
}

// AddCollectionProducts attaches products to a collection.
func (s *CatalogService) AddCollectionProducts(ctx context.Context, id string, productIDs []string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("api: collection id is required")
	}
	if len(productIDs) == 0 {
		return fmt.Errorf("api: at least one product id is required")
	}
	body := map[string]any{"product_ids": productIDs}
	return s.client.post(ctx, "/catalog/collections/"+url.PathEscape(id)+"/products", body, nil)
}

// RemoveCollectionProduct detaches a product from a collection.
func (s *CatalogService) RemoveCollectionProduct(ctx context.Context, id, productID string) error {
	id = strings.TrimSpace(id)
	productID = strings.TrimSpace(productID)
	if id == "" || productID == "" {
		return fmt.Errorf("api: collection id and product id are required")
	}
	return s.client.delete(ctx, "/catalog/collections/"+url.PathEscape(id)+"/products/"+url.PathEscape(productID), nil)
}

// Variants fetches the variants of a product.
func (s *CatalogService) Variants(ctx context.Context, productID string) ([]Variant, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("api: product id is required")
	}
	values := url.Values{}
	values.Set("product_id", productID)
	var envelope struct {
		Variants []Variant `json:"variants"`
	}
	if err := s.client.get(ctx, "/catalog/variants", values, &envelope); err != nil {
		return nil, err
	}
	return envelope.Variants, nil
}

// Inventory fetches the stock position for a variant.
func (s *CatalogService) Inventory(ctx context.Context, variantID string) (InventoryLevel, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return InventoryLevel{}, fmt.Errorf("api: variant id is required")
	}
	var level InventoryLevel
	if err := s.client.get(ctx, "/catalog/inventory/"+url.PathEscape(variantID), nil, &level); err != nil {
		return InventoryLevel{}, err
	}
	return level, nil
}

// SetInventory overwrites the stock position for a variant.
func (s *CatalogService) SetInventory(ctx context.Context, variantID string, quantity int) (InventoryLevel, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return InventoryLevel{}, fmt.Errorf("api: variant id is required")
	}
	if quantity < 0 {
		return InventoryLevel{}, fmt.Errorf("api: quantity must not be negative")
	}
	body := map[string]int{"quantity": quantity}
	var level InventoryLevel
	if err := s.client.put(ctx, "/catalog/inventory/"+url.PathEscape(variantID), body, &level); err != nil {
		return InventoryLevel{}, err
	}
	return level, nil
}

// InventoryMovements fetches the adjustment history for a variant.
func (s *CatalogService) InventoryMovements(ctx context.Context, variantID string, limit int) ([]InventoryMovement, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return nil, fmt.Errorf("api: variant id is required")
	}
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var envelope struct {
		Movements []InventoryMovement `json:"movements"`
	}
	if err := s.client.get(ctx, "/catalog/inventory/"+url.PathEscape(variantID)+"/movements", values, &envelope); err != nil {
		return nil, err
	}
	return envelope.Movements, nil
}

// LowStock fetches variants at or below their reorder threshold.
func (s *CatalogService) LowStock(ctx context.Context) ([]InventoryLevel, error) {
	var envelope struct {
		Levels []InventoryLevel `json:"levels"`
	}
	if err := s.client.get(ctx, "/catalog/inventory/low-stock", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Levels, nil
}

// OutOfStock fetches variants with no sellable stock.
func (s *CatalogService) OutOfStock(ctx context.Context) ([]InventoryLevel, error) {
	var envelope struct {
		Levels []InventoryLevel `json:"levels"`
	}
	if err := s.client.get(ctx, "/catalog/inventory/out-of-stock", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Levels, nil
}

// Stats fetches catalog-wide aggregates.
func (s *CatalogService) Stats(ctx context.Context) (CatalogStats, error) {
	var stats CatalogStats
	if err := s.client.get(ctx, "/catalog/stats", nil, &stats); err != nil {
		return CatalogStats{}, err
	}
	return stats, nil
}
