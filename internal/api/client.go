// Package api wraps the marketplace REST backend under its versioned path
// prefix. Every wrapper speaks the backend's JSON envelopes and attaches the
// session bearer token when one is held.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/blytz-live/storefront/internal/platform/httpx"
)

const defaultTimeout = 15 * time.Second

// ErrUnreachable indicates the backend could not be reached at the transport
// level; callers treat this as a degradable condition, not a user error.
var ErrUnreachable = errors.New("api: backend unreachable")

// ClientDeps wires the pieces the REST client needs.
type ClientDeps struct {
	// BaseURL includes the versioned prefix, e.g. "https://host/api/v1".
	BaseURL    string
	HTTPClient *http.Client
	Tokens     *TokenStore
	Logger     func(ctx context.Context, event string, fields map[string]any)
	UserAgent  string
	// IDGenerator mints a request id per call for log correlation.
	IDGenerator func() string
}

// Client is the shared HTTP core behind the typed service wrappers.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    *TokenStore
	logger    func(ctx context.Context, event string, fields map[string]any)
	userAgent string
	newID     func() string

	Products  *ProductsService
	Cart      *CartService
	Orders    *OrdersService
	Payments  *PaymentsService
	Addresses *AddressesService
	Auth      *AuthService
	Auctions  *AuctionsService
	Catalog   *CatalogService
}

// NewClient constructs a Client validating required dependencies.
func NewClient(deps ClientDeps) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}

	client := &Client{
		baseURL:   baseURL,
		http:      httpClient,
		tokens:    deps.Tokens,
		logger:    logger,
		userAgent: strings.TrimSpace(deps.UserAgent),
		newID:     newID,
	}
	client.Products = &ProductsService{client: client}
	client.Cart = &CartService{client: client}
	client.Orders = &OrdersService{client: client}
	client.Payments = &PaymentsService{client: client}
	client.Addresses = &AddressesService{client: client}
	client.Auth = &AuthService{client: client, tokens: deps.Tokens}
	client.Auctions = &AuctionsService{client: client}
	client.Catalog = &CatalogService{client: client}
	return client, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger(ctx, "api.transport_failed", map[string]any{
			"method":     method,
			"path":       path,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := httpx.DecodeError(resp)
		if apiErr.RequestID == "" {
			apiErr.RequestID = requestID
		}
		c.logger(ctx, "api.request_rejected", map[string]any{
			"method":     method,
			"path":       path,
			"request_id": requestID,
			"status":     resp.StatusCode,
			"code":       apiErr.Code,
		})
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// IsUnauthorized reports whether the error came back as an auth rejection.
func IsUnauthorized(err error) bool {
	var apiErr *httpx.Error
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// IsNotFound reports whether the error marks a missing resource.
func IsNotFound(err error) bool {
	var apiErr *httpx.Error
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsUnreachable reports whether the backend could not be reached at all.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
