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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrGenAIEmpty indicates the model returned no usable candidate text.
var ErrGenAIEmpty = errors.New("api: model returned no text")

const maxGenAIBody = 1 << 20

// GenAIDeps wires the generative-text client.
type GenAIDeps struct {
	// Endpoint is the models base, e.g.
	// "https://generativelanguage.googleapis.com/v1beta/models".
	Endpoint   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

// GenAIClient calls a hosted generative-text model. It speaks the
// generateContent wire shape: a list of content parts in, the first
// candidate's first text part out.
type GenAIClient struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewGenAIClient constructs a GenAIClient validating required dependencies.
func NewGenAIClient(deps GenAIDeps) (*GenAIClient, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(deps.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("api: genai endpoint is required")
	}
	model := strings.TrimSpace(deps.Model)
	if model == "" {
		return nil, errors.New("api: genai model is required")
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &GenAIClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   strings.TrimSpace(deps.APIKey),
		http:     httpClient,
		logger:   logger,
	}, nil
}

type genaiPart struct {
	Text string `json:"text"`
}

type genaiContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []genaiPart `json:"parts"`
}

type genaiRequest struct {
	Contents []genaiContent `json:"contents"`
}

type genaiResponse struct {
	Candidates []struct {
		Content genaiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt followed by the alternating conversation turns
// and returns the model's reply text.
func (c *GenAIClient) Generate(ctx context.Context, prompt string, turns []string) (string, error) {
	contents := make([]genaiContent, 0, len(turns)+1)
	contents = append(contents, genaiContent{Role: "user", Parts: []genaiPart{{Text: prompt}}})
	for i, turn := range turns {
		role := "user"
		if i%2 == 1 {
			role = "model"
		}
		contents = append(contents, genaiContent{Role: role, Parts: []genaiPart{{Text: turn}}})
	}

	payload, err := json.Marshal(genaiRequest{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("api: encode genai request: %w", err)
	}

	target := c.endpoint + "/" + url.PathEscape(c.model) + ":generateContent"
	if c.apiKey != "" {
		target += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("api: build genai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger(ctx, "genai.transport_failed", map[string]any{"error": err.Error()})
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGenAIBody))
	if err != nil {
		return "", fmt.Errorf("api: read genai response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies may not be JSON at all (proxy HTML); fall back to
		// the status line.
		message := resp.Status
		var failure genaiResponse
		if jsonErr := json.Unmarshal(data, &failure); jsonErr == nil && failure.Error != nil && failure.Error.Message != "" {
			message = failure.Error.Message
		}
		c.logger(ctx, "genai.request_rejected", map[string]any{
			"status":  resp.StatusCode,
			"message": message,
		})
		return "", fmt.Errorf("api: genai request failed: %s", message)
	}

	var decoded genaiResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("api: decode genai response: %w", err)
	}

	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", ErrGenAIEmpty
}
