package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 8 << 10

// Error is the canonical JSON error envelope returned by the marketplace API,
// decoded on the client side.
type Error struct {
	Code      string         `json:"error"`
	Message   string         `json:"message"`
	Status    int            `json:"status"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	code := e.Code
	if code == "" {
		code = http.StatusText(e.Status)
	}
	if e.Message == "" {
		return fmt.Sprintf("api: %s (status %d)", code, e.Status)
	}
	return fmt.Sprintf("api: %s: %s (status %d)", code, e.Message, e.Status)
}

// IsNotFound reports whether the server said the resource does not exist.
func (e *Error) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IsUnauthorized reports whether the request was rejected for missing or
// invalid credentials.
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsValidation reports whether the server rejected the request payload.
func (e *Error) IsValidation() bool {
	return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
}

// IsServer reports whether the failure originated on the backend.
func (e *Error) IsServer() bool { return e.Status >= http.StatusInternalServerError }

// DecodeError reads a non-2xx response body into an Error, tolerating
// non-JSON bodies from proxies.
func DecodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = sanitize(string(body), 512)
		return apiErr
	}

	if code, ok := payload["error"].(string); ok {
		apiErr.Code = sanitize(code, 80)
	}
	if message, ok := payload["message"].(string); ok {
		apiErr.Message = sanitize(message, 512)
	}
	if requestID, ok := payload["request_id"].(string); ok {
		apiErr.RequestID = sanitize(requestID, 80)
	}
	delete(payload, "error")
	delete(payload, "message")
	delete(payload, "status")
	delete(payload, "request_id")
	if len(payload) > 0 {
		apiErr.Details = payload
	}
	return apiErr
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
