// Package upstream is the HTTP client for the farm-supply REST API, the
// sole authority for business data. Every mutating call carries a
// client-generated idempotency key so the server can deduplicate
// double-submissions.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const idempotencyHeader = "Idempotency-Key"

// Config holds upstream API client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the upstream farm-supply API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new upstream API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// statusBody is the wire body of a status transition request
type statusBody struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// receiveBody is the wire body of a stock receive request
type receiveBody struct {
	Quantity int64 `json:"quantity"`
}

// errorBody is the upstream error envelope; message may be a string or an
// array of strings
type errorBody struct {
	Message json.RawMessage `json:"message"`
}

// Do issues one request and returns the raw response body. A 401 maps to
// ErrUnauthorized before anything else is read from the body; other
// non-2xx responses become a RejectionError carrying the server's message
// verbatim; transport failures become a NetworkError.
func (c *Client) Do(ctx context.Context, method, path, token string, body any, idemKey string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set(idempotencyHeader, idemKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("Upstream returned 401", zap.String("path", path))
		return nil, ErrUnauthorized
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejection := &RejectionError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(data),
		}
		c.logger.Warn("Upstream rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", rejection.Message))
		return nil, rejection
	}

	return data, nil
}

// parseErrorMessage extracts the upstream message field, which may be a
// plain string or an array of strings
func parseErrorMessage(data []byte) string {
	var envelope errorBody
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Message == nil {
		return strings.TrimSpace(string(data))
	}

	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil {
		return single
	}

	var many []string
	if err := json.Unmarshal(envelope.Message, &many); err == nil {
		return strings.Join(many, "; ")
	}

	return strings.TrimSpace(string(envelope.Message))
}

// List fetches the full collection
func List[T any](ctx context.Context, c *Client, token, collection string) ([]T, error) {
	data, err := c.Do(ctx, http.MethodGet, "/"+collection, token, nil, "")
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", collection, err)
	}
	return out, nil
}

// Get fetches a single entity by id or human number
func Get[T any](ctx context.Context, c *Client, token, collection, id string) (T, error) {
	var out T
	data, err := c.Do(ctx, http.MethodGet, "/"+collection+"/"+id, token, nil, "")
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", collection, err)
	}
	return out, nil
}

// Create posts a draft and returns the created entity with its assigned
// id and human number
func Create[T any](ctx context.Context, c *Client, token, collection string, draft any, idemKey string) (T, error) {
	var out T
	data, err := c.Do(ctx, http.MethodPost, "/"+collection, token, draft, idemKey)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode created %s: %w", collection, err)
	}
	return out, nil
}

// UpdateStatus patches an entity's status and returns the server's
// canonical updated entity
func UpdateStatus[T any](ctx context.Context, c *Client, token, collection, id, status, reason, idemKey string) (T, error) {
	var out T
	body := statusBody{Status: status, Reason: reason}
	data, err := c.Do(ctx, http.MethodPatch, "/"+collection+"/"+id+"/status", token, body, idemKey)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode updated %s: %w", collection, err)
	}
	return out, nil
}

// Receive posts a received quantity against a stock receipt and returns
// the server's canonical updated receipt
func Receive[T any](ctx context.Context, c *Client, token, collection, id string, quantity int64, idemKey string) (T, error) {
	var out T
	data, err := c.Do(ctx, http.MethodPost, "/"+collection+"/"+id+"/receive", token, receiveBody{Quantity: quantity}, idemKey)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode received %s: %w", collection, err)
	}
	return out, nil
}

// Approve posts an accountant sign-off on a stock receipt and returns the
// server's canonical updated receipt
func Approve[T any](ctx context.Context, c *Client, token, collection, id, idemKey string) (T, error) {
	var out T
	data, err := c.Do(ctx, http.MethodPost, "/"+collection+"/"+id+"/approve", token, nil, idemKey)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode approved %s: %w", collection, err)
	}
	return out, nil
}

// NextNumber asks the authoritative server-side counter for the next
// human-readable document number. The portal never generates numbers
// client-side.
func (c *Client) NextNumber(ctx context.Context, token, collection string) (string, error) {
	data, err := c.Do(ctx, http.MethodPost, "/counters/"+collection+"/next", token, nil, "")
	if err != nil {
		return "", err
	}
	var out struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode counter response: %w", err)
	}
	return out.Number, nil
}

// Delete removes an entity. This is the privileged admin-only override;
// role enforcement happens at the handler boundary.
func (c *Client) Delete(ctx context.Context, token, collection, id string) error {
	_, err := c.Do(ctx, http.MethodDelete, "/"+collection+"/"+id, token, nil, "")
	return err
}
