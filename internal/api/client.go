// Package api is the client for the receipts back office REST API.
//
// Transport failures, non-2xx statuses and unparsable bodies surface as
// *APIError. A 2xx response with an empty body or an unexpected JSON
// shape is not an error; it yields an empty payload.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"receipts/internal/fields"
	"receipts/internal/logger"
	"receipts/internal/reconciliation"
	"receipts/pkg/models"
)

const (
	// DefaultTimeout bounds a single request when no HTTP client is given.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries a per-request id for backend log correlation.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// Client talks to the receipts back office.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	const op = "NewClient"

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, NewAPIError(op, ErrInvalidBaseURL, fmt.Sprintf("%q", baseURL), 0)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logger.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetModal fetches the raw modal payload of a receipt.
func (c *Client) GetModal(ctx context.Context, receiptID string) (models.RawPayload, error) {
	const op = "GetModal"

	if receiptID == "" {
		return nil, NewAPIError(op, ErrMissingReceiptID, "", 0)
	}

	body, err := c.do(ctx, op, http.MethodGet, c.receiptPath(receiptID, "modal"), nil)
	if err != nil {
		return nil, err
	}
	return unwrapPayload(body), nil
}

// GetLineItems fetches the line items of a receipt. The endpoint answers
// with {"line_items": [...]} or a bare array.
func (c *Client) GetLineItems(ctx context.Context, receiptID string) ([]any, error) {
	const op = "GetLineItems"

	if receiptID == "" {
		return nil, NewAPIError(op, ErrMissingReceiptID, "", 0)
	}

	body, err := c.do(ctx, op, http.MethodGet, c.receiptPath(receiptID, "line-items"), nil)
	if err != nil {
		return nil, err
	}

	switch v := body.(type) {
	case []any:
		return v, nil
	case map[string]any:
		keys := append([]string{"line_items"}, fields.ItemArrayKeys...)
		return fields.FirstNonEmptyArray(v, append(keys, "data")), nil
	default:
		return []any{}, nil
	}
}

// SaveModal submits a payload and returns the payload the backend stored,
// taken from {"data": ...} or the whole body.
func (c *Client) SaveModal(ctx context.Context, receiptID string, payload models.ModalPayload) (models.RawPayload, error) {
	const op = "SaveModal"

	if receiptID == "" {
		return nil, NewAPIError(op, ErrMissingReceiptID, "", 0)
	}

	body, err := c.do(ctx, op, http.MethodPut, c.receiptPath(receiptID, "modal"), payload)
	if err != nil {
		return nil, err
	}
	return unwrapPayload(body), nil
}

// DeleteReceipt removes a receipt.
func (c *Client) DeleteReceipt(ctx context.Context, receiptID string) error {
	const op = "DeleteReceipt"

	if receiptID == "" {
		return NewAPIError(op, ErrMissingReceiptID, "", 0)
	}

	_, err := c.do(ctx, op, http.MethodDelete, c.receiptPath(receiptID), nil)
	return err
}

// ListReceipts fetches the receipts list.
func (c *Client) ListReceipts(ctx context.Context) ([]models.ReceiptSummary, error) {
	const op = "ListReceipts"

	body, err := c.do(ctx, op, http.MethodGet, "api/receipts", nil)
	if err != nil {
		return nil, err
	}
	return reconciliation.NormaliseReceiptList(body), nil
}

func (c *Client) receiptPath(receiptID string, rest ...string) string {
	parts := append([]string{"api", "receipts", url.PathEscape(receiptID)}, rest...)
	return strings.Join(parts, "/")
}

// do sends one request and decodes the JSON body. An empty body decodes
// to nil.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (any, error) {
	requestID := uuid.NewString()
	log := c.log.With().
		Str("op", op).
		Str("method", method).
		Str("request_id", requestID).
		Logger()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, WrapAPIError(op, err, "failed to encode request body")
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return nil, WrapAPIError(op, err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapAPIError(op, ctxErr, "request aborted")
		}
		log.Debug().Err(err).Msg("Request failed")
		return nil, NewAPIError(op, fmt.Errorf("%w: %v", ErrTransport, err), target.Path, 0)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAPIError(op, fmt.Errorf("%w: %v", ErrTransport, err), "failed to read response body", resp.StatusCode)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(op, statusError(resp.StatusCode), errorDetails(data), resp.StatusCode)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, NewAPIError(op, ErrInvalidJSON, err.Error(), resp.StatusCode)
	}
	return body, nil
}

func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUnexpectedStatus
	}
}

// errorDetails extracts a readable message from an error body.
func errorDetails(data []byte) string {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err == nil {
		if msg := fields.CoalesceString(body, []string{"error", "message", "detail"}); msg != "" {
			return msg
		}
	}

	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}

// unwrapPayload returns the object under "data" when the body wraps one,
// the body itself when it is an object, and an empty payload otherwise.
func unwrapPayload(body any) models.RawPayload {
	m, ok := body.(map[string]any)
	if !ok {
		return models.RawPayload{}
	}
	if data, ok := m["data"].(map[string]any); ok {
		return data
	}
	return m
}
