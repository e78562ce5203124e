package esewa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/config"
)

// Status is the transaction state reported by the eSewa status API.
type Status string

const (
	StatusComplete Status = "COMPLETE"
	StatusPending  Status = "PENDING"
	StatusCanceled Status = "CANCELED"
	StatusNotFound Status = "NOT_FOUND"
)

const responseBodyReadLimit int64 = 4096

var errStatusURLRequired = errors.New("esewa status url is required")

// Client queries the eSewa transaction status endpoint.
type Client struct {
	httpClient *http.Client
	statusURL  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithStatusURL overrides the configured status URL.
func WithStatusURL(statusURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(statusURL); trimmed != "" {
			c.statusURL = trimmed
		}
	}
}

// NewClient builds an eSewa status client from configuration.
func NewClient(cfg config.EsewaConfig, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		statusURL:  strings.TrimSpace(cfg.StatusURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.statusURL == "" {
		return nil, errStatusURLRequired
	}
	return c, nil
}

type statusResponse struct {
	Status Status `json:"status"`
	RefID  string `json:"ref_id"`
}

// CheckStatus asks eSewa for the state of a transaction. Transport errors
// and server-side failures are retried a small number of times; the caller
// bounds the whole call through ctx.
func (c *Client) CheckStatus(ctx context.Context, productCode, transactionUUID string, totalAmount decimal.Decimal) (Status, string, error) {
	query := url.Values{}
	query.Set("product_code", productCode)
	query.Set("transaction_uuid", transactionUUID)
	query.Set("total_amount", totalAmount.StringFixed(2))
	statusURL := c.statusURL + "?" + query.Encode()

	var decoded statusResponse
	backoff := retry.WithMaxRetries(2, retry.NewConstant(400*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := c.fetchStatus(ctx, statusURL)
		if err != nil {
			return err
		}
		decoded = result
		return nil
	})
	if err != nil {
		return "", "", err
	}
	if decoded.Status == "" {
		return "", "", errors.New("esewa status response missing status")
	}
	return decoded.Status, decoded.RefID, nil
}

func (c *Client) fetchStatus(ctx context.Context, statusURL string) (statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("building esewa status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return statusResponse{}, retry.RetryableError(fmt.Errorf("calling esewa status api: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return statusResponse{}, retry.RetryableError(fmt.Errorf("reading esewa status response: %w", err))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return statusResponse{}, retry.RetryableError(fmt.Errorf("esewa status api returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return statusResponse{}, fmt.Errorf("esewa status api returned %d", resp.StatusCode)
	}

	var result statusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return statusResponse{}, fmt.Errorf("decoding esewa status response: %w", err)
	}
	return result, nil
}
