package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mountemart/backend/pkg/config"
)

// Status is the transaction state reported by the Khalti lookup API.
type Status string

const (
	StatusCompleted    Status = "Completed"
	StatusPending      Status = "Pending"
	StatusExpired      Status = "Expired"
	StatusUserCanceled Status = "User canceled"
	StatusRefunded     Status = "Refunded"
)

const responseBodyReadLimit int64 = 4096

var (
	errStatusURLRequired = errors.New("khalti status url is required")
	errSecretKeyRequired = errors.New("khalti secret key is required")
)

// Client queries the Khalti payment lookup endpoint.
type Client struct {
	httpClient *http.Client
	statusURL  string
	secretKey  string
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

// WithStatusURL overrides the configured lookup URL.
func WithStatusURL(statusURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(statusURL); trimmed != "" {
			c.statusURL = trimmed
		}
	}
}

// NewClient builds a Khalti lookup client from configuration.
func NewClient(cfg config.KhaltiConfig, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		statusURL:  strings.TrimSpace(cfg.StatusURL),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.statusURL == "" {
		return nil, errStatusURLRequired
	}
	if c.secretKey == "" {
		return nil, errSecretKeyRequired
	}
	return c, nil
}

type lookupRequest struct {
	PIDX string `json:"pidx"`
}

type lookupResponse struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// Lookup asks Khalti for the state of a payment identified by pidx. The
// caller bounds the call through ctx.
func (c *Client) Lookup(ctx context.Context, pidx string) (Status, string, error) {
	payload, err := json.Marshal(lookupRequest{PIDX: pidx})
	if err != nil {
		return "", "", fmt.Errorf("encoding khalti lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.statusURL, bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("building khalti lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("calling khalti lookup api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return "", "", fmt.Errorf("reading khalti lookup response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("khalti lookup api returned %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", "", fmt.Errorf("decoding khalti lookup response: %w", err)
	}
	if decoded.Status == "" {
		return "", "", errors.New("khalti lookup response missing status")
	}
	return decoded.Status, decoded.TransactionID, nil
}
