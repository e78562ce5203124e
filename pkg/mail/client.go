package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mountemart/backend/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client wraps the SendGrid v3 API.
type Client struct {
	api       *sendgrid.Client
	fromEmail string
}

// New returns nil when no API key is configured so callers can treat email
// as optional.
func New(cfg config.SendgridConfig) *Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return &Client{
		api:       sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.DefaultFrom,
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("sendgrid client not configured")
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	from := sgmail.NewEmail("", c.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)

	resp, err := c.api.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send returned %d", resp.StatusCode)
	}
	return nil
}
