// Package mailer delivers transactional e-mail through the Resend API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/noah-isme/academy-inventory-api/pkg/config"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("mailer disabled")

// Message is a single outbound e-mail. IdempotencyKey lets the provider drop repeated sends.
type Message struct {
	To             []string
	Subject        string
	HTML           string
	IdempotencyKey string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client wraps the Resend SDK.
type Client struct {
	from   string
	resend *resend.Client
}

// New builds a client from config. The returned client reports ErrDisabled when the key is empty.
// EMAIL_API_URL may point at a Resend-compatible endpoint; the emails path is resolved against its base.
func New(cfg config.EmailConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return &Client{from: cfg.From}
	}

	rc := resend.NewCustomClient(&http.Client{Timeout: timeout}, key)
	if base, ok := baseURL(cfg.APIURL); ok {
		rc.BaseURL = base
	}
	return &Client{from: cfg.From, resend: rc}
}

// baseURL turns ".../emails" into the API root the SDK expects.
func baseURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	raw = strings.TrimSuffix(strings.TrimSuffix(raw, "/"), "/emails")
	u, err := url.Parse(raw + "/")
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// Enabled reports whether the client will attempt delivery.
func (c *Client) Enabled() bool {
	return c != nil && c.resend != nil
}

// Send delivers the message and returns the provider message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(msg.To) == 0 {
		return "", fmt.Errorf("mailer: recipient required")
	}

	req := &resend.SendEmailRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	// An empty key sends no Idempotency-Key header.
	opts := &resend.SendEmailOptions{IdempotencyKey: msg.IdempotencyKey}

	sent, err := c.resend.Emails.SendWithOptions(ctx, req, opts)
	if err != nil {
		return "", fmt.Errorf("mailer: send: %w", err)
	}
	return sent.Id, nil
}
