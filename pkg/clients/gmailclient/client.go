package gmailclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client wraps the Gmail API client and throttles sends
type Client struct {
	service  *gmail.Service
	from     string
	interval time.Duration

	sendMutex    sync.Mutex
	lastSendTime time.Time
}

// NewClient creates a Gmail client from an HTTP client already carrying OAuth credentials.
// from is placed in the From header; empty leaves it to Gmail.
func NewClient(ctx context.Context, httpClient *http.Client, from string) (*Client, error) {
	return NewClientWithOptions(ctx, from, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Gmail client from raw API options
func NewClientWithOptions(ctx context.Context, from string, opts ...option.ClientOption) (*Client, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		from:     from,
		interval: EmailInterval,
	}, nil
}

// SetInterval overrides the minimum gap between sends
func (c *Client) SetInterval(interval time.Duration) {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	c.interval = interval
}
