package webhook

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/bridge-relayer/internal/utils/logger"
)

// Client pings an uptime monitor after each healthy reconciliation pass
type Client struct {
	http   *resty.Client
	url    string
	logger *logger.Logger
}

// New creates a webhook client for url. An empty url turns every call into a no-op.
func New(url string, logger *logger.Logger) *Client {
	return &Client{
		http:   resty.New().SetTimeout(10 * time.Second),
		url:    url,
		logger: logger,
	}
}

// Beat makes a GET request to the uptime webhook. Failures are logged and swallowed.
func (c *Client) Beat(ctx context.Context) {
	if c == nil || c.url == "" {
		return
	}

	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		c.logger.Error("[Webhook][Beat]", map[string]string{
			"error": err.Error(),
		})
		return
	}
	if resp.IsError() {
		c.logger.Error("[Webhook][Beat] unexpected status", map[string]string{
			"status_code": strconv.Itoa(resp.StatusCode()),
		})
		return
	}

	c.logger.Debug("[Webhook][Beat]", map[string]string{
		"status_code": strconv.Itoa(resp.StatusCode()),
	})
}
