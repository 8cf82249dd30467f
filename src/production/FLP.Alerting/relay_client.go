package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// AlertRequest is the body the push relay expects
type AlertRequest struct {
	Abnormality string   `json:"abnormality"`
	Tokens      []string `json:"tokens"`
}

// RelayResponse is what came back from the relay
type RelayResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// RelayClient posts alert requests to the external push relay. It never retries.
type RelayClient struct {
	httpClient *resty.Client
	url        string
}

func NewRelayClient(url string, timeout time.Duration) *RelayClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "flap-bridge")

	return &RelayClient{httpClient: client, url: url}
}

// Send posts one request. Transport failures and non-2xx answers are errors.
func (c *RelayClient) Send(ctx context.Context, req AlertRequest) (*RelayResponse, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to call push relay: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("push relay returned status %d: %s", resp.StatusCode(), truncate(resp.String(), 256))
	}

	result := &RelayResponse{StatusCode: resp.StatusCode()}
	if body := resp.Body(); len(body) > 0 && json.Valid(body) {
		result.Body = json.RawMessage(body)
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
