package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

// SubmitPath is where the relay handler is mounted.
const SubmitPath = "/api/submit-business-offer"

// Response is the relay's reply body.
type Response struct {
	Message string `json:"message"`
}

// Client submits payloads to a remote relay over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:8080. A baseURL that
// already ends in the submit path is used as is.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, SubmitPath) {
		endpoint += SubmitPath
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Endpoint returns the URL payloads are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Submit posts p and succeeds only on a 2xx reply.
func (c *Client) Submit(ctx context.Context, p submission.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, out.Message)
	}
	return nil
}
