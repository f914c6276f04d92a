package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/model"
)

var (
	// ErrUserNotFound means the lookup service has no user for a barcode.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnavailable covers transport failures and unexpected responses.
	ErrUnavailable = errors.New("ordering service unavailable")
)

// Client talks to the ordering backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for ORDER_API_URL with ORDER_API_TIMEOUT.
func NewClient(config *config.Config) *Client {
	timeout := config.OrderAPITimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(config.OrderAPIURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LookupUser resolves a scanned barcode value to a user.
func (c *Client) LookupUser(ctx context.Context, barcode string) (*model.User, error) {
	var user model.User
	status, err := c.do(ctx, http.MethodGet, "/api/user/barcode/"+url.PathEscape(barcode), nil, &user)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, barcode)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateOrder submits an order.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	var receipt model.OrderReceipt
	if _, err := c.do(ctx, http.MethodPost, "/api/orders", req, &receipt); err != nil {
		return nil, err
	}
	if !receipt.Success {
		return &receipt, fmt.Errorf("order rejected: %s", receipt.Message)
	}
	return &receipt, nil
}

// GetMenu fetches categories and dishes.
func (c *Client) GetMenu(ctx context.Context) (*model.Menu, error) {
	var menu model.Menu
	if _, err := c.do(ctx, http.MethodGet, "/api/menu", nil, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	return err
}

// do sends a JSON request and decodes a 2xx JSON response into out. The
// status code is returned whenever a response arrived.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned status %d: %s",
			ErrUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}
