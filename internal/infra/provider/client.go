package provider

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

	"github.com/vietddude/paygate/internal/core/domain"
)

const defaultBaseURL = "https://api.blockcypher.com/v1"

// Client talks to the BlockCypher-style blockchain-data provider API. All
// calls carry the API token as a query parameter and respect the context.
type Client struct {
	baseURL    string
	token      string
	coin       domain.CoinSymbol
	httpClient *http.Client
}

// Config holds provider client configuration.
type Config struct {
	Coin    domain.CoinSymbol
	Token   string
	BaseURL string // overrides the derived provider URL (tests)
	Timeout time.Duration
}

// NewClient creates a provider client for the configured coin network.
func NewClient(cfg Config) (*Client, error) {
	network, ok := domain.CoinSymbolToNetwork[cfg.Coin]
	if !ok {
		return nil, fmt.Errorf("invalid coin symbol: %s", cfg.Coin)
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), network.Coin, network.Chain),
		token:   cfg.Token,
		coin:    cfg.Coin,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Coin returns the configured coin symbol.
func (c *Client) Coin() domain.CoinSymbol {
	return c.coin
}

func (c *Client) endpointURL(endpoint string) string {
	endpoint = strings.TrimLeft(endpoint, "/")
	u := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if c.token != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "token=" + url.QueryEscape(c.token)
	}
	return u
}

// do performs a provider API call and decodes the JSON response into out
// (when out is non-nil). Non-2xx responses surface as *RegistrationError.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRegistrationError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// RegistrationError is a provider-side rejection with the provider's reason
// attached. The client never retries internally; retry policy belongs to the
// caller.
type RegistrationError struct {
	StatusCode int
	Reason     string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("provider rejected request (http %d): %s", e.StatusCode, e.Reason)
}

func newRegistrationError(status int, body []byte) *RegistrationError {
	reason := strings.TrimSpace(string(body))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		reason = apiErr.Error
	}
	return &RegistrationError{StatusCode: status, Reason: reason}
}
