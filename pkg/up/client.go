// Package up is a read-only client for the Up Banking REST API.
package up

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Up API v1 root.
	DefaultBaseURL = "https://api.up.com.au/api/v1"

	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "upctl"
)

// Client issues GET requests against the Up API. Every method maps to a
// single endpoint and returns the decoded document.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *slog.Logger
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTransport sets the round tripper the bearer token transport wraps.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client authenticating with the given personal access
// token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		transport: http.DefaultTransport,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", c.baseURL, err)
	}
	c.baseURL = strings.TrimSuffix(c.baseURL, "/")

	c.http = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   c.transport,
		},
	}

	return c, nil
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the token is accepted.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var out PingResponse
	if err := c.get(ctx, "/util/ping", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAccounts returns the accounts of the token owner.
func (c *Client) ListAccounts(ctx context.Context, filter AccountFilter) (*AccountList, error) {
	var out AccountList
	if err := c.get(ctx, "/accounts", filter.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*AccountDocument, error) {
	path, err := resourcePath("/accounts", "account", accountID)
	if err != nil {
		return nil, err
	}

	var out AccountDocument
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTransactions returns one page of transactions, newest first. The page
// size is forwarded as is; following the next link is left to the caller.
func (c *Client) ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionList, error) {
	path := "/transactions"
	if filter.AccountID != "" {
		path = "/accounts/" + url.PathEscape(filter.AccountID) + "/transactions"
	}

	var out TransactionList
	if err := c.get(ctx, path, filter.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*TransactionDocument, error) {
	path, err := resourcePath("/transactions", "transaction", transactionID)
	if err != nil {
		return nil, err
	}

	var out TransactionDocument
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns the category tree, or the children of a parent
// category when the filter names one.
func (c *Client) ListCategories(ctx context.Context, filter CategoryFilter) (*CategoryList, error) {
	var out CategoryList
	if err := c.get(ctx, "/categories", filter.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCategory(ctx context.Context, categoryID string) (*CategoryDocument, error) {
	path, err := resourcePath("/categories", "category", categoryID)
	if err != nil {
		return nil, err
	}

	var out CategoryDocument
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func resourcePath(collection, kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	return collection + "/" + url.PathEscape(id), nil
}

// get performs the request and decodes a 2xx body into out. Documents also
// keep the body as received.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("up api request",
		"method", req.Method,
		"path", path,
		"query", req.URL.RawQuery,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if doc, ok := out.(interface{ setBody([]byte) }); ok {
		doc.setBody(body)
	}

	return nil
}
