// Package api is the HTTP boundary to the link-shortening backend.
package api

import (
	"bytes"
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

	"shortlink-client/internal/domain"
	"shortlink-client/internal/transport"
)

const (
	shortenPath = "/api/shorten"
	linksPath   = "/api/links"

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 4 << 20
)

// Client calls the three backend endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. It is used as is,
// without the logging transport and ignoring WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds every request made by the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: transport.Timing(http.DefaultTransport, c.logger),
		}
	}
	return c
}

// Shorten issues POST /api/shorten.
func (c *Client) Shorten(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+shortenPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var result domain.CreationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &result, nil
}

// ListLinks issues GET /api/links. A success body that is not a JSON array
// is treated as an empty list.
func (c *Client) ListLinks(ctx context.Context) ([]domain.LinkSummary, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+linksPath, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []domain.LinkSummary{}, nil
	}

	items := []domain.LinkSummary{}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return items, nil
}

// GetLink issues GET /api/links/{code}, percent-encoding code as a single
// path segment.
func (c *Client) GetLink(ctx context.Context, code string) (*domain.LinkDetail, error) {
	endpoint := c.baseURL + linksPath + "/" + url.PathEscape(code)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	data, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var detail domain.LinkDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &detail, nil
}

// do sends req and returns the body of a 2xx response. Non-2xx responses
// become *StatusError carrying the body text.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

// IsCanceled reports whether err comes from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
