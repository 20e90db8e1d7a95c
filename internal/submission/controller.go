// Package submission drives the link creation form.
package submission

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"shortlink-client/internal/api"
	"shortlink-client/internal/domain"
	"shortlink-client/internal/refresh"
	"shortlink-client/internal/timestamp"
)

// FallbackMessage is shown when the backend rejects a creation with an empty body.
const FallbackMessage = "Failed to shorten link"

// State is the creation form lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Shortener creates short links.
type Shortener interface {
	Shorten(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error)
}

// View is a snapshot of the form state.
type View struct {
	State  State
	Result *domain.CreationResult
	Error  string
}

// Controller owns one creation form. At most one submission is in flight.
type Controller struct {
	shortener  Shortener
	normalizer *timestamp.Normalizer
	token      *refresh.Token
	logger     *slog.Logger
	onChange   func()

	life   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	result *domain.CreationResult
	errMsg string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithOnChange registers fn to run after every state change.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a Controller that bumps token on every successful creation.
func NewController(shortener Shortener, normalizer *timestamp.Normalizer, token *refresh.Token, opts ...Option) *Controller {
	c := &Controller{
		shortener:  shortener,
		normalizer: normalizer,
		token:      token,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.life, c.cancel = context.WithCancel(context.Background())
	return c
}

// BuildRequest trims the inputs and resolves the expiry date.
func (c *Controller) BuildRequest(url, customAlias string, expiresAt domain.CalendarDate) domain.CreationRequest {
	return domain.CreationRequest{
		URL:         strings.TrimSpace(url),
		CustomAlias: strings.TrimSpace(customAlias),
		ExpiresAt:   c.normalizer.ToOffsetTimestamp(expiresAt),
	}
}

// Submit sends one creation request and blocks until it settles. It returns
// domain.ErrSubmitInFlight while another submission is pending and
// domain.ErrClosed after Close. Backend failures are reported both in the
// returned error and in View().Error.
func (c *Controller) Submit(ctx context.Context, url, customAlias string, expiresAt domain.CalendarDate) error {
	c.mu.Lock()
	if c.life.Err() != nil {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return domain.ErrSubmitInFlight
	}
	c.state = StateSubmitting
	c.result = nil
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()

	req := c.BuildRequest(url, customAlias, expiresAt)

	opCtx, opCancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, opCancel)
	result, err := c.shortener.Shorten(opCtx, req)
	stop()
	opCancel()

	c.mu.Lock()
	if c.life.Err() != nil {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if err != nil {
		c.state = StateFailed
		c.errMsg = api.ErrorMessage(err, FallbackMessage)
		c.mu.Unlock()
		c.logger.Warn("shorten failed", "url", req.URL, "error", err)
		c.notify()
		return err
	}
	c.state = StateSuccess
	c.result = result
	c.token.Increment()
	c.mu.Unlock()

	c.logger.Info("short link created", "code", result.Code, "short_url", result.ShortURL)
	c.notify()
	return nil
}

// View returns the current form state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{State: c.state, Error: c.errMsg}
	if c.result != nil {
		r := *c.result
		v.Result = &r
	}
	return v
}

// Close cancels any in-flight submission. Afterwards the controller never
// changes state or bumps the refresh token.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
