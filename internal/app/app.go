// Package app wires the client components together: it owns the refresh
// token and hands it to the creation form and the analytics panel.
package app

import (
	"log/slog"

	"shortlink-client/internal/analytics"
	"shortlink-client/internal/api"
	"shortlink-client/internal/clipboard"
	"shortlink-client/internal/config"
	"shortlink-client/internal/domain"
	"shortlink-client/internal/refresh"
	"shortlink-client/internal/render"
	"shortlink-client/internal/submission"
	"shortlink-client/internal/timestamp"
)

// App is one client session.
type App struct {
	Token      *refresh.Token
	Normalizer *timestamp.Normalizer
	Submission *submission.Controller
	Analytics  *analytics.Panel
	Clipboard  *clipboard.Feedback
	Renderer   *render.Renderer

	logger *slog.Logger
}

type options struct {
	writer   clipboard.Writer
	clock    domain.Clock
	apiOpts  []api.Option
	onChange func()
}

// Option configures an App.
type Option func(*options)

// WithClipboardWriter replaces the system clipboard.
func WithClipboardWriter(w clipboard.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithClock sets the clock used for copy feedback timers.
func WithClock(clock domain.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithAPIOptions passes options through to the API client.
func WithAPIOptions(opts ...api.Option) Option {
	return func(o *options) {
		o.apiOpts = append(o.apiOpts, opts...)
	}
}

// WithOnChange registers fn to run after any component changes state.
func WithOnChange(fn func()) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// New builds an App from cfg. The analytics panel is not mounted yet.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{writer: clipboard.SystemWriter{}, clock: domain.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	apiOpts := append([]api.Option{api.WithLogger(logger), api.WithTimeout(cfg.Timeout)}, o.apiOpts...)
	client := api.New(cfg.BaseURL, apiOpts...)

	onChange := o.onChange
	if onChange == nil {
		onChange = func() {}
	}

	token := refresh.NewToken()
	normalizer := timestamp.New(loc)
	feedback := clipboard.NewFeedback(o.writer,
		clipboard.WithClock(o.clock),
		clipboard.WithDelay(cfg.CopyDelay),
		clipboard.WithLogger(logger),
		clipboard.WithOnChange(onChange),
	)

	a := &App{
		Token:      token,
		Normalizer: normalizer,
		Submission: submission.NewController(client, normalizer, token,
			submission.WithLogger(logger),
			submission.WithOnChange(onChange),
		),
		Analytics: analytics.NewPanel(client, token,
			analytics.WithLogger(logger),
			analytics.WithOnChange(onChange),
		),
		Clipboard: feedback,
		Renderer:  render.New(normalizer, feedback),
		logger:    logger,
	}

	logger.Debug("client ready", "base_url", cfg.BaseURL, "timezone", loc.String())
	return a, nil
}

// Close tears down every component: in-flight requests are canceled and
// pending copy timers stopped.
func (a *App) Close() {
	a.Submission.Close()
	a.Analytics.Close()
	a.Clipboard.Close()
	a.logger.Debug("client closed")
}
