// Package analytics holds the state of the analytics panel: an aggregate
// list of links and a single-code lookup, each loaded independently.
package analytics

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"shortlink-client/internal/api"
	"shortlink-client/internal/domain"
	"shortlink-client/internal/refresh"
)

const (
	ListFallbackMessage   = "Failed to load links"
	LookupFallbackMessage = "Link not found"
)

// Tab selects which view is shown.
type Tab int

const (
	TabList Tab = iota
	TabLookup
)

func (t Tab) String() string {
	if t == TabLookup {
		return "lookup"
	}
	return "list"
}

// Backend is what the panel needs from the API.
type Backend interface {
	ListLinks(ctx context.Context) ([]domain.LinkSummary, error)
	GetLink(ctx context.Context, code string) (*domain.LinkDetail, error)
}

// Panel coordinates the list and lookup views. Every fetch carries a
// per-view sequence number and only the most recently issued fetch of a
// view may change that view.
type Panel struct {
	backend  Backend
	token    *refresh.Token
	logger   *slog.Logger
	onChange func()

	life   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	tab         Tab
	list        ListState
	listSeq     uint64
	lookup      LookupState
	lookupSeq   uint64
	unsubscribe func()
}

// Option configures a Panel.
type Option func(*Panel)

// WithLogger sets the panel's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = logger
	}
}

// WithOnChange registers fn to run after every state change.
func WithOnChange(fn func()) Option {
	return func(p *Panel) {
		p.onChange = fn
	}
}

// NewPanel creates a Panel. It does not fetch anything until Mount.
func NewPanel(backend Backend, token *refresh.Token, opts ...Option) *Panel {
	p := &Panel{
		backend: backend,
		token:   token,
		logger:  slog.Default(),
		list:    ListState{Items: []domain.LinkSummary{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.life, p.cancel = context.WithCancel(context.Background())
	return p
}

// Mount issues the initial list fetch and subscribes to the refresh token
// so that every increment issues exactly one more list fetch. Mounting
// twice is a no-op.
func (p *Panel) Mount() {
	p.mu.Lock()
	if p.unsubscribe != nil || p.life.Err() != nil {
		p.mu.Unlock()
		return
	}
	p.unsubscribe = p.token.Subscribe(p.onTokenChange)
	p.wg.Add(1)
	p.mu.Unlock()

	seq, ok := p.beginList()
	go func() {
		defer p.wg.Done()
		if ok {
			_ = p.fetchList(context.Background(), seq)
		}
	}()
}

// onTokenChange runs inside refresh.Token.Increment, so it only schedules
// the fetch and returns.
func (p *Panel) onTokenChange() {
	if !p.reserve() {
		return
	}
	go func() {
		defer p.wg.Done()
		seq, ok := p.beginList()
		if ok {
			_ = p.fetchList(context.Background(), seq)
		}
	}()
}

// Refresh fetches the list and blocks until the response is applied or
// discarded. A response is discarded when a newer fetch was issued in the
// meantime; Refresh still returns the fetch's own error.
func (p *Panel) Refresh(ctx context.Context) error {
	if !p.reserve() {
		return domain.ErrClosed
	}
	defer p.wg.Done()

	seq, ok := p.beginList()
	if !ok {
		return domain.ErrClosed
	}
	return p.fetchList(ctx, seq)
}

// Wait blocks until every fetch issued so far has settled.
func (p *Panel) Wait() {
	p.wg.Wait()
}

// reserve registers one more operation with the WaitGroup unless the
// panel is closed. Callers must call p.wg.Done when it returns true.
func (p *Panel) reserve() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.life.Err() != nil {
		return false
	}
	p.wg.Add(1)
	return true
}

func (p *Panel) beginList() (uint64, bool) {
	p.mu.Lock()
	if p.life.Err() != nil {
		p.mu.Unlock()
		return 0, false
	}
	p.listSeq++
	seq := p.listSeq
	p.list.Loading = true
	p.list.Error = ""
	p.mu.Unlock()

	p.notify()
	return seq, true
}

func (p *Panel) fetchList(ctx context.Context, seq uint64) error {
	opCtx, opCancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.life, opCancel)
	items, err := p.backend.ListLinks(opCtx)
	stop()
	opCancel()

	p.mu.Lock()
	if p.life.Err() != nil {
		p.mu.Unlock()
		return domain.ErrClosed
	}
	if seq != p.listSeq {
		latest := p.listSeq
		p.mu.Unlock()
		p.logger.Debug("discarding stale list response", "seq", seq, "latest", latest)
		return err
	}
	p.list.Loading = false
	if err != nil {
		p.list.Error = api.ErrorMessage(err, ListFallbackMessage)
	} else {
		p.list.Items = items
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("list fetch failed", "error", err)
	}
	p.notify()
	return err
}

// SetQuery stores the raw lookup input.
func (p *Panel) SetQuery(query string) {
	p.mu.Lock()
	p.lookup.Query = query
	p.mu.Unlock()
	p.notify()
}

// Lookup fetches the detail of the current query. A blank query returns
// domain.ErrEmptyQuery without touching state or the network.
func (p *Panel) Lookup(ctx context.Context) error {
	p.mu.Lock()
	if p.life.Err() != nil {
		p.mu.Unlock()
		return domain.ErrClosed
	}
	code := strings.TrimSpace(p.lookup.Query)
	if code == "" {
		p.mu.Unlock()
		return domain.ErrEmptyQuery
	}
	p.lookupSeq++
	seq := p.lookupSeq
	p.lookup.Loading = true
	p.lookup.Error = ""
	p.lookup.Result = nil
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()
	p.notify()

	opCtx, opCancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.life, opCancel)
	detail, err := p.backend.GetLink(opCtx, code)
	stop()
	opCancel()

	p.mu.Lock()
	if p.life.Err() != nil {
		p.mu.Unlock()
		return domain.ErrClosed
	}
	if seq != p.lookupSeq {
		p.mu.Unlock()
		p.logger.Debug("discarding stale lookup response", "code", code, "seq", seq)
		return err
	}
	p.lookup.Loading = false
	if err != nil {
		p.lookup.Result = nil
		p.lookup.Error = api.ErrorMessage(err, LookupFallbackMessage)
	} else {
		p.lookup.Result = detail
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("lookup failed", "code", code, "error", err)
	}
	p.notify()
	return err
}

// SelectTab switches the visible view. Neither view's state is touched.
func (p *Panel) SelectTab(tab Tab) {
	p.mu.Lock()
	p.tab = tab
	p.mu.Unlock()
	p.notify()
}

// Tab returns the visible view.
func (p *Panel) Tab() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tab
}

// List returns a copy of the list view state.
func (p *Panel) List() ListState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.clone()
}

// LookupView returns a copy of the lookup view state.
func (p *Panel) LookupView() LookupState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookup.clone()
}

// Close unsubscribes from the refresh token, cancels in-flight requests
// and waits for them to settle. No state changes after Close returns.
func (p *Panel) Close() {
	p.mu.Lock()
	p.cancel()
	unsubscribe := p.unsubscribe
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.wg.Wait()
}

func (p *Panel) notify() {
	if p.onChange != nil {
		p.onChange()
	}
}
