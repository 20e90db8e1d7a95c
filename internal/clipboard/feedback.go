// Package clipboard copies text to the system clipboard and tracks the
// short-lived "copied" indicator of each copy button.
package clipboard

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"shortlink-client/internal/domain"
)

// DefaultDelay is how long a target shows as copied.
const DefaultDelay = 1500 * time.Millisecond

// Target identifies one copy button.
type Target string

const (
	TargetResultShortURL    Target = "result-short-url"
	TargetLookupShortURL    Target = "lookup-short-url"
	TargetLookupOriginalURL Target = "lookup-original-url"
)

// Writer puts text on a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// SystemWriter writes to the operating system clipboard.
type SystemWriter struct{}

// WriteAll copies text, reporting domain.ErrClipboardUnavailable when the
// platform has no clipboard utility.
func (SystemWriter) WriteAll(text string) error {
	if clipboard.Unsupported {
		return domain.ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrClipboardUnavailable, err)
	}
	return nil
}

type entry struct {
	copied bool
	timer  domain.Timer
	gen    uint64
}

// Feedback holds one copied flag and one reset timer per target.
type Feedback struct {
	writer   Writer
	clock    domain.Clock
	delay    time.Duration
	logger   *slog.Logger
	onChange func()

	mu      sync.Mutex
	entries map[Target]*entry
	closed  bool
}

// Option configures a Feedback.
type Option func(*Feedback)

// WithClock sets the clock that schedules resets.
func WithClock(clock domain.Clock) Option {
	return func(f *Feedback) {
		f.clock = clock
	}
}

// WithDelay sets how long a target stays copied.
func WithDelay(d time.Duration) Option {
	return func(f *Feedback) {
		f.delay = d
	}
}

// WithLogger sets the feedback's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feedback) {
		f.logger = logger
	}
}

// WithOnChange registers fn to run after a flag flips.
func WithOnChange(fn func()) Option {
	return func(f *Feedback) {
		f.onChange = fn
	}
}

// NewFeedback creates a Feedback writing through w.
func NewFeedback(w Writer, opts ...Option) *Feedback {
	f := &Feedback{
		writer:  w,
		clock:   domain.RealClock{},
		delay:   DefaultDelay,
		logger:  slog.Default(),
		entries: make(map[Target]*entry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Copy writes text and marks target as copied for the configured delay.
// Copying the same target again restarts its delay. A failed write leaves
// the flag false and is returned.
func (f *Feedback) Copy(target Target, text string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrClosed
	}
	f.mu.Unlock()

	if err := f.writer.WriteAll(text); err != nil {
		f.logger.Debug("clipboard write failed", "target", string(target), "error", err)
		f.mu.Lock()
		changed := f.reset(target)
		f.mu.Unlock()
		if changed {
			f.notify()
		}
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrClosed
	}
	f.restart(target)
	f.mu.Unlock()

	f.notify()
	return nil
}

// restart sets target's flag and replaces any pending reset timer.
// Callers hold f.mu.
func (f *Feedback) restart(target Target) {
	e, ok := f.entries[target]
	if !ok {
		e = &entry{}
		f.entries[target] = e
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.copied = true
	e.timer = f.clock.AfterFunc(f.delay, func() { f.expire(target, gen) })
}

// expire clears target unless a newer copy has restarted it.
func (f *Feedback) expire(target Target, gen uint64) {
	f.mu.Lock()
	e, ok := f.entries[target]
	if f.closed || !ok || e.gen != gen {
		f.mu.Unlock()
		return
	}
	e.copied = false
	e.timer = nil
	f.mu.Unlock()

	f.notify()
}

// reset clears target and its timer. Callers hold f.mu.
func (f *Feedback) reset(target Target) bool {
	e, ok := f.entries[target]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	changed := e.copied
	e.copied = false
	return changed
}

// Copied reports whether target currently shows as copied.
func (f *Feedback) Copied(target Target) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[target]
	return ok && e.copied
}

// Close stops every pending timer. Flags no longer change afterwards.
func (f *Feedback) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for _, e := range f.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
}

func (f *Feedback) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}
