// Package refresh carries the signal that analytics should be refetched.
package refresh

import "sync"

// Token is a monotonically increasing change counter. Subscribers are
// called once per increment, in subscription order, outside the lock.
type Token struct {
	mu     sync.Mutex
	value  uint64
	nextID int
	subs   map[int]func()
	order  []int
}

// NewToken creates a Token at zero.
func NewToken() *Token {
	return &Token{subs: make(map[int]func())}
}

// Increment bumps the counter by exactly one and notifies subscribers.
func (t *Token) Increment() {
	t.mu.Lock()
	t.value++
	fns := make([]func(), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.subs[id])
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Value returns the current count.
func (t *Token) Value() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Subscribe registers fn for future increments. The returned function
// removes the subscription and is safe to call more than once.
func (t *Token) Subscribe(fn func()) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.order = append(t.order, id)

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		if _, ok := t.subs[id]; !ok {
			return
		}
		delete(t.subs, id)
		for i, v := range t.order {
			if v == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}
