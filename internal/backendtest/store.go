package backendtest

import (
	"errors"
	"sync"
	"time"
)

var (
	errNotFound   = errors.New("not found")
	errCodeExists = errors.New("customAlias already in use")
)

// Link is a stored short link with its click tallies.
type Link struct {
	Code         string
	OriginalURL  string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	TotalClicks  int64
	Visitors     map[string]struct{}
	LastAccessed time.Time
	Countries    map[string]int64
}

// Clone creates a deep copy of the link.
func (l *Link) Clone() *Link {
	c := *l
	c.Visitors = make(map[string]struct{}, len(l.Visitors))
	for k := range l.Visitors {
		c.Visitors[k] = struct{}{}
	}
	c.Countries = make(map[string]int64, len(l.Countries))
	for k, v := range l.Countries {
		c.Countries[k] = v
	}
	return &c
}

// store is a thread-safe in-memory link table that keeps insertion order.
type store struct {
	mu    sync.RWMutex
	data  map[string]*Link
	order []string
}

func newStore() *store {
	return &store{data: make(map[string]*Link)}
}

// saveIfNotExists saves link only if its code is free.
func (s *store) saveIfNotExists(link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[link.Code]; exists {
		return errCodeExists
	}
	s.data[link.Code] = link.Clone()
	s.order = append(s.order, link.Code)
	return nil
}

func (s *store) find(code string) (*Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, exists := s.data[code]
	if !exists {
		return nil, errNotFound
	}
	return link.Clone(), nil
}

func (s *store) list() []*Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Link, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.data[code].Clone())
	}
	return out
}

// recordClick bumps the tallies of code as if visitor opened it from country.
func (s *store) recordClick(code, visitor, country string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, exists := s.data[code]
	if !exists {
		return errNotFound
	}
	link.TotalClicks++
	link.Visitors[visitor] = struct{}{}
	if country == "" {
		country = "Unknown"
	}
	link.Countries[country]++
	link.LastAccessed = at
	return nil
}
