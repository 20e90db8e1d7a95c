// Package backendtest runs an in-memory imitation of the link-shortening
// backend for tests. It serves the same three endpoints with the same
// plain-text error convention.
package backendtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"shortlink-client/internal/domain"
)

// Routes, as registered on the mux.
const (
	RouteShorten = "POST /api/shorten"
	RouteList    = "GET /api/links"
	RouteDetail  = "GET /api/links/{code}"
)

const (
	defaultTTL = 30 * 24 * time.Hour

	// QRCode is the image reference returned for every link.
	QRCode = "data:image/png;base64,iVBORw0KGgo="
)

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	store *store
	clock domain.Clock

	mu        sync.Mutex
	counter   int
	hits      map[string]int
	bodies    []string
	overrides map[string]http.HandlerFunc
	holds     map[string][]chan struct{}
}

// New starts a fake backend and closes it when tb finishes.
func New(tb testing.TB, clock domain.Clock) *Server {
	tb.Helper()
	if clock == nil {
		clock = domain.RealClock{}
	}

	s := &Server{
		store:     newStore(),
		clock:     clock,
		hits:      make(map[string]int),
		overrides: make(map[string]http.HandlerFunc),
		holds:     make(map[string][]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteShorten, s.route(RouteShorten, s.handleShorten))
	mux.HandleFunc(RouteList, s.route(RouteList, s.handleList))
	mux.HandleFunc(RouteDetail, s.route(RouteDetail, s.handleDetail))

	s.Server = httptest.NewServer(mux)
	tb.Cleanup(s.Close)
	return s
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// ShortenBodies returns the raw bodies of every POST /api/shorten.
func (s *Server) ShortenBodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

// Override replaces the handler for route until cleared with a nil handler.
func (s *Server) Override(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.overrides, route)
		return
	}
	s.overrides[route] = h
}

// Respond makes route answer with a fixed status and body.
func (s *Server) Respond(route string, status int, body string) {
	s.Override(route, func(w http.ResponseWriter, _ *http.Request) {
		if status >= 200 && status < 300 {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// Hold makes the next request to route wait until release is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], ch)
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Seed stores a link directly, bypassing POST /api/shorten.
func (s *Server) Seed(code, originalURL string) {
	now := s.clock.Now().UTC()
	_ = s.store.saveIfNotExists(&Link{
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(defaultTTL),
		Visitors:    map[string]struct{}{},
		Countries:   map[string]int64{},
	})
}

// Visit records a click on code.
func (s *Server) Visit(code, visitor, country string) error {
	return s.store.recordClick(code, visitor, country, s.clock.Now().UTC())
}

func (s *Server) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[name]++
		var hold chan struct{}
		if queue := s.holds[name]; len(queue) > 0 {
			hold, s.holds[name] = queue[0], queue[1:]
		}
		override := s.overrides[name]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if override != nil {
			override(w, r)
			return
		}
		next(w, r)
	}
}

type shortenRequest struct {
	URL         string  `json:"url"`
	CustomAlias string  `json:"customAlias"`
	ExpiresAt   *string `json:"expiresAt"`
}

func (s *Server) handleShorten(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.bodies = append(s.bodies, string(raw))
	s.mu.Unlock()

	var req shortenRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if err := validateURL(req.URL); err != nil {
		http.Error(w, fmt.Sprintf("invalid url: %v", err), http.StatusBadRequest)
		return
	}

	now := s.clock.Now().UTC()
	expiresAt := now.Add(defaultTTL)
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			http.Error(w, "expiresAt must be RFC3339", http.StatusBadRequest)
			return
		}
		expiresAt = t.UTC()
	}

	code := req.CustomAlias
	if code == "" {
		s.mu.Lock()
		s.counter++
		code = fmt.Sprintf("code%04d", s.counter)
		s.mu.Unlock()
	}

	link := &Link{
		Code:        code,
		OriginalURL: req.URL,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		Visitors:    map[string]struct{}{},
		Countries:   map[string]int64{},
	}
	if err := s.store.saveIfNotExists(link); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, domain.CreationResult{
		Code:        code,
		ShortURL:    s.shortURL(code),
		OriginalURL: link.OriginalURL,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		QRCode:      QRCode,
	})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	links := s.store.list()
	items := make([]domain.LinkSummary, 0, len(links))
	for _, link := range links {
		items = append(items, summarize(link))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	link, err := s.store.find(r.PathValue("code"))
	if errors.Is(err, errNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	detail := domain.LinkDetail{
		LinkSummary:   summarize(link),
		ShortURL:      s.shortURL(link.Code),
		CountryCounts: link.Countries,
		QRCode:        QRCode,
	}
	if !link.LastAccessed.IsZero() {
		detail.LastAccessed = link.LastAccessed.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) shortURL(code string) string {
	return s.URL + "/" + url.PathEscape(code)
}

func summarize(link *Link) domain.LinkSummary {
	return domain.LinkSummary{
		Code:           link.Code,
		OriginalURL:    link.OriginalURL,
		CreatedAt:      link.CreatedAt.Format(time.RFC3339),
		ExpiresAt:      link.ExpiresAt.Format(time.RFC3339),
		TotalClicks:    link.TotalClicks,
		UniqueVisitors: int64(len(link.Visitors)),
	}
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url must start with http or https")
	}
	if parsed.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
