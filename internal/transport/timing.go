package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Timing wraps next and logs every round trip with its duration in
// microseconds. Each request gets a request_id for correlating log lines;
// the ID is never sent to the backend.
func Timing(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &timingRoundTripper{next: next, logger: logger}
}

type timingRoundTripper struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *timingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	requestID := uuid.New().String()

	resp, err := t.next.RoundTrip(req)

	micros := time.Since(start).Microseconds()
	if err != nil {
		t.logger.Warn("request failed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.EscapedPath(),
			"duration_micros", micros,
			"error", err,
		)
		return nil, err
	}

	t.logger.Debug("request completed",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.EscapedPath(),
		"status", resp.StatusCode,
		"duration_micros", micros,
	)
	return resp, nil
}
