package transport_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shortlink-client/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestTiming_LogsCompletedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	client := &http.Client{Transport: transport.Timing(nil, newLogger(&buf))}

	resp, err := client.Get(srv.URL + "/api/links")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "path=/api/links")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "request_id=")
	assert.Contains(t, out, "duration_micros=")
}

func TestTiming_DoesNotSendRequestID(t *testing.T) {
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: transport.Timing(nil, slog.New(slog.DiscardHandler))}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	for name := range headers {
		assert.NotContains(t, name, "Request-Id")
	}
}

func TestTiming_MeasuresActualRoundTrip(t *testing.T) {
	slow := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		time.Sleep(50 * time.Millisecond)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	var buf bytes.Buffer
	rt := transport.Timing(slow, newLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "http://backend/slow", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Regexp(t, `duration_micros=[5-9]\d{4}|duration_micros=\d{6,}`, buf.String())
}

func TestTiming_LogsFailures(t *testing.T) {
	failing := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	var buf bytes.Buffer
	rt := transport.Timing(failing, newLogger(&buf))

	req := httptest.NewRequest(http.MethodPost, "http://backend/api/shorten", nil)
	resp, err := rt.RoundTrip(req)

	assert.Nil(t, resp)
	assert.EqualError(t, err, "connection refused")
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "connection refused")
}
