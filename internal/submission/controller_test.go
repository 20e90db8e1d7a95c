package submission_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"shortlink-client/internal/api"
	"shortlink-client/internal/domain"
	"shortlink-client/internal/refresh"
	"shortlink-client/internal/submission"
	"shortlink-client/internal/timestamp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockShortener implements submission.Shortener for testing
type MockShortener struct {
	mock.Mock
}

func (m *MockShortener) Shorten(ctx context.Context, req domain.CreationRequest) (*domain.CreationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreationResult), args.Error(1)
}

func newController(t *testing.T, shortener submission.Shortener) (*submission.Controller, *refresh.Token) {
	t.Helper()
	token := refresh.NewToken()
	c := submission.NewController(shortener, timestamp.New(time.UTC), token)
	t.Cleanup(c.Close)
	return c, token
}

func sampleResult() *domain.CreationResult {
	return &domain.CreationResult{
		Code:        "Ab2CdE3F",
		ShortURL:    "http://localhost:8080/Ab2CdE3F",
		OriginalURL: "https://example.com",
		ExpiresAt:   "2024-02-14T12:00:00Z",
		QRCode:      "data:image/png;base64,AAAA",
	}
}

func TestSubmit_TrimsInputsAndSendsNullExpiry(t *testing.T) {
	shortener := new(MockShortener)
	c, _ := newController(t, shortener)

	want := domain.CreationRequest{URL: "https://example.com", CustomAlias: "", ExpiresAt: nil}
	shortener.On("Shorten", mock.Anything, want).Return(sampleResult(), nil)

	err := c.Submit(context.Background(), "  https://example.com  ", "   ", domain.CalendarDate{})
	require.NoError(t, err)

	shortener.AssertExpectations(t)
}

func TestSubmit_ResolvesExpiryToLocalMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	shortener := new(MockShortener)
	c := submission.NewController(shortener, timestamp.New(loc), refresh.NewToken())
	defer c.Close()

	expiry := "2024-03-10T00:00:00-05:00"
	want := domain.CreationRequest{URL: "https://example.com", CustomAlias: "spring", ExpiresAt: &expiry}
	shortener.On("Shorten", mock.Anything, want).Return(sampleResult(), nil)

	err = c.Submit(context.Background(), "https://example.com", " spring ", domain.NewCalendarDate(2024, time.March, 10))
	require.NoError(t, err)

	shortener.AssertExpectations(t)
}

func TestSubmit_SuccessStoresResultAndIncrementsToken(t *testing.T) {
	shortener := new(MockShortener)
	c, token := newController(t, shortener)
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(sampleResult(), nil)

	assert.Equal(t, submission.StateIdle, c.View().State)

	require.NoError(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))

	view := c.View()
	assert.Equal(t, submission.StateSuccess, view.State)
	assert.Equal(t, sampleResult(), view.Result)
	assert.Empty(t, view.Error)
	assert.Equal(t, uint64(1), token.Value())
}

func TestSubmit_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "body text verbatim",
			err:  &api.StatusError{StatusCode: http.StatusBadRequest, Message: "customAlias already in use"},
			want: "customAlias already in use",
		},
		{
			name: "empty body falls back",
			err:  &api.StatusError{StatusCode: http.StatusInternalServerError},
			want: submission.FallbackMessage,
		},
		{
			name: "transport failure",
			err:  fmt.Errorf("%w: connection refused", domain.ErrTransport),
			want: api.GenericMessage,
		},
		{
			name: "malformed success body",
			err:  fmt.Errorf("%w: unexpected EOF", domain.ErrMalformedResponse),
			want: api.GenericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shortener := new(MockShortener)
			c, token := newController(t, shortener)
			shortener.On("Shorten", mock.Anything, mock.Anything).Return(nil, tt.err)

			err := c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{})

			assert.ErrorIs(t, err, tt.err)
			view := c.View()
			assert.Equal(t, submission.StateFailed, view.State)
			assert.Equal(t, tt.want, view.Error)
			assert.Nil(t, view.Result)
			assert.Equal(t, uint64(0), token.Value())
		})
	}
}

func TestSubmit_FailureClearsPreviousResult(t *testing.T) {
	shortener := new(MockShortener)
	c, token := newController(t, shortener)
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(sampleResult(), nil).Once()
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(nil, &api.StatusError{StatusCode: 400, Message: "nope"}).Once()

	require.NoError(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))
	require.NotNil(t, c.View().Result)

	require.Error(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))

	view := c.View()
	assert.Nil(t, view.Result)
	assert.Equal(t, "nope", view.Error)
	assert.Equal(t, uint64(1), token.Value())
}

func TestSubmit_NextSubmitRestartsAfterFailure(t *testing.T) {
	shortener := new(MockShortener)
	c, token := newController(t, shortener)
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(sampleResult(), nil).Once()

	require.Error(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))
	require.NoError(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))

	view := c.View()
	assert.Equal(t, submission.StateSuccess, view.State)
	assert.Empty(t, view.Error)
	assert.Equal(t, uint64(1), token.Value())
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	shortener := new(MockShortener)
	c, token := newController(t, shortener)

	started := make(chan struct{})
	release := make(chan struct{})
	shortener.On("Shorten", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(sampleResult(), nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{})
	}()
	<-started

	assert.Equal(t, submission.StateSubmitting, c.View().State)
	err := c.Submit(context.Background(), "https://other.example", "", domain.CalendarDate{})
	assert.ErrorIs(t, err, domain.ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, uint64(1), token.Value())
	shortener.AssertNumberOfCalls(t, "Shorten", 1)
}

func TestSubmit_CloseDiscardsInFlightResult(t *testing.T) {
	shortener := new(MockShortener)
	token := refresh.NewToken()
	c := submission.NewController(shortener, timestamp.New(time.UTC), token)

	started := make(chan struct{})
	shortener.On("Shorten", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(sampleResult(), nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{})
	}()
	<-started

	c.Close()

	assert.ErrorIs(t, <-done, domain.ErrClosed)
	assert.Nil(t, c.View().Result)
	assert.Equal(t, uint64(0), token.Value())

	assert.ErrorIs(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}), domain.ErrClosed)
}

func TestSubmit_NotifiesOnChange(t *testing.T) {
	shortener := new(MockShortener)
	shortener.On("Shorten", mock.Anything, mock.Anything).Return(sampleResult(), nil)

	var states []submission.State
	var c *submission.Controller
	c = submission.NewController(shortener, timestamp.New(time.UTC), refresh.NewToken(),
		submission.WithOnChange(func() { states = append(states, c.View().State) }))
	defer c.Close()

	require.NoError(t, c.Submit(context.Background(), "https://example.com", "", domain.CalendarDate{}))

	assert.Equal(t, []submission.State{submission.StateSubmitting, submission.StateSuccess}, states)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", submission.StateIdle.String())
	assert.Equal(t, "submitting", submission.StateSubmitting.String())
	assert.Equal(t, "success", submission.StateSuccess.String())
	assert.Equal(t, "failed", submission.StateFailed.String())
}
