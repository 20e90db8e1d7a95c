package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"shortlink-client/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		domain.ErrSubmitInFlight,
		domain.ErrEmptyQuery,
		domain.ErrClosed,
		domain.ErrTransport,
		domain.ErrMalformedResponse,
		domain.ErrClipboardUnavailable,
		domain.ErrInvalidDate,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	wrapped := fmt.Errorf("operation failed: %w", domain.ErrTransport)
	assert.True(t, errors.Is(wrapped, domain.ErrTransport))
}
