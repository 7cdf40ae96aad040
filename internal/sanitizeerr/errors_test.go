package sanitizeerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	cause := errors.New("short read")
	err := New(ReceiveError, "doc.pdf", 3, cause)

	assert.True(t, errors.Is(err, ErrReceiveError))
	assert.False(t, errors.Is(err, ErrPageError))
}

func TestErrorUnwrapReachesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(ConversionFailed, "doc.pdf", 1, cause)

	assert.ErrorIs(t, err, cause)
}

func TestErrorMessageIncludesContext(t *testing.T) {
	err := New(DimensionError, "evil.pdf", 7, errors.New("width out of range"))
	msg := err.Error()

	assert.Contains(t, msg, "dimension_error")
	assert.Contains(t, msg, "evil.pdf")
	assert.Contains(t, msg, "page=7")
	assert.Contains(t, msg, "width out of range")
}

func TestErrorMessageOmitsAbsentContext(t *testing.T) {
	err := New(Cancelled, "", 0, nil)
	assert.Equal(t, "cancelled", err.Error())
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		TransportBroken, ReceiveError, DimensionError, PageError,
		ConversionFailed, AssemblyFailed, Cancelled, PasswordError,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
	}
}
