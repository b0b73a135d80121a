package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrExtraction", ErrExtraction},
		{"ErrConfig", ErrConfig},
		{"ErrEmbeddingService", ErrEmbeddingService},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrUnsupportedOperation", ErrUnsupportedOperation},
		{"ErrGeneration", ErrGeneration},
		{"ErrDocumentTooLarge", ErrDocumentTooLarge},
		{"ErrCorruptIndex", ErrCorruptIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestDimensionMismatchError(t *testing.T) {
	err := &DimensionMismatchError{Expected: 768, Actual: 1536}

	assert.Equal(t, "dimension mismatch: expected 768, got 1536", err.Error())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.NotErrorIs(t, err, ErrConfig)

	wrapped := fmt.Errorf("open index: %w", err)
	assert.ErrorIs(t, wrapped, ErrDimensionMismatch)

	var dm *DimensionMismatchError
	assert.True(t, errors.As(wrapped, &dm))
	assert.Equal(t, 768, dm.Expected)
}

func TestUnsupportedFormatError(t *testing.T) {
	err := &UnsupportedFormatError{Extension: ".exe"}
	assert.Equal(t, "unsupported format: .exe", err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	noExt := &UnsupportedFormatError{}
	assert.Contains(t, noExt.Error(), "no extension")
}
