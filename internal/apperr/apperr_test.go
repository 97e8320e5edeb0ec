package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"field", Field("email", "Must be a valid email address"), KindValidation},
		{"unauthenticated", Unauthenticated("no token"), KindUnauthenticated},
		{"forbidden", Forbidden("nope"), KindForbidden},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("dup"), KindConflict},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("missing")), KindNotFound},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			assert.True(t, Is(tt.err, tt.want) || tt.want == KindInternal)
		})
	}
}

func TestFieldCarriesDetails(t *testing.T) {
	err := Field("ratingValue", "Rating must be between 1 and 5")
	require.Len(t, err.Fields, 1)
	assert.Equal(t, "ratingValue", err.Fields[0].Field)
	assert.Equal(t, "Rating must be between 1 and 5", err.Message)
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("Failed to submit rating", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
