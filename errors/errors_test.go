package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
		wantInvalid  bool
	}{
		{"nil", nil, false, false},
		{"plain", New("boom"), false, false},
		{"not found", NewNotFoundError("snapshot %s", "v3"), true, false},
		{"invalid", NewInvalidRequestError("unknown status %q", "x"), false, true},
		{"wrapped twice", Wrap(Wrap(ErrNotFound, "diff v1..v2"), "failed to load source"), true, false},
		{"std wrapped", fmt.Errorf("outer: %w", ErrInvalidRequest), false, true},
		{"unsupported", Wrapf(ErrUnsupportedFormat, "graph.txt"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.wantNotFound {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.wantNotFound)
			}
			if got := IsInvalidRequestError(tt.err); got != tt.wantInvalid {
				t.Errorf("IsInvalidRequestError() = %v, want %v", got, tt.wantInvalid)
			}
		})
	}
}

func TestNewNotFoundErrorMessage(t *testing.T) {
	err := NewNotFoundError("snapshot %s", "v3")
	assert.Equal(t, "snapshot v3: not found", err.Error())
}

func TestHintsSurviveWrapping(t *testing.T) {
	base := WithHint(NewInvalidRequestError("opacity 1.5"), "use a value between 0 and 1")
	wrapped := Wrap(base, "graph.dimmed_node_opacity")

	assert.True(t, IsInvalidRequestError(wrapped))
	assert.Equal(t, []string{"use a value between 0 and 1"}, GetAllHints(wrapped))
	assert.Contains(t, FlattenHints(wrapped), "between 0 and 1")
}

func TestDetailsAreNotInMessage(t *testing.T) {
	err := WithDetailf(New("decode failed"), "line %d", 12)

	assert.Equal(t, "decode failed", err.Error())
	assert.Equal(t, []string{"line 12"}, GetAllDetails(err))
}

type decodeError struct {
	path string
}

func (e *decodeError) Error() string {
	return "cannot decode " + e.path
}

func TestAsThroughWrap(t *testing.T) {
	err := Wrapf(&decodeError{path: "snapshots/v1.yaml"}, "loading %s", "v1")

	var de *decodeError
	require.True(t, As(err, &de))
	assert.Equal(t, "snapshots/v1.yaml", de.path)
	assert.Equal(t, de, UnwrapAll(err))
}

func TestIsAny(t *testing.T) {
	err := Wrap(ErrUnsupportedFormat, "graph.txt")

	assert.True(t, IsAny(err, ErrNotFound, ErrUnsupportedFormat))
	assert.False(t, IsAny(err, ErrNotFound, ErrInvalidRequest))
}

func TestWithStackKeepsMessage(t *testing.T) {
	err := WithStack(ErrNotFound)

	assert.Equal(t, "not found", err.Error())
	assert.True(t, Is(err, ErrNotFound))
	assert.Equal(t, ErrNotFound, Unwrap(err))
}
