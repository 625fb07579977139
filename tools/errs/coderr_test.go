package errs

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWithDetailCopies(t *testing.T) {
	detailed := ErrNotFound.WithDetail("conversation 42")

	assert.Empty(t, ErrNotFound.Detail, "sentinel must stay untouched")
	assert.Contains(t, detailed.Error(), "conversation 42")
	assert.True(t, ErrNotFound.Is(detailed))

	twice := detailed.WithDetail("second")
	assert.Contains(t, twice.Detail, "conversation 42")
	assert.Contains(t, twice.Detail, "second")
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	wrapped := errors.Wrap(ErrUnauthorized.WithDetail("user u1"), "delete_message")

	assert.True(t, ErrUnauthorized.Is(wrapped))
	assert.False(t, ErrNotFound.Is(wrapped))
	assert.False(t, ErrNotFound.Is(errors.New("plain")))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(ErrNotFound))
	assert.Equal(t, CodeUnauthorized, CodeOf(errors.Wrap(ErrUnauthorized, "ctx")))
	assert.Equal(t, CodeStorageUnavailable, CodeOf(errors.New("mongo timeout")))
}

func TestMsgOfHidesUntypedCauses(t *testing.T) {
	assert.Equal(t, "record not found", MsgOf(ErrNotFound))
	// raw driver errors must not leak to the wire
	assert.Equal(t, "internal error", MsgOf(errors.New("dial tcp 10.0.0.3: refused")))
}
