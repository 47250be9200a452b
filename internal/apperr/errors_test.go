package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := New(KindNotFound, "doctor_not_found", "doctor not found")
	wrapped := fmt.Errorf("%w: no doctor matching %q", base, "jon")

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "doctor_not_found", CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, base))
	assert.True(t, IsNotFound(wrapped))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence(cause, "book appointment")

	assert.Equal(t, KindPersistence, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "book appointment: connection reset", err.Error())
	assert.Nil(t, Persistence(nil, "noop"))
}

func TestUnclassified(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "internal_error", CodeOf(err))
}
