package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := WrapNoTypemap("struct tm *")
	assert.True(t, Is(err, ErrNoTypemapEntry))
	assert.Contains(t, err.Error(), "struct tm *")

	err = WrapNoInputTemplate("T_BOGUS")
	assert.True(t, Is(err, ErrNoInputTemplate))
	assert.True(t, IsTypemapError(err))
}

func TestIsTypemapError(t *testing.T) {
	assert.False(t, IsTypemapError(nil))
	assert.False(t, IsTypemapError(New("unrelated")))
	assert.True(t, IsTypemapError(Wrap(ErrNoTypemapEntry, "lookup failed")))
}

func TestAssertionFailure(t *testing.T) {
	err := AssertionFailedf("param %q has both init override and no_init", "x")
	assert.True(t, HasAssertionFailure(err))
	assert.False(t, HasAssertionFailure(ErrDuplicateParameter))
}
