package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glueforge/xsgen/errors"
)

func TestPlainFormatting(t *testing.T) {
	d := Newf(KindSyntax, "unparseable XSUB parameter: '%s'", "int $bad").
		WithXSUB("frob").
		WithFragment("int $bad").
		WithSuggestion("declare the parameter as 'type name'")

	got := d.Format(ContextPlain)
	assert.Contains(t, got, "in frob:")
	assert.Contains(t, got, "unparseable XSUB parameter")
	assert.Contains(t, got, "(near 'int $bad')")
	assert.Contains(t, got, "Suggestions: declare the parameter")
	// Plain output must carry no ANSI escapes
	assert.NotContains(t, got, "\x1b[")
}

func TestTerminalFormattingCarriesContext(t *testing.T) {
	d := New(KindTypemap, "could not find a typemap for C type 'blob *'").
		WithXSUB("store").
		WithFragment("blob * b")
	got := d.Format(ContextTerminal)
	assert.Contains(t, got, "store")
	assert.Contains(t, got, "blob * b")
}

func TestReporterSeverities(t *testing.T) {
	r := NewReporter(ContextPlain)
	assert.False(t, r.Failed())

	r.Warn(New(KindSyntax, "tokenizer fallback used"))
	assert.False(t, r.Failed(), "warnings alone must not fail the run")
	assert.Len(t, r.Warnings(), 1)

	r.Blurt(New(KindSemantic, "duplicate definition of argument 'a'"))
	assert.True(t, r.Failed())
	assert.Len(t, r.Errors(), 1)
	assert.Len(t, r.Diags(), 2)
}

func TestDeathReturnsAssertionError(t *testing.T) {
	r := NewReporter(ContextPlain)
	err := r.Death(New(KindInternal, "both init override and no_init set"))
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
	assert.True(t, r.Failed())
}

func TestPositionTracker(t *testing.T) {
	src := "int a,\nchar *b"
	pt := NewPositionTracker(src)
	pt.AdvanceBytes(7) // consume through the newline
	pos := pt.Mark()
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 0, pos.Character)
	assert.Equal(t, 7, pos.Offset)

	pt.AdvanceBytes(100) // clamp at end of source
	assert.Equal(t, len(src), pt.Mark().Offset)
}

func TestDiagUnwrap(t *testing.T) {
	underlying := errors.ErrNoTypemapEntry
	d := New(KindTypemap, "lookup failed").WithUnderlying(underlying)
	assert.True(t, errors.Is(d, errors.ErrNoTypemapEntry))
	assert.True(t, strings.Contains(d.Error(), "lookup failed"))
}
