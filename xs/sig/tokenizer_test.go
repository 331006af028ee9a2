package sig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitParams(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     []string
		fallback bool
	}{
		{
			name: "empty text yields no fragments",
			text: "   ",
			want: nil,
		},
		{
			name: "simple comma split",
			text: "int a, char *b, c",
			want: []string{"int a", " char *b", " c"},
		},
		{
			name: "comma inside parens is not a split point",
			text: "int a = f(1, 2), int b",
			want: []string{"int a = f(1, 2)", " int b"},
		},
		{
			name: "comma inside nested brackets",
			text: "x = {1, [2, 3]}, y",
			want: []string{"x = {1, [2, 3]}", " y"},
		},
		{
			name: "comma inside double quotes",
			text: `s = "a,b", t`,
			want: []string{`s = "a,b"`, " t"},
		},
		{
			name: "escaped quote inside string",
			text: `s = "a\",b", t`,
			want: []string{`s = "a\",b"`, " t"},
		},
		{
			name: "comma inside char literal",
			text: "c = ',', d",
			want: []string{"c = ','", " d"},
		},
		{
			name: "mismatched bracket kinds still group",
			text: "a = f(1, 2], b",
			want: []string{"a = f(1, 2]", " b"},
		},
		{
			name:     "stray top-level closer falls back",
			text:     "a), b",
			want:     []string{"a)", "b"},
			fallback: true,
		},
		{
			name:     "unterminated group falls back",
			text:     "a = f(1, b",
			want:     []string{"a = f(1", "b"},
			fallback: true,
		},
		{
			name:     "unterminated string falls back",
			text:     `a = "x, b`,
			want:     []string{`a = "x`, "b"},
			fallback: true,
		},
		{
			name: "trailing comma yields empty fragment",
			text: "a,",
			want: []string{"a", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := SplitParams(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

func TestDecomposeParam(t *testing.T) {
	tests := []struct {
		name string
		frag string
		want decomposed
		ok   bool
	}{
		{
			name: "bare name",
			frag: "a",
			want: decomposed{name: "a"},
			ok:   true,
		},
		{
			name: "typed",
			frag: "int a",
			want: decomposed{ctype: "int", name: "a"},
			ok:   true,
		},
		{
			name: "pointer type keeps its star",
			frag: "char *s",
			want: decomposed{ctype: "char *", name: "s"},
			ok:   true,
		},
		{
			name: "typed with default",
			frag: "int b = 5",
			want: decomposed{ctype: "int", name: "b", ws1: " ", ws2: " ", def: "5", hasDef: true},
			ok:   true,
		},
		{
			name: "untyped default preserves spacing",
			frag: "b=5",
			want: decomposed{name: "b", def: "5", hasDef: true},
			ok:   true,
		},
		{
			name: "empty default expression still counts",
			frag: "b =",
			want: decomposed{name: "b", ws1: " ", hasDef: true},
			ok:   true,
		},
		{
			name: "direction prefix",
			frag: "OUT int x",
			want: decomposed{direction: "OUT", ctype: "int", name: "x"},
			ok:   true,
		},
		{
			name: "longest direction keyword wins",
			frag: "IN_OUTLIST int x",
			want: decomposed{direction: "IN_OUTLIST", ctype: "int", name: "x"},
			ok:   true,
		},
		{
			name: "length pseudo-parameter",
			frag: "int length(s)",
			want: decomposed{ctype: "int", name: "length(s)", lengthOf: "s"},
			ok:   true,
		},
		{
			name: "length with interior spaces",
			frag: "int length( s )",
			want: decomposed{ctype: "int", name: "length( s )", lengthOf: "s"},
			ok:   true,
		},
		{
			name: "garbage does not match",
			frag: "***",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decomposeParam(tt.frag)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsPlaceholderSV(t *testing.T) {
	assert.True(t, isPlaceholderSV("SV *"))
	assert.True(t, isPlaceholderSV("SV*"))
	assert.True(t, isPlaceholderSV("  SV  *  "))
	assert.False(t, isPlaceholderSV("SV *sv"))
	assert.False(t, isPlaceholderSV("AV *"))
}
