package typemap

import (
	"regexp"
	"strings"
)

// Placeholder names recognized inside input-code templates, longest first so
// that $subtype is never read as $sub + "type" and $argoff never as $arg.
var placeholderNames = []string{
	"subtype", "argoff", "ntype", "pname", "type", "arg", "num", "var",
}

// ArrayElemMarker is the marker token inside a template standing for
// "process one array element here". The element's own template is resolved
// and spliced in at emission time.
const ArrayElemMarker = "DO_ARRAY_ELEM"

var scopeCommentRe = regexp.MustCompile(`(?is)/\*.*scope.*\*/`)

// segment is one piece of a parsed template: either literal text or a
// placeholder reference.
type segment struct {
	literal     string
	placeholder string // non-empty for placeholder segments
}

// Template is one marshalling code fragment from a typemap, pre-split into
// literal segments and known placeholders so expansion is a table lookup
// rather than repeated string rewriting. The raw text is preserved so that
// splicing operations (array-element substitution) can stay byte-compatible
// with the classic typemap templates.
type Template struct {
	raw      string
	segments []segment
}

// NewTemplate parses template text into segments
func NewTemplate(text string) *Template {
	t := &Template{raw: text}

	var lit strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '$' {
			if name, n := matchPlaceholder(text[i+1:]); n > 0 {
				if lit.Len() > 0 {
					t.segments = append(t.segments, segment{literal: lit.String()})
					lit.Reset()
				}
				t.segments = append(t.segments, segment{placeholder: name})
				i += 1 + n
				continue
			}
		}
		lit.WriteByte(text[i])
		i++
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{literal: lit.String()})
	}
	return t
}

// matchPlaceholder returns the placeholder name starting at s, if any
func matchPlaceholder(s string) (string, int) {
	for _, name := range placeholderNames {
		if strings.HasPrefix(s, name) {
			return name, len(name)
		}
	}
	return "", 0
}

// Binding supplies values for template placeholders
type Binding map[string]string

// Expand renders the template with the given binding. Placeholders missing
// from the binding expand to the empty string.
func (t *Template) Expand(b Binding) string {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.placeholder != "" {
			sb.WriteString(b[seg.placeholder])
		} else {
			sb.WriteString(seg.literal)
		}
	}
	return sb.String()
}

// Raw returns the original template text
func (t *Template) Raw() string {
	return t.raw
}

// HasArrayElem reports whether the template contains the array-element marker
func (t *Template) HasArrayElem() bool {
	return strings.Contains(t.raw, ArrayElemMarker)
}

// HasScopeComment reports whether the template text contains a C comment
// mentioning "scope" (case-insensitive). Such templates require deferred
// emission for themselves and every later parameter of the same unit.
func (t *Template) HasScopeComment() bool {
	return scopeCommentRe.MatchString(t.raw)
}
