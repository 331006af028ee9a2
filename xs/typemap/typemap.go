// Package typemap implements the typemap dictionary consulted during code
// emission: a mapping from C-like type strings to xstype tags, and from
// xstype tags to input-code templates. The dictionary is read-only shared
// state across all parameters of all XSUBs in a run.
package typemap

import (
	"regexp"
	"strings"
)

// Entry is one typemap record for a C type
type Entry struct {
	CType  string // tidied C type string, the lookup key
	XSType string // xstype tag, e.g. T_IV
	Proto  string // prototype character override, empty = default "$"
}

// Dictionary is the query contract used by the emission pass
type Dictionary interface {
	// LookupByCType returns the typemap entry for a C-like type string.
	// The type is tidied before lookup.
	LookupByCType(ctype string) (*Entry, bool)

	// LookupInputTemplate returns the input-code template registered for
	// an xstype tag.
	LookupInputTemplate(xstype string) (*Template, bool)
}

// Map is an in-memory Dictionary. Later additions shadow earlier ones, so
// user typemap files layer over the builtin table.
type Map struct {
	entries map[string]*Entry
	inputs  map[string]*Template
}

// NewMap creates an empty dictionary
func NewMap() *Map {
	return &Map{
		entries: make(map[string]*Entry),
		inputs:  make(map[string]*Template),
	}
}

// AddEntry registers (or shadows) a typemap entry for a C type
func (m *Map) AddEntry(ctype, xstype, proto string) {
	key := TidyType(ctype)
	m.entries[key] = &Entry{CType: key, XSType: xstype, Proto: proto}
}

// AddInputTemplate registers (or shadows) the input template for an xstype tag
func (m *Map) AddInputTemplate(xstype, code string) {
	m.inputs[xstype] = NewTemplate(code)
}

// LookupByCType implements Dictionary
func (m *Map) LookupByCType(ctype string) (*Entry, bool) {
	e, ok := m.entries[TidyType(ctype)]
	return e, ok
}

// LookupInputTemplate implements Dictionary
func (m *Map) LookupInputTemplate(xstype string) (*Template, bool) {
	t, ok := m.inputs[xstype]
	return t, ok
}

var (
	starBunchRe  = regexp.MustCompile(`\s*(\*+)\s*`)
	starSpaceRe  = regexp.MustCompile(`(\*+)`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// TidyType normalizes a C-like type string to its canonical lookup form:
// '*' runs are joined into bunches and set off by single spaces, and all
// other whitespace collapses to single spaces.
//
//	"char  *"   -> "char *"
//	"int**"     -> "int **"
//	" unsigned   long "-> "unsigned long"
func TidyType(ctype string) string {
	s := starBunchRe.ReplaceAllString(ctype, "$1")
	s = starSpaceRe.ReplaceAllString(s, " $1 ")
	s = strings.TrimSpace(s)
	return multiSpaceRe.ReplaceAllString(s, " ")
}
