// Package emit generates the per-parameter declaration and initializer text
// for one compilation unit: typemap template resolution and expansion, the
// three emission shapes (inline assignment, deferred block, defaulted), and
// the shared deferred-code buffer flushed once after all declarations.
package emit

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/glueforge/xsgen/xs/typemap"
)

// Config is the immutable per-run configuration shared by every unit
type Config struct {
	// Dict is the read-only typemap dictionary for the whole run
	Dict typemap.Dictionary

	// HierType keeps hierarchical type names as written instead of
	// flattening "::" separators to "__" in generated declarations
	HierType bool
}

// Context is the mutable emission state for one compilation unit. It owns
// the deferred-code buffer and the scope flag; both reset between units by
// creating a fresh Context.
type Context struct {
	cfg Config
	out io.Writer

	deferred strings.Builder

	// scopeEnabled sticks for the remainder of the unit once any resolved
	// template carries a scope comment
	scopeEnabled bool
}

// NewContext creates the emission context for one unit writing to out
func NewContext(cfg Config, out io.Writer) *Context {
	return &Context{cfg: cfg, out: out}
}

func (c *Context) writef(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Defer appends text to the unit's deferred-code buffer
func (c *Context) Defer(text string) {
	c.deferred.WriteString(text)
}

// Deferred returns the accumulated deferred code without flushing it
func (c *Context) Deferred() string {
	return c.deferred.String()
}

// FlushDeferred writes the deferred buffer to the output stream and empties
// it. The driver calls this exactly once per unit, after all declarations.
func (c *Context) FlushDeferred() {
	io.WriteString(c.out, c.deferred.String())
	c.deferred.Reset()
}

// ScopeEnabled reports whether a scope-commented template has been seen in
// this unit.
func (c *Context) ScopeEnabled() bool {
	return c.scopeEnabled
}

var (
	colonRe = regexp.MustCompile(`:`)
	fnPtrRe = regexp.MustCompile(`\(\s*\*\s*\)`)
	starRe  = regexp.MustCompile(`\s*\*`)
	// ntype drops one trailing Array and/or Ptr suffix to name the element
	subtypeRe = regexp.MustCompile(`(?:Array)?(?:Ptr)?$`)
)

// MapType renders a C type for use in a generated declaration. Unless
// hierarchical names are kept, "::" separators flatten to "__" so the text
// is a valid native identifier.
func (c *Config) MapType(ctype string) string {
	if c.HierType {
		return ctype
	}
	return colonRe.ReplaceAllString(ctype, "_")
}

// HasFnPtr reports whether the type contains a function-pointer declarator,
// which forces the variable name inside the type string.
func HasFnPtr(ctype string) bool {
	return fnPtrRe.MatchString(ctype)
}

// EmbedName inserts the variable name into a function-pointer declarator:
// "int (*)(int)" with name "cb" becomes "int (* cb )(int)".
func EmbedName(ctype, name string) string {
	done := false
	return fnPtrRe.ReplaceAllStringFunc(ctype, func(m string) string {
		if done {
			return m
		}
		done = true
		return "(* " + name + " )"
	})
}

// NtypeOf renders the "normalized" type used inside templates: pointer
// stars become the literal Ptr suffix.
func NtypeOf(ctype string) string {
	return starRe.ReplaceAllString(ctype, "Ptr")
}

// subtypeOf strips the container suffix off an ntype to name the element
// type of an array typemap.
func subtypeOf(ntype string) string {
	return subtypeRe.ReplaceAllString(ntype, "")
}
