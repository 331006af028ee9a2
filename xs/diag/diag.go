// Package diag provides structured diagnostics for the signature compiler.
//
// Three severities exist, matching the three classes of failure the compiler
// distinguishes: warnings (run continues unaffected), recoverable errors
// (the offending parameter or unit is skipped, the run is marked failed but
// continues so multiple errors surface at once), and fatal errors (invariant
// violations inside the compiler itself, which abort the run).
package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// OutputContext indicates the environment where diagnostics will be displayed
type OutputContext string

const (
	// ContextTerminal indicates diagnostics will be displayed in terminal with ANSI colors
	ContextTerminal OutputContext = "terminal"
	// ContextPlain indicates diagnostics will be displayed without ANSI codes (logs, tooling)
	ContextPlain OutputContext = "plain"
)

// Severity indicates the severity level of a diagnostic
type Severity string

const (
	SeverityWarning Severity = "warning" // Informational; run continues unaffected
	SeverityError   Severity = "error"   // Recoverable; parameter/unit skipped, run marked failed
	SeverityFatal   Severity = "fatal"   // Internal invariant violation; run aborts
)

// Kind categorizes diagnostics for programmatic handling
type Kind string

const (
	KindSyntax   Kind = "syntax"   // Malformed signature or parameter text
	KindSemantic Kind = "semantic" // Valid syntax, invalid meaning (duplicates, bad directions)
	KindTypemap  Kind = "typemap"  // Missing typemap entry or input template
	KindInternal Kind = "internal" // Bug in the compiler core
)

// Diag represents a structured diagnostic with metadata
type Diag struct {
	Err         error         // Underlying error (optional)
	Kind        Kind          // Category
	Severity    Severity      // Severity level
	Message     string        // Human-readable message
	XSUB        string        // Enclosing subroutine name, if known
	Fragment    string        // Offending parameter fragment, if any
	Range       *Range        // Source span within the signature text (optional)
	Suggestions []string      // Possible fixes
	Timestamp   time.Time     // When the diagnostic was recorded
}

// Error implements the error interface
func (d *Diag) Error() string {
	return d.Format(ContextTerminal)
}

// Format generates a context-appropriate message
func (d *Diag) Format(ctx OutputContext) string {
	if ctx == ContextPlain {
		return d.formatPlain()
	}
	return d.formatTerminal()
}

// formatPlain creates a concise message for logs and tooling
func (d *Diag) formatPlain() string {
	msg := d.Message
	if d.XSUB != "" {
		msg = fmt.Sprintf("in %s: %s", d.XSUB, msg)
	}
	if d.Fragment != "" {
		msg += fmt.Sprintf(" (near '%s')", d.Fragment)
	}
	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(d.Suggestions, ", "))
	}
	return msg
}

// formatTerminal creates a rich colored message for terminal display
func (d *Diag) formatTerminal() string {
	var baseMsg string
	switch d.Severity {
	case SeverityFatal:
		baseMsg = pterm.Red("internal error: " + d.Message)
	case SeverityError:
		baseMsg = pterm.Red(d.Message)
	case SeverityWarning:
		baseMsg = pterm.Yellow(d.Message)
	default:
		baseMsg = d.Message
	}

	var context string
	if d.XSUB != "" {
		context += fmt.Sprintf("\n  %s %s", pterm.Yellow("XSUB:"), d.XSUB)
	}
	if d.Fragment != "" {
		context += fmt.Sprintf("\n  %s '%s'", pterm.Yellow("Near:"), d.Fragment)
	}
	if d.Range != nil {
		context += fmt.Sprintf("\n  %s %d:%d", pterm.Yellow("At:"), d.Range.Start.Line, d.Range.Start.Character)
	}

	if len(d.Suggestions) > 0 {
		context += fmt.Sprintf("\n%s", pterm.Green("Suggestions:"))
		for _, suggestion := range d.Suggestions {
			context += fmt.Sprintf("\n  - %s", suggestion)
		}
	}

	return baseMsg + context
}

// Unwrap for errors.Is/As compatibility
func (d *Diag) Unwrap() error {
	return d.Err
}

// IsWarning returns true if this diagnostic has warning severity
func (d *Diag) IsWarning() bool {
	return d.Severity == SeverityWarning
}

// Builder pattern for constructing diagnostics

// New creates a diagnostic with the given kind and message
func New(kind Kind, message string) *Diag {
	return &Diag{
		Kind:      kind,
		Severity:  SeverityError,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a diagnostic with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Diag {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithXSUB sets the enclosing subroutine name
func (d *Diag) WithXSUB(name string) *Diag {
	d.XSUB = name
	return d
}

// WithFragment sets the offending parameter fragment
func (d *Diag) WithFragment(fragment string) *Diag {
	d.Fragment = fragment
	return d
}

// WithRange sets the source span
func (d *Diag) WithRange(r Range) *Diag {
	d.Range = &r
	return d
}

// WithSeverity sets the severity
func (d *Diag) WithSeverity(sev Severity) *Diag {
	d.Severity = sev
	return d
}

// WithSuggestion adds a suggestion for fixing the problem
func (d *Diag) WithSuggestion(suggestion string) *Diag {
	d.Suggestions = append(d.Suggestions, suggestion)
	return d
}

// WithUnderlying sets the underlying error
func (d *Diag) WithUnderlying(err error) *Diag {
	d.Err = err
	return d
}
