package diag

import (
	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/logger"
)

// Reporter collects diagnostics for one compilation run.
//
// Warnings and recoverable errors accumulate so that a single run can report
// every problem in the input; any recoverable error marks the run failed.
// Fatal diagnostics indicate a bug in the compiler core and are returned as
// assertion errors for the caller to abort on. A Reporter is single-threaded,
// like the compilation pass that owns it.
type Reporter struct {
	diags  []*Diag
	failed bool
	ctx    OutputContext
}

// NewReporter creates a reporter formatting for the given output context
func NewReporter(ctx OutputContext) *Reporter {
	return &Reporter{ctx: ctx}
}

// Warn records a non-fatal informational diagnostic. The run continues
// unaffected.
func (r *Reporter) Warn(d *Diag) {
	d.Severity = SeverityWarning
	r.diags = append(r.diags, d)
	logger.Warnw("diagnostic", "kind", string(d.Kind), "message", d.formatPlain())
}

// Blurt records a recoverable error. The offending parameter or unit is
// skipped by the caller; processing continues so multiple errors can be
// reported in one run, but the overall compilation is marked failed.
func (r *Reporter) Blurt(d *Diag) {
	d.Severity = SeverityError
	r.diags = append(r.diags, d)
	r.failed = true
	logger.Errorw("diagnostic", "kind", string(d.Kind), "message", d.formatPlain())
}

// Death records a fatal internal error and returns an assertion error for
// the caller to propagate. These indicate a bug in the compiler core and
// abort processing of the current run; they are not recoverable by retry.
func (r *Reporter) Death(d *Diag) error {
	d.Severity = SeverityFatal
	d.Kind = KindInternal
	r.diags = append(r.diags, d)
	r.failed = true
	return errors.AssertionFailedf("%s", d.formatPlain())
}

// Failed reports whether any recoverable or fatal diagnostic was recorded
func (r *Reporter) Failed() bool {
	return r.failed
}

// Diags returns all recorded diagnostics in record order
func (r *Reporter) Diags() []*Diag {
	return r.diags
}

// Warnings returns only the warning-severity diagnostics
func (r *Reporter) Warnings() []*Diag {
	var out []*Diag
	for _, d := range r.diags {
		if d.IsWarning() {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns only the error-severity diagnostics
func (r *Reporter) Errors() []*Diag {
	var out []*Diag
	for _, d := range r.diags {
		if d.Severity == SeverityError || d.Severity == SeverityFatal {
			out = append(out, d)
		}
	}
	return out
}

// Format renders every diagnostic for the reporter's output context
func (r *Reporter) Format() []string {
	out := make([]string, 0, len(r.diags))
	for _, d := range r.diags {
		out = append(out, d.Format(r.ctx))
	}
	return out
}
