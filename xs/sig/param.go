package sig

import (
	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/xs/typemap"
)

// Param is the accumulated truth about one XSUB parameter, merged from the
// signature text and from INPUT/OUTPUT directives processed later by the
// driver. A Param is owned exclusively by its Sig; the driver may still
// mutate fields between parse and emission.
type Param struct {
	Direction Direction

	// Name is the variable identifier, one of the synthetic names
	// THIS/CLASS/RETVAL, or the literal placeholder "SV *".
	Name string

	// ArgNum is the 1-based index into the caller-supplied argument list;
	// 0 for OUTLIST results and length() pseudo-parameters, which consume
	// no caller slot.
	ArgNum int

	// Default is the default expression, valid when HasDefault is set.
	// DefaultUsage is its pre-rendered usage-message form.
	Default      string
	DefaultUsage string
	HasDefault   bool

	// Provenance and behavior flags
	IsTyped     bool   // a type or length() appeared in the signature
	NoInit      bool   // declaration only, no initializer
	LengthOf    string // non-empty: this is a length(LengthOf) pseudo-parameter
	IsAddr      bool   // pass by address in the native call
	IsAlien     bool   // declared in an INPUT block without appearing in the signature
	IsSynthetic bool   // THIS/CLASS prepended, or RETVAL before full promotion

	// Type is the resolved C type string. For RETVAL it may be refined
	// after construction (see RetvalState).
	Type string

	// Override code fragments bypassing typemap lookup. At emission time
	// at most one of InitOverride / NoInit may be in effect.
	InitOverride     string
	HasInitOverride  bool
	DeferredOverride string

	// State set by the INPUT/OUTPUT processing pass
	InInputBlock  bool
	InOutputBlock bool
	SetMagic      bool
	OutputCode    string

	// ProtoChar is the cached prototype override pulled from the matching
	// typemap entry by Check; empty means the default "$".
	ProtoChar string

	Retval RetvalState
}

// Kind implements Node
func (p *Param) Kind() string { return "param" }

// LengthCounterName is the synthesized variable bound to a length()
// pseudo-parameter. It is what gets declared with the user's type and what
// the native call receives.
func (p *Param) LengthCounterName() string {
	return "XSauto_length_of_" + p.LengthOf
}

// RawLengthName is the name of the raw marshalled-length sibling variable
// declared alongside a length() pseudo-parameter.
func (p *Param) RawLengthName() string {
	return "STRLEN_length_of_" + p.LengthOf
}

// IsPlaceholderSV reports whether this is the backward-compatibility "SV *"
// placeholder parameter: it consumes a slot but has no name or type and is
// rejected if used as a native call argument.
func (p *Param) IsPlaceholderSV() bool {
	return p.Name == "SV *"
}

// Check performs the typemap-derived prototype lookup for this parameter,
// caching the entry's prototype character on the node. Parameters without a
// resolvable type keep the default prototype.
func (p *Param) Check(dict typemap.Dictionary) {
	if p.Type == "" {
		return
	}
	if entry, ok := dict.LookupByCType(p.Type); ok && entry.Proto != "" {
		p.ProtoChar = entry.Proto
	}
}

// SetInitOverride installs an explicit initializer template from an INPUT
// line, bypassing typemap lookup at emission time.
func (p *Param) SetInitOverride(code string) {
	p.InitOverride = code
	p.HasInitOverride = true
	p.NoInit = false
}

// PromoteRetvalReal gives RETVAL an explicit type, completing its lifecycle.
// The synthetic flags clear and it behaves like an ordinary parameter.
func (p *Param) PromoteRetvalReal(ctype string) error {
	next, err := promoteRetval(p.Retval, RetvalReal)
	if err != nil {
		return err
	}
	p.Retval = next
	p.Type = ctype
	p.IsSynthetic = false
	p.NoInit = false
	return nil
}

// promoteRetvalSemiReal moves the held-aside synthetic RETVAL to its
// signature-declared position. The type stays deferred.
func (p *Param) promoteRetvalSemiReal() error {
	next, err := promoteRetval(p.Retval, RetvalSemiReal)
	if err != nil {
		return err
	}
	p.Retval = next
	return nil
}

// ValidateInitInvariant enforces that at most one of InitOverride / NoInit
// is in effect at emission time. Violations are a bug in the core, not a
// problem with the input.
func (p *Param) ValidateInitInvariant() error {
	if p.HasInitOverride && p.NoInit {
		return errors.AssertionFailedf(
			"parameter '%s' has both an init override and no_init set", p.Name)
	}
	return nil
}
