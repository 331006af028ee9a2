package sig

import (
	"strings"

	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/xs/diag"
)

// XSUBMeta carries the metadata the driver knows about one XSUB before its
// signature is parsed.
type XSUBMeta struct {
	Name       string // full subroutine name, e.g. "Foo::frob"
	ReturnType string // declared C return type, "" or "void" for none
	IsMethod   bool   // receives an invocant
	IsStatic   bool   // static or constructor: the invocant arrives as CLASS
	Class      string // enclosing class name, if any
}

// Features are the feature flags of the calling context
type Features struct {
	AllowArgTypes bool // argument-type annotations allowed in signatures
	AllowInOut    bool // IN/OUT direction annotations allowed
	HierType      bool // keep hierarchical type names instead of flattening
}

// Sig is the full parameter set of one XSUB (or one CASE-clause re-parse).
// It is transient: created once per unit and discarded after code
// generation.
type Sig struct {
	// RawText is the original signature text, continuation markers already
	// normalized to spaces.
	RawText string

	// Params is the ordered parameter list: left-to-right signature order
	// with THIS/CLASS prepended and RETVAL appended when applicable.
	Params []*Param

	// ByName indexes parameters by unique name
	ByName map[string]*Param

	SeenEllipsis bool

	// NumArgs is the number of caller-supplied argument slots; MinArgs is
	// NumArgs minus the count of defaulted parameters.
	NumArgs int
	MinArgs int

	// CallArgsOverride optionally replaces the computed native call
	// argument list.
	CallArgsOverride    string
	HasCallArgsOverride bool

	Meta  XSUBMeta
	Flags Features

	optCount int
	nextArg  int
}

// Kind implements Node
func (s *Sig) Kind() string { return "sig" }

// New creates an empty Sig for one XSUB
func New(meta XSUBMeta, flags Features) *Sig {
	return &Sig{
		ByName: make(map[string]*Param),
		Meta:   meta,
		Flags:  flags,
	}
}

// hasReturnValue reports whether the XSUB's declared return type produces a
// RETVAL parameter.
func (s *Sig) hasReturnValue() bool {
	rt := strings.TrimSpace(s.Meta.ReturnType)
	return rt != "" && rt != "void"
}

// Parse splits raw signature text into parameters and populates the node
// graph. Recoverable problems are reported through rep and skip the
// offending fragment; parsing continues so one run reports every error.
//
// Re-running Parse on a fresh Sig with the same text and flags produces a
// structurally identical graph.
func (s *Sig) Parse(raw string, rep *diag.Reporter) {
	s.RawText = raw

	// The invocant occupies slot 1 for methods. Constructors and statics
	// receive the class name instead of an object.
	if s.Meta.IsMethod {
		name, ctype := "THIS", tidyOrEmpty(s.Meta.Class)+" *"
		if s.Meta.IsStatic {
			name, ctype = "CLASS", "char *"
		}
		invocant := &Param{
			Name:        name,
			Type:        ctype,
			ArgNum:      1,
			IsSynthetic: true,
		}
		s.Params = append(s.Params, invocant)
		s.ByName[name] = invocant
		s.nextArg = 1
	}

	// The synthetic RETVAL is created up front but held aside: if the
	// signature mentions RETVAL it is promoted into the declared position,
	// otherwise it is appended after all real parameters.
	var retval *Param
	if s.hasReturnValue() {
		retval = &Param{
			Name:        "RETVAL",
			Type:        s.Meta.ReturnType,
			NoInit:      true,
			IsSynthetic: true,
			Retval:      RetvalSynthetic,
		}
		s.ByName["RETVAL"] = retval
	}

	fragments, fallback := SplitParams(raw)
	if fallback {
		rep.Warn(diag.Newf(diag.KindSyntax,
			"cannot parse parameter list '%s', falling back to split on commas", raw).
			WithXSUB(s.Meta.Name))
	}

	tracker := diag.NewPositionTracker(raw)
	cursor := 0
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		rng := fragmentRange(tracker, raw, &cursor, fragment)
		if fragment == "..." {
			s.SeenEllipsis = true
			continue
		}
		if s.SeenEllipsis {
			rep.Blurt(withSpan(diag.Newf(diag.KindSyntax,
				"further XSUB parameter seen after ellipsis (...)").
				WithXSUB(s.Meta.Name).WithFragment(fragment), rng))
			continue
		}
		s.parseFragment(fragment, rng, rep)
	}

	// RETVAL never promoted: append the fully-synthetic entry
	if retval != nil && retval.Retval == RetvalSynthetic {
		s.Params = append(s.Params, retval)
	}

	s.NumArgs = s.nextArg
	s.MinArgs = s.NumArgs - s.optCount
}

// parseFragment decomposes one parameter fragment and applies the
// post-decomposition policy in order.
func (s *Sig) parseFragment(fragment string, rng *diag.Range, rep *diag.Reporter) {
	// Backward-compatibility placeholder: an unnamed SV* parameter that
	// consumes a slot. It is rejected later if used as a call argument.
	if isPlaceholderSV(fragment) {
		s.nextArg++
		p := &Param{Name: "SV *", ArgNum: s.nextArg}
		s.Params = append(s.Params, p)
		return
	}

	d, ok := decomposeParam(fragment)
	if !ok {
		rep.Blurt(withSpan(diag.Newf(diag.KindSyntax,
			"unparseable XSUB parameter: '%s'", fragment).
			WithXSUB(s.Meta.Name).
			WithUnderlying(errors.ErrUnparseableParameter), rng))
		return
	}

	p := &Param{}

	// 1. A direction modifier requires IN/OUT support in this context
	if d.direction != "" {
		if !s.Flags.AllowInOut {
			rep.Blurt(withSpan(diag.Newf(diag.KindSemantic,
				"parameter IN/OUT modifier not allowed under -noinout").
				WithXSUB(s.Meta.Name).WithFragment(fragment).
				WithUnderlying(errors.ErrNotSupported), rng))
		} else {
			p.Direction, _ = ParseDirection(d.direction)
		}
	}

	// 2. A type annotation requires argument-type support
	if d.ctype != "" {
		if !s.Flags.AllowArgTypes {
			rep.Blurt(withSpan(diag.Newf(diag.KindSemantic,
				"parameter type not allowed under -noargtypes").
				WithXSUB(s.Meta.Name).WithFragment(fragment).
				WithUnderlying(errors.ErrNotSupported), rng))
			d.ctype = ""
		} else {
			p.Type = d.ctype
		}
	}

	// 3. length() requires argument-type support and forbids a default
	if d.lengthOf != "" {
		if !s.Flags.AllowArgTypes {
			rep.Blurt(withSpan(diag.Newf(diag.KindSemantic,
				"length() pseudo-parameter not allowed under -noargtypes").
				WithXSUB(s.Meta.Name).WithFragment(fragment).
				WithUnderlying(errors.ErrNotSupported), rng))
			return
		}
		if d.hasDef {
			rep.Blurt(diag.Newf(diag.KindSemantic,
				"default value not allowed on length() parameter '%s'", d.lengthOf).
				WithXSUB(s.Meta.Name))
			d.hasDef = false
		}
		p.LengthOf = d.lengthOf
		p.Name = "length(" + d.lengthOf + ")"
	} else {
		p.Name = d.name
	}

	// 4. Type or length marks the parameter as typed-in-signature
	if d.ctype != "" || d.lengthOf != "" {
		p.IsTyped = true
	}
	if d.lengthOf != "" {
		p.NoInit = true
	}

	// 5. OUT-prefixed directions receive no initializer
	if p.Direction.StartsWithOut() {
		p.NoInit = true
	}

	// 6. A default expression marks the parameter optional. The usage
	// rendering preserves the historical spacing around '=' only when no
	// type annotation precedes the name.
	if d.hasDef {
		p.Default = d.def
		p.HasDefault = true
		if p.IsTyped {
			p.DefaultUsage = " = " + d.def
		} else {
			p.DefaultUsage = d.ws1 + "=" + d.ws2 + d.def
		}
	}

	// Duplicate names error out, with one exception: a held-aside synthetic
	// RETVAL is promoted into this position instead. A rejected duplicate
	// must not count toward the optional-argument total.
	if existing, dup := s.ByName[p.Name]; dup {
		if existing.Retval == RetvalSynthetic && existing.ArgNum == 0 {
			s.promoteRetvalInPlace(existing, p, d, rep)
			return
		}
		rep.Blurt(withSpan(diag.Newf(diag.KindSemantic,
			"duplicate definition of argument '%s' ignored", p.Name).
			WithXSUB(s.Meta.Name).
			WithUnderlying(errors.ErrDuplicateParameter), rng))
		return
	}
	if p.HasDefault {
		s.optCount++
	}

	// 7. OUTLIST results and length() pseudo-parameters consume no slot
	if p.Direction != DirOutlist && p.LengthOf == "" {
		s.nextArg++
		p.ArgNum = s.nextArg
	}

	s.Params = append(s.Params, p)
	s.ByName[p.Name] = p
}

// promoteRetvalInPlace applies the synthetic RETVAL promotion transition:
// the held-aside entry takes the signature-declared position and slot. With
// an explicit type it becomes real immediately; otherwise it stays
// semi-real with the type deferred to the return type or an INPUT line.
func (s *Sig) promoteRetvalInPlace(retval *Param, parsed *Param, d decomposed, rep *diag.Reporter) {
	if parsed.Direction != DirOutlist {
		s.nextArg++
		retval.ArgNum = s.nextArg
	}
	retval.Direction = parsed.Direction
	retval.IsTyped = parsed.IsTyped
	if parsed.HasDefault {
		retval.Default = parsed.Default
		retval.DefaultUsage = parsed.DefaultUsage
		retval.HasDefault = true
		s.optCount++
	}

	var err error
	if d.ctype != "" {
		err = retval.PromoteRetvalReal(d.ctype)
	} else {
		err = retval.promoteRetvalSemiReal()
	}
	if err != nil {
		// Transition table violation: a bug in the core
		rep.Death(diag.Newf(diag.KindInternal, "%v", err).WithXSUB(s.Meta.Name))
		return
	}
	s.Params = append(s.Params, retval)
}

// LookupParam returns the parameter with the given name, as used by the
// INPUT/OUTPUT processing pass to mutate parse results.
func (s *Sig) LookupParam(name string) (*Param, bool) {
	p, ok := s.ByName[name]
	return p, ok
}

// LengthSibling returns the length() pseudo-parameter bound to the named
// parameter, if the signature declares one.
func (s *Sig) LengthSibling(name string) (*Param, bool) {
	for _, p := range s.Params {
		if p.LengthOf == name {
			return p, true
		}
	}
	return nil, false
}

// AddAlienParam registers a parameter declared in an INPUT block without
// appearing in the signature. It consumes no caller slot.
func (s *Sig) AddAlienParam(name, ctype string) *Param {
	p := &Param{
		Name:    name,
		Type:    ctype,
		IsAlien: true,
		NoInit:  true,
	}
	s.Params = append(s.Params, p)
	s.ByName[name] = p
	return p
}

func tidyOrEmpty(class string) string {
	return strings.TrimSpace(class)
}

// fragmentRange locates a trimmed fragment inside the raw signature text and
// returns its source span. Fragments arrive in signature order, so the scan
// resumes at the previous fragment's end; nil means the fragment could not
// be located (possible after the naive-split fallback).
func fragmentRange(tracker *diag.PositionTracker, raw string, cursor *int, fragment string) *diag.Range {
	idx := strings.Index(raw[*cursor:], fragment)
	if idx < 0 {
		return nil
	}
	tracker.AdvanceBytes(*cursor + idx - tracker.Mark().Offset)
	start := tracker.Mark()
	tracker.AdvanceBytes(len(fragment))
	end := tracker.Mark()
	*cursor = end.Offset
	rng := diag.RangeFromPositions(start, end)
	return &rng
}

func withSpan(d *diag.Diag, rng *diag.Range) *diag.Diag {
	if rng != nil {
		return d.WithRange(*rng)
	}
	return d
}
