package sig

import (
	"strings"

	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/typemap"
)

// UsageString renders the caller-facing argument summary used in the
// generated "Usage: ..." croak. Only slot-consuming parameters appear, in
// slot order, each with its pre-rendered default clause.
func (s *Sig) UsageString() string {
	var names []string
	for _, p := range s.Params {
		if p.ArgNum == 0 {
			continue
		}
		names = append(names, p.Name+p.DefaultUsage)
	}
	usage := strings.Join(names, ", ")
	if s.SeenEllipsis {
		if usage != "" {
			usage += ", "
		}
		usage += "..."
	}
	return usage
}

// NativeCallArgs renders the comma-separated argument list for the
// autogenerated call to the wrapped native function. The explicit override
// from a C_ARGS directive wins outright.
//
// Synthetic entries that the native function never receives are skipped:
// the invocant and a RETVAL that only exists because of the return type.
// length() pseudo-parameters pass their synthesized counter variable, and
// outbound parameters pass by address.
func (s *Sig) NativeCallArgs(rep *diag.Reporter) string {
	if s.HasCallArgsOverride {
		return s.CallArgsOverride
	}

	var args []string
	for _, p := range s.Params {
		switch {
		case p.IsSynthetic && (p.Name == "THIS" || p.Name == "CLASS"):
			continue
		case p.Retval == RetvalSynthetic:
			continue
		case p.IsAlien:
			continue
		case p.IsPlaceholderSV():
			rep.Blurt(diag.Newf(diag.KindSemantic,
				"cannot use anonymous 'SV *' parameter as a C function argument").
				WithXSUB(s.Meta.Name))
			continue
		case p.LengthOf != "":
			args = append(args, p.LengthCounterName())
			continue
		case p.ArgNum == 0 && p.Direction != DirOutlist:
			continue
		}

		arg := p.Name
		if p.IsAddr || p.Direction.IsOutbound() {
			arg = "&" + arg
		}
		args = append(args, arg)
	}
	return strings.Join(args, ", ")
}

// ProtoString renders the Perl prototype for this signature: one character
// per caller slot (the typemap's override or "$"), a ";" before the first
// optional slot, and "@" when the signature is variadic.
func (s *Sig) ProtoString() string {
	chars := make([]string, s.NumArgs)
	for _, p := range s.Params {
		if p.ArgNum == 0 {
			continue
		}
		c := p.ProtoChar
		if c == "" {
			c = "$"
		}
		chars[p.ArgNum-1] = c
	}
	for i, c := range chars {
		// Slots can stay unfilled if a blurt skipped their parameter
		if c == "" {
			chars[i] = "$"
		}
	}

	var b strings.Builder
	sep := false
	for i, c := range chars {
		if i == s.MinArgs && s.MinArgs < s.NumArgs {
			b.WriteString(";")
			sep = true
		}
		b.WriteString(c)
	}
	if s.SeenEllipsis {
		if !sep {
			b.WriteString(";")
		}
		b.WriteString("@")
	}
	return b.String()
}

// Check runs the per-parameter typemap prototype lookup across the whole
// signature. Call it after INPUT processing so refined types are seen.
func (s *Sig) Check(dict typemap.Dictionary) {
	for _, p := range s.Params {
		p.Check(dict)
	}
}
