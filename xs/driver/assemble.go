package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/emit"
	"github.com/glueforge/xsgen/xs/sig"
	"github.com/glueforge/xsgen/xs/typemap"
)

// outputTemplates maps xstype tags to the code setting an output SV from a
// native value. The output side mirrors the classic typemap fragments for
// the common tags; anything else needs explicit code on the OUTPUT line.
var outputTemplates = map[string]string{
	"T_IV":     "sv_setiv($arg, (IV)$var);",
	"T_UV":     "sv_setuv($arg, (UV)$var);",
	"T_NV":     "sv_setnv($arg, (NV)$var);",
	"T_DOUBLE": "sv_setnv($arg, (double)$var);",
	"T_FLOAT":  "sv_setnv($arg, (double)$var);",
	"T_BOOL":   "sv_setsv($arg, boolSV($var));",
	"T_CHAR":   "sv_setpvn($arg, (char *)&$var, 1);",
	"T_U_CHAR": "sv_setuv($arg, (UV)$var);",
	"T_ENUM":   "sv_setiv($arg, (IV)$var);",
	"T_PV":     "sv_setpv((SV*)$arg, $var);",
	"T_PTR":    "sv_setiv($arg, PTR2IV($var));",
	"T_SV":     "$arg = $var;",
	"T_PTROBJ": `sv_setref_pv($arg, "$ntype", (void*)$var);`,
	"T_PTRREF": "sv_setref_pv($arg, (char *)NULL, (void*)$var);",
}

// metaFor derives the XSUB metadata the signature parser needs from one
// scanned unit.
func metaFor(u *Unit) sig.XSUBMeta {
	meta := sig.XSUBMeta{
		Name:       u.PerlName,
		ReturnType: u.ReturnType,
	}
	if idx := strings.LastIndex(u.DeclName, "::"); idx >= 0 {
		meta.IsMethod = true
		meta.Class = u.DeclName[:idx]
		meta.IsStatic = u.DeclName[idx+2:] == "new"
	}
	return meta
}

// cFuncName flattens a runtime name into the generated C function name
func cFuncName(perlName string) string {
	return "XS_" + strings.ReplaceAll(perlName, ":", "_")
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// assembleUnit compiles one XSUB: parse, directive passes, usage check,
// declarations, deferred flush, native call, outputs, boot registration.
func (d *Driver) assembleUnit(w io.Writer, u *Unit, boot *[]string) error {
	meta := metaFor(u)
	s := sig.New(meta, d.opts.Flags)
	s.Parse(u.SigText, d.rep)

	applyInput(s, u.InputLines, d.rep)
	applyOutput(s, u.OutputLines, d.rep)
	if u.HasCArgs {
		s.CallArgsOverride = u.CArgs
		s.HasCallArgsOverride = true
	}
	s.Check(d.opts.Dict)

	fname := cFuncName(meta.Name)
	fmt.Fprintf(w, "\nXS_EUPXS(%s); /* prototype to pass -Wmissing-prototypes */\n", fname)
	fmt.Fprintf(w, "XS_EUPXS(%s)\n{\n    dVAR; dXSARGS;\n", fname)

	d.writeUsageCheck(w, s)

	fmt.Fprintf(w, "    {\n")
	ctx := emit.NewContext(emit.Config{Dict: d.opts.Dict, HierType: d.opts.Flags.HierType}, w)
	for _, p := range s.Params {
		if err := ctx.EmitParam(s, p, d.rep); err != nil {
			return err
		}
	}

	if ctx.ScopeEnabled() {
		fmt.Fprintf(w, "\tENTER;\n")
	}

	// The deferred buffer flushes exactly once, after all declarations
	ctx.FlushDeferred()

	returnsValue := strings.TrimSpace(meta.ReturnType) != "" &&
		strings.TrimSpace(meta.ReturnType) != "void"

	if len(u.CodeLines) > 0 {
		for _, line := range u.CodeLines {
			fmt.Fprintln(w, line)
		}
	} else {
		args := s.NativeCallArgs(d.rep)
		if returnsValue {
			fmt.Fprintf(w, "\n\tRETVAL = %s(%s);\n", u.CName, args)
		} else {
			fmt.Fprintf(w, "\n\t%s(%s);\n", u.CName, args)
		}
	}

	d.writeOutputs(w, s, returnsValue)

	if ctx.ScopeEnabled() {
		fmt.Fprintf(w, "\tLEAVE;\n")
	}

	fmt.Fprintf(w, "    }\n")
	if returnsValue {
		fmt.Fprintf(w, "    XSRETURN(1);\n")
	} else {
		fmt.Fprintf(w, "    XSRETURN_EMPTY;\n")
	}
	fmt.Fprintf(w, "}\n")

	*boot = append(*boot, fmt.Sprintf(
		`        newXSproto_portable("%s", %s, file, "%s");`,
		meta.Name, fname, s.ProtoString()))
	return nil
}

// writeUsageCheck emits the items-count guard and croak for one unit
func (d *Driver) writeUsageCheck(w io.Writer, s *sig.Sig) {
	usage := escapeQuotes(s.UsageString())
	switch {
	case s.SeenEllipsis:
		if s.MinArgs == 0 {
			return
		}
		fmt.Fprintf(w, "    if (items < %d)\n", s.MinArgs)
	case s.MinArgs == s.NumArgs:
		fmt.Fprintf(w, "    if (items != %d)\n", s.NumArgs)
	default:
		fmt.Fprintf(w, "    if (items < %d || items > %d)\n", s.MinArgs, s.NumArgs)
	}
	fmt.Fprintf(w, "       croak_xs_usage(cv,  \"%s\");\n", usage)
}

// writeOutputs emits the output-side assignments: OUTPUT-block parameters
// write back into their caller slots, then RETVAL lands in ST(0).
func (d *Driver) writeOutputs(w io.Writer, s *sig.Sig, returnsValue bool) {
	for _, p := range s.Params {
		if !p.InOutputBlock || p.Name == "RETVAL" {
			continue
		}
		if p.OutputCode != "" {
			fmt.Fprintf(w, "\t%s\n", p.OutputCode)
			continue
		}
		if p.ArgNum == 0 {
			d.rep.Blurt(diag.Newf(diag.KindSemantic,
				"OUTPUT parameter '%s' has no caller slot to write back to", p.Name).
				WithXSUB(s.Meta.Name))
			continue
		}
		target := fmt.Sprintf("ST(%d)", p.ArgNum-1)
		if !d.writeOutputExpr(w, s, p, p.Type, p.Name, target) {
			continue
		}
		if p.SetMagic {
			fmt.Fprintf(w, "\tSvSETMAGIC(%s);\n", target)
		}
	}

	if !returnsValue {
		return
	}
	rv, ok := s.LookupParam("RETVAL")
	if !ok {
		return
	}
	if rv.OutputCode != "" {
		fmt.Fprintf(w, "\t%s\n", rv.OutputCode)
		return
	}
	fmt.Fprintf(w, "\tST(0) = sv_newmortal();\n")
	d.writeOutputExpr(w, s, rv, rv.Type, "RETVAL", "ST(0)")
}

// writeOutputExpr renders one output-template assignment; false means no
// template exists and an error was reported.
func (d *Driver) writeOutputExpr(w io.Writer, s *sig.Sig, p *sig.Param, ctype, name, target string) bool {
	ctype = typemap.TidyType(ctype)
	entry, ok := d.opts.Dict.LookupByCType(ctype)
	if !ok {
		d.rep.Blurt(diag.Newf(diag.KindTypemap,
			"could not find a typemap for C type '%s'", ctype).
			WithXSUB(s.Meta.Name).
			WithUnderlying(errors.WrapNoTypemap(ctype)))
		return false
	}
	raw, ok := outputTemplates[entry.XSType]
	if !ok {
		d.rep.Blurt(diag.Newf(diag.KindTypemap,
			"no OUTPUT definition for type '%s', typekind '%s'", ctype, entry.XSType).
			WithXSUB(s.Meta.Name))
		return false
	}

	cfg := emit.Config{HierType: d.opts.Flags.HierType}
	typ := cfg.MapType(ctype)
	expr := typemap.NewTemplate(raw).Expand(typemap.Binding{
		"var":   name,
		"arg":   target,
		"type":  typ,
		"ntype": emit.NtypeOf(typ),
		"pname": s.Meta.Name,
	})
	fmt.Fprintf(w, "\t%s\n", expr)
	return true
}

// writeBoot emits the module boot function registering every compiled XSUB
func (d *Driver) writeBoot(w io.Writer, module string, boot []string) {
	bootName := "boot_" + strings.ReplaceAll(module, ":", "_")
	fmt.Fprintf(w, "\n#ifdef __cplusplus\nextern \"C\"\n#endif\n")
	fmt.Fprintf(w, "XS_EXTERNAL(%s); /* prototype to pass -Wmissing-prototypes */\n", bootName)
	fmt.Fprintf(w, "XS_EXTERNAL(%s)\n{\n", bootName)
	fmt.Fprintf(w, "    dVAR; dXSARGS;\n")
	for _, line := range boot {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "    XSRETURN_YES;\n}\n")
}
