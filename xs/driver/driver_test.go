package driver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/sig"
	"github.com/glueforge/xsgen/xs/typemap"
)

func allFeatures() sig.Features {
	return sig.Features{AllowArgTypes: true, AllowInOut: true}
}

func compile(t *testing.T, dict typemap.Dictionary, src string) (string, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter(diag.ContextPlain)
	d := New(Options{Flags: allFeatures(), Dict: dict, RunID: "test-run"}, rep)
	var out bytes.Buffer
	require.NoError(t, d.Compile(strings.NewReader(src), "test.xs", &out))
	return out.String(), rep
}

func TestScan(t *testing.T) {
	src := `#include "EXTERN.h"
#include "perl.h"

MODULE = Math::Frob  PACKAGE = Math::Frob

int
add(int a, int b = 5)

void
greet(s)
	char *	s

MODULE = Math::Frob  PACKAGE = Math::Frob  PREFIX = frob_

double
frob_scale(double x)
`
	rep := diag.NewReporter(diag.ContextPlain)
	f := scan(strings.NewReader(src), "test.xs", rep)
	require.False(t, rep.Failed(), "%v", rep.Format())

	assert.Equal(t, []string{`#include "EXTERN.h"`, `#include "perl.h"`, ""}, f.Preamble)
	require.Len(t, f.Units, 3)

	add := f.Units[0]
	assert.Equal(t, "int", add.ReturnType)
	assert.Equal(t, "Math::Frob::add", add.PerlName)
	assert.Equal(t, "add", add.CName)
	assert.Equal(t, "int a, int b = 5", add.SigText)
	assert.Empty(t, add.InputLines)

	greet := f.Units[1]
	assert.Equal(t, "s", greet.SigText)
	assert.Equal(t, []string{"char *\ts"}, greet.InputLines)

	scale := f.Units[2]
	assert.Equal(t, "Math::Frob::scale", scale.PerlName)
	assert.Equal(t, "frob_scale", scale.CName)
}

func TestScanContinuationLines(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

void
f(int a,
		int b,
		int c)
`
	rep := diag.NewReporter(diag.ContextPlain)
	f := scan(strings.NewReader(src), "test.xs", rep)
	require.False(t, rep.Failed())
	require.Len(t, f.Units, 1)
	assert.Equal(t, "int a, int b, int c", f.Units[0].SigText)
}

func TestScanSections(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

int
twice(int x)
    CODE:
	RETVAL = x * 2;
    OUTPUT:
	RETVAL
`
	rep := diag.NewReporter(diag.ContextPlain)
	f := scan(strings.NewReader(src), "test.xs", rep)
	require.False(t, rep.Failed())
	require.Len(t, f.Units, 1)
	u := f.Units[0]
	assert.Equal(t, []string{"\tRETVAL = x * 2;"}, u.CodeLines)
	assert.Equal(t, []string{"RETVAL"}, u.OutputLines)
}

func TestCompileFunction(t *testing.T) {
	src := `MODULE = Math::Frob  PACKAGE = Math::Frob

int
add(int a, int b = 5)
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())

	assert.Contains(t, out, "XS_EUPXS(XS_Math__Frob__add)")
	assert.Contains(t, out, "if (items < 1 || items > 2)\n       croak_xs_usage(cv,  \"a, b = 5\");")
	assert.Contains(t, out, "\tint\ta = (int)SvIV(ST(0));\n\tint\tb;\n\tint\tRETVAL;\n")
	// Deferred default runs after all declarations
	assert.Contains(t, out, "\tif (items < 2)\n\t    b = 5;\n\telse {\n\t    b = (int)SvIV(ST(1));\n\t}\n")
	assert.Contains(t, out, "\tRETVAL = add(a, b);")
	assert.Contains(t, out, "\tST(0) = sv_newmortal();\n\tsv_setiv(ST(0), (IV)RETVAL);")
	assert.Contains(t, out, "XSRETURN(1);")
	assert.Contains(t, out, `newXSproto_portable("Math::Frob::add", XS_Math__Frob__add, file, "$;$");`)
	assert.Contains(t, out, "run test-run")

	declPos := strings.Index(out, "\tint\tb;")
	deferPos := strings.Index(out, "\tif (items < 2)")
	callPos := strings.Index(out, "\tRETVAL = add(")
	assert.True(t, declPos < deferPos && deferPos < callPos)
}

func TestCompileLengthParameter(t *testing.T) {
	src := `MODULE = Str  PACKAGE = Str

void
greet(char *s, int length(s))
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())

	assert.Contains(t, out, "if (items != 1)\n       croak_xs_usage(cv,  \"s\");")
	assert.Contains(t, out, "\tchar *\ts;\n")
	assert.Contains(t, out, "\tSTRLEN\tSTRLEN_length_of_s;")
	assert.Contains(t, out, "\tint\tXSauto_length_of_s;")
	assert.Contains(t, out, "\ts = (char *)SvPV(ST(0), STRLEN_length_of_s);")
	assert.Contains(t, out, "\tXSauto_length_of_s = STRLEN_length_of_s;")
	assert.Contains(t, out, "\tgreet(s, XSauto_length_of_s);")
	assert.Contains(t, out, "XSRETURN_EMPTY;")

	// Every declaration precedes the deferred extraction and the counter copy
	declPos := strings.Index(out, "\tSTRLEN\tSTRLEN_length_of_s;")
	usePos := strings.Index(out, "SvPV(ST(0), STRLEN_length_of_s)")
	copyPos := strings.Index(out, "\tXSauto_length_of_s = STRLEN_length_of_s;")
	assert.True(t, declPos >= 0 && declPos < usePos && usePos < copyPos)
}

func TestCompileCodeAndOutputSections(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

int
twice(int x)
    CODE:
	RETVAL = x * 2;
    OUTPUT:
	RETVAL
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())
	assert.Contains(t, out, "\tRETVAL = x * 2;")
	assert.NotContains(t, out, "twice(x)")
	assert.Contains(t, out, "\tsv_setiv(ST(0), (IV)RETVAL);")
}

func TestCompileInputBlock(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

void
frob(s)
	char *	s
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())
	assert.Contains(t, out, "\tchar *\ts = (char *)SvPV_nolen(ST(0));")
	assert.Contains(t, out, "\tfrob(s);")
}

func TestCompileMethods(t *testing.T) {
	dict := typemap.Builtin()
	dict.AddEntry("Widget *", "T_PTROBJ", "")
	src := `MODULE = Widget  PACKAGE = Widget

Widget *
Widget::new(int size)

void
Widget::DESTROY()
`
	out, rep := compile(t, dict, src)
	assert.False(t, rep.Failed(), "%v", rep.Format())

	// Constructor: CLASS in slot 1, object RETVAL blessed on output
	assert.Contains(t, out, "XS_EUPXS(XS_Widget__new)")
	assert.Contains(t, out, "croak_xs_usage(cv,  \"CLASS, size\");")
	assert.Contains(t, out, "\tchar *\tCLASS = (char *)SvPV_nolen(ST(0));")
	assert.Contains(t, out, "\tRETVAL = new(size);")
	assert.Contains(t, out, `sv_setref_pv(ST(0), "WidgetPtr", (void*)RETVAL);`)

	// Destructor: THIS unpacks without the derived-from class check
	assert.Contains(t, out, "XS_EUPXS(XS_Widget__DESTROY)")
	assert.Contains(t, out, "THIS = INT2PTR(Widget *,tmp);")
	assert.NotContains(t, out, "sv_derived_from")
	assert.Contains(t, out, "\tDESTROY();")
}

func TestCompileOutParameter(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

void
fetch(OUT int result)
    OUTPUT:
	result
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())
	assert.Contains(t, out, "\tint\tresult;")
	assert.Contains(t, out, "\tfetch(&result);")
	assert.Contains(t, out, "\tsv_setiv(ST(0), (IV)result);")
	assert.Contains(t, out, "\tSvSETMAGIC(ST(0));")
}

func TestCompileCArgsOverride(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

void
poke(int a)
    C_ARGS:
	a, global_state
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())
	assert.Contains(t, out, "\tpoke(a, global_state);")
}

func TestCompileBoot(t *testing.T) {
	src := `MODULE = Foo  PACKAGE = Foo

void
f(int a)

void
g(int a, ...)
`
	out, rep := compile(t, typemap.Builtin(), src)
	assert.False(t, rep.Failed(), "%v", rep.Format())
	assert.Contains(t, out, "XS_EXTERNAL(boot_Foo)")
	assert.Contains(t, out, `newXSproto_portable("Foo::f", XS_Foo__f, file, "$");`)
	assert.Contains(t, out, `newXSproto_portable("Foo::g", XS_Foo__g, file, "$;@");`)
}

func TestApplyInput(t *testing.T) {
	s := sig.New(sig.XSUBMeta{Name: "f", ReturnType: "int"}, allFeatures())
	rep := diag.NewReporter(diag.ContextPlain)
	s.Parse("a, b", rep)

	applyInput(s, []string{
		"int\ta",
		"char *\tb = my_pv($arg)",
		"int\tRETVAL",
		"long\tscratch = NO_INIT",
	}, rep)
	require.False(t, rep.Failed(), "%v", rep.Format())

	a, _ := s.LookupParam("a")
	assert.Equal(t, "int", a.Type)
	assert.True(t, a.InInputBlock)

	b, _ := s.LookupParam("b")
	assert.Equal(t, "char *", b.Type)
	assert.True(t, b.HasInitOverride)
	assert.Equal(t, "my_pv($arg)", b.InitOverride)

	// RETVAL typed in INPUT completes its promotion
	rv, _ := s.LookupParam("RETVAL")
	assert.Equal(t, sig.RetvalReal, rv.Retval)
	assert.Equal(t, "int", rv.Type)

	scratch, _ := s.LookupParam("scratch")
	assert.True(t, scratch.IsAlien)
	assert.True(t, scratch.NoInit)

	t.Run("duplicate INPUT line errors", func(t *testing.T) {
		applyInput(s, []string{"int\ta"}, rep)
		assert.True(t, rep.Failed())
	})
}

func TestApplyOutput(t *testing.T) {
	s := sig.New(sig.XSUBMeta{Name: "f", ReturnType: "void"}, allFeatures())
	rep := diag.NewReporter(diag.ContextPlain)
	s.Parse("int a, int b, int c", rep)

	applyOutput(s, []string{
		"a",
		"SETMAGIC: DISABLE",
		"b",
		"SETMAGIC: ENABLE",
		"c\tsv_setiv(ST(2), (IV)c);",
	}, rep)
	require.False(t, rep.Failed(), "%v", rep.Format())

	a, _ := s.LookupParam("a")
	assert.True(t, a.InOutputBlock)
	assert.True(t, a.SetMagic)

	b, _ := s.LookupParam("b")
	assert.True(t, b.InOutputBlock)
	assert.False(t, b.SetMagic)

	c, _ := s.LookupParam("c")
	assert.Equal(t, "sv_setiv(ST(2), (IV)c);", c.OutputCode)

	t.Run("unknown name errors", func(t *testing.T) {
		applyOutput(s, []string{"nope"}, rep)
		assert.True(t, rep.Failed())
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "foo.c", OutputPath("foo.xs"))
	assert.Equal(t, "dir/bar.c", OutputPath("dir/bar.xs"))
}
