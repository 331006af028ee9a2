package typemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTidyType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"char  *", "char *"},
		{"char*", "char *"},
		{"int**", "int **"},
		{"int * *", "int **"},
		{"  unsigned   long  ", "unsigned long"},
		{"struct tm *", "struct tm *"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TidyType(tt.in), "TidyType(%q)", tt.in)
	}
}

func TestBuiltinLookups(t *testing.T) {
	m := Builtin()

	e, ok := m.LookupByCType("char*")
	require.True(t, ok)
	assert.Equal(t, "T_PV", e.XSType)

	e, ok = m.LookupByCType("AV *")
	require.True(t, ok)
	assert.Equal(t, "T_AVREF", e.XSType)
	assert.Equal(t, "@", e.Proto)

	tmpl, ok := m.LookupInputTemplate("T_IV")
	require.True(t, ok)
	got := tmpl.Expand(Binding{"var": "count", "type": "int", "arg": "ST(0)"})
	assert.Equal(t, "count = (int)SvIV(ST(0))", got)

	_, ok = m.LookupByCType("no_such_type")
	assert.False(t, ok)
}

func TestTemplateExpansion(t *testing.T) {
	tmpl := NewTemplate(`$var = ($type)decode($arg, "$pname")`)
	got := tmpl.Expand(Binding{
		"var":   "x",
		"type":  "foo_t",
		"arg":   "ST(2)",
		"pname": "Foo::frob",
	})
	assert.Equal(t, `x = (foo_t)decode(ST(2), "Foo::frob")`, got)
}

func TestTemplatePlaceholderDisambiguation(t *testing.T) {
	// $subtype must not be read as $sub + "type", $argoff not as $arg + "off"
	tmpl := NewTemplate("$subtype $argoff $ntype $num")
	got := tmpl.Expand(Binding{
		"subtype": "S", "argoff": "O", "ntype": "N", "num": "3",
		"type": "WRONG", "arg": "WRONG",
	})
	assert.Equal(t, "S O N 3", got)
}

func TestTemplateUnknownDollarIsLiteral(t *testing.T) {
	tmpl := NewTemplate("$var = $unknown + $$var")
	got := tmpl.Expand(Binding{"var": "x"})
	assert.Equal(t, "x = $unknown + $x", got)
}

func TestTemplateMarkers(t *testing.T) {
	m := Builtin()
	arr, ok := m.LookupInputTemplate("T_ARRAY")
	require.True(t, ok)
	assert.True(t, arr.HasArrayElem())

	iv, _ := m.LookupInputTemplate("T_IV")
	assert.False(t, iv.HasArrayElem())
	assert.False(t, iv.HasScopeComment())

	scoped := NewTemplate("/* Needs SCOPE handling */\n$var = f($arg)")
	assert.True(t, scoped.HasScopeComment())
}

func TestLoadFileLayersOverBuiltin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typemap.toml")
	content := `
format = "1.2.0"

[types."obj_t *"]
xstype = "T_PTROBJ"

[types."char *"]
xstype = "T_CUSTOM_PV"

[inputmap.T_CUSTOM_PV]
code = "$var = custom_pv($arg)"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := Builtin()
	require.NoError(t, LoadFile(m, path))

	e, ok := m.LookupByCType("obj_t*")
	require.True(t, ok)
	assert.Equal(t, "T_PTROBJ", e.XSType)

	// User file shadows the builtin char * association
	e, ok = m.LookupByCType("char *")
	require.True(t, ok)
	assert.Equal(t, "T_CUSTOM_PV", e.XSType)

	tmpl, ok := m.LookupInputTemplate("T_CUSTOM_PV")
	require.True(t, ok)
	assert.Equal(t, "x = custom_pv(ST(0))", tmpl.Expand(Binding{"var": "x", "arg": "ST(0)"}))
}

func TestLoadFileRejectsBadFormat(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"missing.toml":     "[types.\"x\"]\nxstype = \"T_IV\"\n",
		"unsupported.toml": "format = \"2.0.0\"\n",
		"invalid.toml":     "format = \"not-a-version\"\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		assert.Error(t, LoadFile(Builtin(), path), name)
	}
}
