package typemap

// Builtin returns the builtin dictionary covering the classic core type
// associations and their INPUT templates. User typemap files layer over it.
func Builtin() *Map {
	m := NewMap()

	for _, e := range builtinEntries {
		m.AddEntry(e.ctype, e.xstype, e.proto)
	}
	for tag, code := range builtinInputs {
		m.AddInputTemplate(tag, code)
	}
	return m
}

var builtinEntries = []struct {
	ctype  string
	xstype string
	proto  string
}{
	{"int", "T_IV", ""},
	{"long", "T_IV", ""},
	{"short", "T_IV", ""},
	{"IV", "T_IV", ""},
	{"ssize_t", "T_IV", ""},
	{"unsigned", "T_UV", ""},
	{"unsigned int", "T_UV", ""},
	{"unsigned long", "T_UV", ""},
	{"unsigned short", "T_UV", ""},
	{"UV", "T_UV", ""},
	{"size_t", "T_UV", ""},
	{"STRLEN", "T_UV", ""},
	{"char", "T_CHAR", ""},
	{"unsigned char", "T_U_CHAR", ""},
	{"bool", "T_BOOL", ""},
	{"float", "T_FLOAT", ""},
	{"double", "T_DOUBLE", ""},
	{"NV", "T_NV", ""},
	{"time_t", "T_NV", ""},
	{"char *", "T_PV", ""},
	{"const char *", "T_PV", ""},
	{"unsigned char *", "T_PV", ""},
	{"caddr_t", "T_PV", ""},
	{"void *", "T_PTR", ""},
	{"SV *", "T_SV", ""},
	{"SVREF", "T_SVREF", ""},
	{"AV *", "T_AVREF", "@"},
	{"HV *", "T_HVREF", "%"},
	{"CV *", "T_CVREF", "&"},
}

// builtinInputs holds the INPUT templates keyed by xstype tag. The template
// bodies must stay byte-compatible with the classic typemap code fragments,
// since downstream typemap files splice against them.
var builtinInputs = map[string]string{
	"T_SV": "$var = $arg",

	"T_SVREF": `STMT_START {
	SV* const xsub_tmp_sv = $arg;
	SvGETMAGIC(xsub_tmp_sv);
	if (SvROK(xsub_tmp_sv)){
	    $var = SvRV(xsub_tmp_sv);
	}
	else{
	    Perl_croak(aTHX_ "%s: %s is not a reference",
			"$pname", "$var");
	}
} STMT_END`,

	"T_AVREF": `STMT_START {
	SV* const xsub_tmp_sv = $arg;
	SvGETMAGIC(xsub_tmp_sv);
	if (SvROK(xsub_tmp_sv) && SvTYPE(SvRV(xsub_tmp_sv)) == SVt_PVAV){
	    $var = (AV*)SvRV(xsub_tmp_sv);
	}
	else{
	    Perl_croak(aTHX_ "%s: %s is not an ARRAY reference",
			"$pname", "$var");
	}
} STMT_END`,

	"T_HVREF": `STMT_START {
	SV* const xsub_tmp_sv = $arg;
	SvGETMAGIC(xsub_tmp_sv);
	if (SvROK(xsub_tmp_sv) && SvTYPE(SvRV(xsub_tmp_sv)) == SVt_PVHV){
	    $var = (HV*)SvRV(xsub_tmp_sv);
	}
	else{
	    Perl_croak(aTHX_ "%s: %s is not a HASH reference",
			"$pname", "$var");
	}
} STMT_END`,

	"T_CVREF": `STMT_START {
	HV *st;
	GV *gvp;
	SV* const xsub_tmp_sv = $arg;
	SvGETMAGIC(xsub_tmp_sv);
	$var = sv_2cv(xsub_tmp_sv, &st, &gvp, 0);
	if (!$var) {
	    Perl_croak(aTHX_ "%s: %s is not a CODE reference",
			"$pname", "$var");
	}
} STMT_END`,

	"T_IV":     "$var = ($type)SvIV($arg)",
	"T_UV":     "$var = ($type)SvUV($arg)",
	"T_NV":     "$var = ($type)SvNV($arg)",
	"T_DOUBLE": "$var = (double)SvNV($arg)",
	"T_FLOAT":  "$var = (float)SvNV($arg)",
	"T_CHAR":   "$var = (char)*SvPV_nolen($arg)",
	"T_U_CHAR": "$var = (unsigned char)SvUV($arg)",
	"T_BOOL":   "$var = (bool)SvTRUE($arg)",
	"T_PV":     "$var = ($type)SvPV_nolen($arg)",
	"T_ENUM":   "$var = ($type)SvIV($arg)",

	"T_PTR": "$var = INT2PTR($type,SvIV($arg))",

	"T_PTRREF": `if (SvROK($arg)) {
	IV tmp = SvIV((SV*)SvRV($arg));
	$var = INT2PTR($type,tmp);
}
else
	Perl_croak(aTHX_ "%s: %s is not a reference",
			"$pname", "$var")`,

	"T_PTROBJ": `if (SvROK($arg) && sv_derived_from($arg, "$ntype")) {
	IV tmp = SvIV((SV*)SvRV($arg));
	$var = INT2PTR($type,tmp);
}
else
	Perl_croak(aTHX_ "%s: %s is not of type %s",
			"$pname", "$var", "$ntype")`,

	"T_OPAQUEPTR": "$var = ($type)SvPV_nolen($arg)",

	"T_ARRAY": `U32 ix_$var = $argoff;
$var = $ntype(items -= $argoff);
while (items--) {
	DO_ARRAY_ELEM;
	ix_$var++;
}`,
}
