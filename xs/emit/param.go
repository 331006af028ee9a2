package emit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/glueforge/xsgen/errors"
	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/sig"
	"github.com/glueforge/xsgen/xs/typemap"
)

// noInitSentinel is the default expression meaning "leave uninitialized
// unless the caller supplied the argument".
const noInitSentinel = "NO_INIT"

// varAssignRe matches a template that syntactically begins with "$var =",
// the shape eligible for inline assignment on the declaration line.
var varAssignRe = regexp.MustCompile(`^\s*\$var\s*=`)

// notOfRe rewrites the class-check croak message of an element template so
// the reported argument number points at the failing element.
var notOfRe = regexp.MustCompile(`is not of (.*")`)

// EmitParam writes the declaration and initializer for one parameter,
// appending to the unit's deferred buffer where the emission shape requires
// it. Missing typemap entries are reported through rep and skip the
// parameter; a non-nil return is an internal invariant violation and aborts
// the unit.
func (c *Context) EmitParam(sg *sig.Sig, p *sig.Param, rep *diag.Reporter) error {
	// The anonymous placeholder consumes a slot but declares nothing
	if p.IsPlaceholderSV() {
		return nil
	}

	if err := p.ValidateInitInvariant(); err != nil {
		return rep.Death(diag.Newf(diag.KindInternal, "%v", err).WithXSUB(sg.Meta.Name))
	}

	// A length() pseudo-parameter declares two extra variables: the raw
	// marshalled length, filled in by the string parameter's extraction
	// code, and the counter in the user-declared type, copied over after
	// all declarations. The rest of this function declares the counter.
	name := p.Name
	if p.LengthOf != "" {
		c.writef("\tSTRLEN\t%s;\n", p.RawLengthName())
		c.Defer(fmt.Sprintf("\t%s = %s;\n", p.LengthCounterName(), p.RawLengthName()))
		name = p.LengthCounterName()
	}

	ctype := p.Type
	if ctype == "" {
		rep.Blurt(diag.Newf(diag.KindSemantic,
			"no type supplied for parameter '%s'", p.Name).
			WithXSUB(sg.Meta.Name))
		return nil
	}
	ctype = typemap.TidyType(ctype)

	if p.NoInit {
		c.writeDecl(p, ctype, name)
		c.emitDeferredOverride(p, sg, ctype, name)
		return nil
	}

	var raw string
	if p.HasInitOverride {
		raw = "$var = " + p.InitOverride
	} else {
		entry, ok := c.cfg.Dict.LookupByCType(ctype)
		if !ok {
			rep.Blurt(diag.Newf(diag.KindTypemap,
				"could not find a typemap for C type '%s'", ctype).
				WithXSUB(sg.Meta.Name).
				WithUnderlying(errors.WrapNoTypemap(ctype)))
			return nil
		}
		xstype := entry.XSType

		// A destructor's invocant cannot be of the wrong class, so the
		// derived-from check of the object typemap is dropped.
		if strings.HasSuffix(sg.Meta.Name, "DESTROY") && xstype == "T_PTROBJ" {
			xstype = "T_PTRREF"
		}

		// A string parameter with a length() sibling bypasses its template:
		// the extraction must capture the byte length as a side effect.
		if xstype == "T_PV" {
			if lp, ok := sg.LengthSibling(p.Name); ok {
				return c.emitLengthAwareString(sg, p, lp, ctype, rep)
			}
		}

		tmpl, ok := c.cfg.Dict.LookupInputTemplate(xstype)
		if !ok {
			rep.Blurt(diag.Newf(diag.KindTypemap,
				"no INPUT definition for type '%s', typekind '%s'", ctype, xstype).
				WithXSUB(sg.Meta.Name).
				WithUnderlying(errors.WrapNoInputTemplate(xstype)))
			return nil
		}
		raw = tmpl.Raw()
	}

	b := c.binding(sg, p, ctype, name)

	if strings.Contains(raw, typemap.ArrayElemMarker) {
		spliced, err := c.spliceArrayElem(sg, raw, b, name, rep)
		if err != nil {
			return err
		}
		if spliced == "" {
			return nil
		}
		raw = spliced
	}

	if typemap.NewTemplate(raw).HasScopeComment() {
		c.scopeEnabled = true
	}

	expr := typemap.NewTemplate(raw).Expand(b)

	switch {
	case p.HasDefault && !p.HasInitOverride:
		c.writeDecl(p, ctype, name)
		if p.Default == noInitSentinel {
			c.Defer(fmt.Sprintf("\tif (items >= %d) {\n\t    %s;\n\t}\n",
				p.ArgNum, expr))
		} else {
			c.Defer(fmt.Sprintf("\tif (items < %d)\n\t    %s = %s;\n\telse {\n\t    %s;\n\t}\n",
				p.ArgNum, name, p.Default, expr))
		}

	case c.scopeEnabled || !varAssignRe.MatchString(raw):
		c.writeDecl(p, ctype, name)
		c.Defer("\n\t" + expr + ";\n")

	default:
		rhs, ok := stripVarAssign(expr, name)
		if !ok {
			return rep.Death(diag.Newf(diag.KindInternal,
				"initializer template for '%s' does not begin with '%s ='", p.Name, name).
				WithXSUB(sg.Meta.Name))
		}
		c.writeInit(p, ctype, name, rhs)
	}

	c.emitDeferredOverride(p, sg, ctype, name)
	return nil
}

// binding supplies the placeholder values for this parameter's templates
func (c *Context) binding(sg *sig.Sig, p *sig.Param, ctype, name string) typemap.Binding {
	argoff := p.ArgNum - 1
	typ := c.cfg.MapType(ctype)
	ntype := NtypeOf(typ)
	return typemap.Binding{
		"var":     name,
		"type":    typ,
		"ntype":   ntype,
		"subtype": subtypeOf(ntype),
		"num":     strconv.Itoa(p.ArgNum),
		"arg":     fmt.Sprintf("ST(%d)", argoff),
		"argoff":  strconv.Itoa(argoff),
		"pname":   sg.Meta.Name,
	}
}

// writeDecl emits a declaration with no initializer
func (c *Context) writeDecl(p *sig.Param, ctype, name string) {
	if HasFnPtr(ctype) {
		c.writef("\t%s;\n", EmbedName(c.declType(p, ctype), name))
		return
	}
	c.writef("\t%s\t%s;\n", c.declType(p, ctype), name)
}

// writeInit emits a declaration with an inline initializer
func (c *Context) writeInit(p *sig.Param, ctype, name, rhs string) {
	if HasFnPtr(ctype) {
		c.writef("\t%s = %s;\n", EmbedName(c.declType(p, ctype), name), rhs)
		return
	}
	c.writef("\t%s\t%s = %s;\n", c.declType(p, ctype), name, rhs)
}

// declType picks the declaration-position rendering of the type. The CLASS
// invocant prints its bare declared type; everything else goes through the
// identifier-safe mapping.
func (c *Context) declType(p *sig.Param, ctype string) string {
	if p.Name == "CLASS" {
		return ctype
	}
	return c.cfg.MapType(ctype)
}

// emitLengthAwareString hard-emits the extraction for a string parameter
// whose byte length feeds a length() sibling. The extraction defers: it
// fills the raw length variable declared with the sibling, which may appear
// later in the declaration block.
func (c *Context) emitLengthAwareString(sg *sig.Sig, p *sig.Param, lp *sig.Param, ctype string, rep *diag.Reporter) error {
	if p.HasDefault {
		return rep.Death(diag.Newf(diag.KindInternal,
			"default value not supported for string parameter '%s' with a length() sibling", p.Name).
			WithXSUB(sg.Meta.Name))
	}
	c.writeDecl(p, ctype, p.Name)
	c.Defer(fmt.Sprintf("\n\t%s = (%s)SvPV(ST(%d), %s);\n",
		p.Name, c.cfg.MapType(ctype), p.ArgNum-1, lp.RawLengthName()))
	c.emitDeferredOverride(p, sg, ctype, p.Name)
	return nil
}

// spliceArrayElem resolves the element type of an array template and
// substitutes its adjusted INPUT code for the marker. The substitution is
// textual, against the raw template, so the result stays byte-compatible
// with the classic typemap fragments.
func (c *Context) spliceArrayElem(sg *sig.Sig, raw string, b typemap.Binding, name string, rep *diag.Reporter) (string, error) {
	subtype := b["subtype"]
	entry, ok := c.cfg.Dict.LookupByCType(subtype)
	if !ok {
		rep.Blurt(diag.Newf(diag.KindTypemap,
			"could not find a typemap for array element type '%s'", subtype).
			WithXSUB(sg.Meta.Name).
			WithUnderlying(errors.WrapNoTypemap(subtype)))
		return "", nil
	}
	tmpl, ok := c.cfg.Dict.LookupInputTemplate(entry.XSType)
	if !ok {
		rep.Blurt(diag.Newf(diag.KindTypemap,
			"no INPUT definition for array element type '%s', typekind '%s'", subtype, entry.XSType).
			WithXSUB(sg.Meta.Name).
			WithUnderlying(errors.WrapNoInputTemplate(entry.XSType)))
		return "", nil
	}

	sub := tmpl.Raw()
	sub = strings.ReplaceAll(sub, "$type", "$subtype")
	sub = strings.ReplaceAll(sub, "ntype", "subtype")
	sub = strings.ReplaceAll(sub, "$arg", fmt.Sprintf("ST(ix_%s)", name))
	sub = strings.ReplaceAll(sub, "\n\t", "\n\t\t")
	sub = notOfRe.ReplaceAllString(sub,
		fmt.Sprintf("[arg %%d] is not of ${1},\n\t\t\tix_%s + 1", name))
	sub = strings.Replace(sub, "$var",
		fmt.Sprintf("%s[ix_%s - %s]", name, name, b["argoff"]), 1)

	return strings.Replace(raw, typemap.ArrayElemMarker, sub, 1), nil
}

// emitDeferredOverride appends the parameter's extra deferred fragment, if
// any, after every other emission for the parameter.
func (c *Context) emitDeferredOverride(p *sig.Param, sg *sig.Sig, ctype, name string) {
	if p.DeferredOverride == "" {
		return
	}
	expr := typemap.NewTemplate(p.DeferredOverride).Expand(c.binding(sg, p, ctype, name))
	c.Defer("\n\t" + expr + ";\n")
}

// stripVarAssign removes the leading "name =" from an expanded initializer
// expression, returning the right-hand side.
func stripVarAssign(expr, name string) (string, bool) {
	s := strings.TrimLeft(expr, " \t\n")
	if !strings.HasPrefix(s, name) {
		return "", false
	}
	s = strings.TrimLeft(s[len(name):], " \t")
	if !strings.HasPrefix(s, "=") {
		return "", false
	}
	return strings.TrimLeft(s[1:], " \t"), true
}
