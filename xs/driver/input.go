package driver

import (
	"regexp"
	"strings"

	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/sig"
)

// inputLineRe splits an INPUT line into type, name, and an optional
// initializer clause.
var inputLineRe = regexp.MustCompile(`^(.*?)\s*\b(\w+)(?:\s*=\s*(.*?))?\s*;?\s*$`)

// applyInput runs the INPUT pass: each line refines a signature parameter
// (type, init override, no-init) or declares an alien local. A semi-real
// RETVAL gaining a type here completes its promotion.
func applyInput(s *sig.Sig, lines []string, rep *diag.Reporter) {
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := inputLineRe.FindStringSubmatch(line)
		if m == nil {
			rep.Blurt(diag.Newf(diag.KindSyntax,
				"unparseable INPUT line").
				WithXSUB(s.Meta.Name).WithFragment(line))
			continue
		}
		ctype, name, init := strings.TrimSpace(m[1]), m[2], m[3]

		p, ok := s.LookupParam(name)
		if !ok {
			if ctype == "" {
				rep.Blurt(diag.Newf(diag.KindSemantic,
					"INPUT line for unknown parameter '%s' has no type", name).
					WithXSUB(s.Meta.Name))
				continue
			}
			p = s.AddAlienParam(name, ctype)
		} else if p.InInputBlock {
			rep.Blurt(diag.Newf(diag.KindSemantic,
				"duplicate INPUT line for parameter '%s'", name).
				WithXSUB(s.Meta.Name))
			continue
		}
		p.InInputBlock = true

		if ctype != "" {
			switch p.Retval {
			case sig.RetvalSynthetic, sig.RetvalSemiReal:
				if err := p.PromoteRetvalReal(ctype); err != nil {
					rep.Blurt(diag.Newf(diag.KindInternal, "%v", err).
						WithXSUB(s.Meta.Name))
					continue
				}
			default:
				p.Type = ctype
			}
		}

		switch {
		case init == "":
		case init == "NO_INIT":
			p.NoInit = true
		default:
			p.SetInitOverride(init)
		}
	}
}

// applyOutput runs the OUTPUT pass: each line names a parameter returned to
// the caller, optionally with explicit output code. SETMAGIC lines toggle
// magic for the lines that follow.
func applyOutput(s *sig.Sig, lines []string, rep *diag.Reporter) {
	setMagic := true
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "SETMAGIC:") {
			switch strings.TrimSpace(strings.TrimPrefix(line, "SETMAGIC:")) {
			case "ENABLE":
				setMagic = true
			case "DISABLE":
				setMagic = false
			default:
				rep.Blurt(diag.Newf(diag.KindSyntax,
					"SETMAGIC line must say ENABLE or DISABLE").
					WithXSUB(s.Meta.Name).WithFragment(line))
			}
			continue
		}

		name := line
		var code string
		if idx := strings.IndexAny(line, " \t"); idx > 0 {
			name, code = line[:idx], strings.TrimSpace(line[idx:])
		}

		p, ok := s.LookupParam(name)
		if !ok {
			rep.Blurt(diag.Newf(diag.KindSemantic,
				"OUTPUT line for unknown parameter '%s'", name).
				WithXSUB(s.Meta.Name))
			continue
		}
		if p.InOutputBlock {
			rep.Blurt(diag.Newf(diag.KindSemantic,
				"duplicate OUTPUT line for parameter '%s'", name).
				WithXSUB(s.Meta.Name))
			continue
		}
		p.InOutputBlock = true
		p.SetMagic = setMagic
		p.OutputCode = code
	}
}
