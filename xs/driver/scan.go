package driver

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/glueforge/xsgen/xs/diag"
)

// Unit is one scanned XSUB block, raw text only: section contents are kept
// line-by-line and interpreted by the INPUT/OUTPUT pass and the assembler.
type Unit struct {
	Module  string
	Package string
	Prefix  string

	ReturnType string
	DeclName   string // name as written, possibly Class::sub
	PerlName   string // full runtime name the XSUB registers under
	CName      string // native function called, prefix stripped
	SigText    string // parenthesized signature text, continuations normalized

	InputLines  []string
	CodeLines   []string
	OutputLines []string
	CArgs       string
	HasCArgs    bool

	Line int // 1-based line of the return-type line
}

// scanFile is the result of scanning one XS source file
type scanFile struct {
	Preamble []string // verbatim C text before the first MODULE line
	Units    []*Unit
}

var moduleRe = regexp.MustCompile(
	`^MODULE\s*=\s*(\S+)(?:\s+PACKAGE\s*=\s*(\S+))?(?:\s+PREFIX\s*=\s*(\S+))?\s*$`)

var sectionRe = regexp.MustCompile(`^\s*(INPUT|CODE|OUTPUT|C_ARGS)\s*:\s*$`)

// xsubNameRe splits the "name(signature" opening line of an XSUB
var xsubNameRe = regexp.MustCompile(`^(\S+?)\s*\((.*)$`)

// scan reads an XS-format source into preamble text plus XSUB units. Scan
// errors are reported through rep and skip to the next recognizable block.
func scan(r io.Reader, name string, rep *diag.Reporter) *scanFile {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	f := &scanFile{}
	var module, pkg, prefix string
	i := 0

	// Everything before the first MODULE line passes through verbatim
	for i < len(lines) && !moduleRe.MatchString(lines[i]) {
		f.Preamble = append(f.Preamble, lines[i])
		i++
	}

	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if m := moduleRe.FindStringSubmatch(line); m != nil {
			module = m[1]
			pkg = m[2]
			if pkg == "" {
				pkg = module
			}
			prefix = m[3]
			i++
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		// A non-indented line after the MODULE header opens an XSUB: the
		// return type, then the name(signature) line.
		if isIndented(line) {
			rep.Blurt(diag.Newf(diag.KindSyntax,
				"unexpected indented line outside an XSUB block").
				WithFragment(trimmed))
			i++
			continue
		}

		u := &Unit{
			Module:     module,
			Package:    pkg,
			Prefix:     prefix,
			ReturnType: trimmed,
			Line:       i + 1,
		}
		i++
		i = scanXSUB(lines, i, u, rep)
		if u.PerlName != "" {
			f.Units = append(f.Units, u)
		}
	}

	return f
}

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// scanXSUB consumes the name(signature) line (with continuations) and the
// indented body of one XSUB, returning the index of the first unconsumed
// line.
func scanXSUB(lines []string, i int, u *Unit, rep *diag.Reporter) int {
	if i >= len(lines) {
		rep.Blurt(diag.Newf(diag.KindSyntax,
			"expected XSUB name after return type '%s'", u.ReturnType))
		return i
	}

	m := xsubNameRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
	if m == nil {
		rep.Blurt(diag.Newf(diag.KindSyntax,
			"expected 'name(signature)' after return type '%s'", u.ReturnType).
			WithFragment(strings.TrimSpace(lines[i])))
		return i + 1
	}
	name, rest := m[1], m[2]

	// The signature may span lines; continuation text joins with single
	// spaces so the tokenizer sees one blob.
	sigText, ok := strings.CutSuffix(strings.TrimSpace(rest), ")")
	for !ok {
		i++
		if i >= len(lines) {
			rep.Blurt(diag.Newf(diag.KindSyntax,
				"unterminated signature for XSUB '%s'", name))
			return i
		}
		more := strings.TrimSpace(lines[i])
		joined := strings.TrimSpace(sigText + " " + more)
		sigText, ok = strings.CutSuffix(joined, ")")
	}
	i++

	u.SigText = strings.TrimSpace(sigText)
	u.DeclName = name

	// A "Class::sub" declared name marks a method; the runtime name keeps
	// the class, otherwise it lives under the current package. PREFIX
	// strips from the runtime name only: the native call still uses the
	// name as written.
	base := name
	class := ""
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		class = name[:idx]
		base = name[idx+2:]
	}
	sub := base
	if u.Prefix != "" {
		sub = strings.TrimPrefix(base, u.Prefix)
	}
	if class != "" {
		u.PerlName = class + "::" + sub
	} else {
		u.PerlName = u.Package + "::" + sub
	}
	u.CName = base

	// Body: indented lines and section labels, up to the next blank-then-
	// non-indented boundary. The implicit leading section is INPUT.
	section := "INPUT"
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			// Blank line ends the unit unless a section label follows
			if i+1 < len(lines) && sectionRe.MatchString(lines[i+1]) {
				i++
				continue
			}
			return i + 1
		}
		if !isIndented(line) && !sectionRe.MatchString(line) {
			return i
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			section = m[1]
			i++
			continue
		}

		switch section {
		case "INPUT":
			u.InputLines = append(u.InputLines, trimmed)
		case "CODE":
			u.CodeLines = append(u.CodeLines, line)
		case "OUTPUT":
			u.OutputLines = append(u.OutputLines, trimmed)
		case "C_ARGS":
			u.CArgs = trimmed
			u.HasCArgs = true
		}
		i++
	}
	return i
}
