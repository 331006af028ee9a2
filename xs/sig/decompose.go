package sig

import (
	"regexp"
	"strings"
)

// paramRe decomposes one trimmed parameter fragment into direction, type,
// name and default. The type prefix is lazy so the name token binds as late
// as possible; the name is either a bare identifier or length( identifier );
// the whitespace around a default's '=' is captured separately so its
// historical spacing can be preserved in usage messages.
var paramRe = regexp.MustCompile(
	`^(?:(IN_OUTLIST|IN_OUT|OUTLIST|OUT|IN)\b\s*)?` + // 1: direction
		`(.*?)` + // 2: type prefix, lazy
		`\s*` +
		`\b(\w+|length\(\s*\w+\s*\))` + // 3: name or length(name)
		`((\s*)=(\s*)(.*?))?` + // 4-7: default clause
		`\s*$`)

// placeholderSVRe matches the backward-compatibility "SV *" placeholder
// fragment.
var placeholderSVRe = regexp.MustCompile(`^\s*SV\s*\*\s*$`)

var lengthNameRe = regexp.MustCompile(`^length\(\s*(\w+)\s*\)$`)

// decomposed is the raw result of matching one parameter fragment, before
// the post-decomposition policy runs.
type decomposed struct {
	direction string // raw keyword, "" if absent
	ctype     string // raw type prefix, "" if absent
	name      string // identifier or "length( ident )" form
	ws1, ws2  string // whitespace around '=' in the default
	def       string
	hasDef    bool
	lengthOf  string // non-empty when name is a length() pseudo-parameter
}

// decomposeParam matches one trimmed, non-ellipsis fragment against the
// parameter grammar. ok=false means the fragment is unparseable (the SV*
// placeholder is handled by the caller).
func decomposeParam(fragment string) (decomposed, bool) {
	m := paramRe.FindStringSubmatch(fragment)
	if m == nil {
		return decomposed{}, false
	}
	d := decomposed{
		direction: m[1],
		ctype:     strings.TrimSpace(m[2]),
		name:      m[3],
		// The clause group is non-empty iff an '=' was present
		hasDef: m[4] != "",
		ws1:    m[5],
		ws2:    m[6],
		def:    m[7],
	}
	if lm := lengthNameRe.FindStringSubmatch(d.name); lm != nil {
		d.lengthOf = lm[1]
	}
	return d, true
}

// isPlaceholderSV reports whether the fragment is exactly the "SV *"
// placeholder.
func isPlaceholderSV(fragment string) bool {
	return placeholderSVRe.MatchString(fragment)
}
