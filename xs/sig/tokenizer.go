package sig

import "strings"

// SplitParams splits raw signature text into parameter substrings on
// top-level commas only. Commas nested inside bracket groups, inside
// double-quoted strings (with backslash escapes), or inside single-quoted
// char literals are not split points.
//
// If the balanced-token grammar cannot match the full text, SplitParams
// falls back to a naive comma split with surrounding whitespace trimmed and
// reports fallback=true; callers emit a warning for that path. It indicates
// defective signature text, not a supported feature.
//
// Empty signature text yields zero fragments.
func SplitParams(text string) (fragments []string, fallback bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	if frags, ok := splitBalanced(text); ok {
		return frags, false
	}

	parts := strings.Split(text, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

func isOpener(c byte) bool {
	return c == '(' || c == '{' || c == '['
}

func isCloser(c byte) bool {
	return c == ')' || c == '}' || c == ']'
}

// splitBalanced scans the whole text as a sequence of parameters separated
// by top-level commas. It fails (ok=false) on a stray top-level closer or
// an unterminated group, string, or char literal.
func splitBalanced(text string) ([]string, bool) {
	var frags []string
	i, start := 0, 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == ',':
			frags = append(frags, text[start:i])
			i++
			start = i
		case isOpener(c):
			end, ok := scanGroup(text, i)
			if !ok {
				return nil, false
			}
			i = end
		case isCloser(c):
			return nil, false
		case c == '"':
			end, ok := scanQuoted(text, i, '"')
			if !ok {
				return nil, false
			}
			i = end
		case c == '\'':
			end, ok := scanQuoted(text, i, '\'')
			if !ok {
				return nil, false
			}
			i = end
		default:
			i++
		}
	}
	frags = append(frags, text[start:])
	return frags, true
}

// scanGroup consumes a bracket group starting at the opener at i and
// returns the index just past its closer. Matching is deliberately lenient:
// any closer matches any opener. Downstream consumers may depend on this for
// pathological inputs, so it stays a quirk rather than strict pairing.
func scanGroup(text string, i int) (int, bool) {
	i++ // consume the opener
	for i < len(text) {
		c := text[i]
		switch {
		case isOpener(c):
			end, ok := scanGroup(text, i)
			if !ok {
				return 0, false
			}
			i = end
		case isCloser(c):
			return i + 1, true
		case c == '"':
			end, ok := scanQuoted(text, i, '"')
			if !ok {
				return 0, false
			}
			i = end
		case c == '\'':
			end, ok := scanQuoted(text, i, '\'')
			if !ok {
				return 0, false
			}
			i = end
		default:
			i++
		}
	}
	return 0, false
}

// scanQuoted consumes a quoted run starting at the quote at i and returns
// the index just past the closing quote. Backslash escapes the next byte.
func scanQuoted(text string, i int, quote byte) (int, bool) {
	i++ // consume the opening quote
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1, true
		default:
			i++
		}
	}
	return 0, false
}
