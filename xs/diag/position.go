package diag

// Position represents a line/column position in source text.
// Uses LSP conventions: 1-based line numbers, 0-based character offsets.
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based character offset within line
	Offset    int `json:"offset"`    // 0-based byte offset in entire source
}

// Range represents a source span from start to end position
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// PositionTracker maintains line/column/offset state while scanning source
// text. Signature text is a single logical line (continuations are normalized
// to spaces before parsing), but embedded newlines in defaults are tracked
// anyway.
type PositionTracker struct {
	source    string
	line      int // 1-based
	character int // 0-based within line
	offset    int // 0-based in source
}

// NewPositionTracker creates a tracker starting at the beginning of source
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{
		source: source,
		line:   1,
	}
}

// AdvanceBytes advances by n bytes
func (pt *PositionTracker) AdvanceBytes(n int) {
	for i := 0; i < n && pt.offset < len(pt.source); i++ {
		if pt.source[pt.offset] == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
		pt.offset++
	}
}

// Mark returns the current position snapshot
func (pt *PositionTracker) Mark() Position {
	return Position{
		Line:      pt.line,
		Character: pt.character,
		Offset:    pt.offset,
	}
}

// RangeFromPositions creates a range from two positions
func RangeFromPositions(start, end Position) Range {
	return Range{Start: start, End: end}
}
