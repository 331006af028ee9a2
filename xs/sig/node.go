// Package sig implements the typed node model for one XSUB signature: the
// per-parameter node, the signature node that owns the ordered parameter
// list, the bracket/quote-aware signature tokenizer, and the per-parameter
// decomposer. Code emission for parsed nodes lives in xs/emit.
package sig

import "github.com/glueforge/xsgen/errors"

// Node is implemented by every signature-model node. Fields are explicit
// struct members, so an illegal field access is a compile error rather than
// a runtime check.
type Node interface {
	Kind() string
}

// Direction is a parameter's IN/OUT modifier from the signature or an
// INPUT line.
type Direction int

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirOutlist
	DirInOut
	DirInOutlist
)

var directionNames = map[Direction]string{
	DirNone:      "",
	DirIn:        "IN",
	DirOut:       "OUT",
	DirOutlist:   "OUTLIST",
	DirInOut:     "IN_OUT",
	DirInOutlist: "IN_OUTLIST",
}

// ParseDirection maps a direction keyword to its Direction value
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "":
		return DirNone, true
	case "IN":
		return DirIn, true
	case "OUT":
		return DirOut, true
	case "OUTLIST":
		return DirOutlist, true
	case "IN_OUT":
		return DirInOut, true
	case "IN_OUTLIST":
		return DirInOutlist, true
	}
	return DirNone, false
}

func (d Direction) String() string {
	return directionNames[d]
}

// IsOutbound reports whether the direction contains an OUT component, which
// makes the parameter be passed by address to the native call.
func (d Direction) IsOutbound() bool {
	return d == DirOut || d == DirOutlist || d == DirInOut || d == DirInOutlist
}

// StartsWithOut reports whether the direction keyword itself begins with
// "OUT" (OUT and OUTLIST). Such parameters receive no initializer; they are
// populated by the native call.
func (d Direction) StartsWithOut() bool {
	return d == DirOut || d == DirOutlist
}

// RetvalState is the finite-state lifecycle of the RETVAL parameter.
// Transitions are one-directional: Synthetic -> SemiReal -> Real.
type RetvalState int

const (
	// NotRetval marks an ordinary parameter
	NotRetval RetvalState = iota
	// RetvalSynthetic marks the RETVAL entry inserted automatically for a
	// non-void return type when RETVAL was absent from the signature text
	RetvalSynthetic
	// RetvalSemiReal marks RETVAL written in the signature without an
	// explicit type; it holds a position (and possibly a slot) but its type
	// is still deferred to the return type or a later INPUT line
	RetvalSemiReal
	// RetvalReal marks RETVAL with an explicit type; it behaves like any
	// ordinary parameter
	RetvalReal
)

func (s RetvalState) String() string {
	switch s {
	case RetvalSynthetic:
		return "synthetic"
	case RetvalSemiReal:
		return "semi-real"
	case RetvalReal:
		return "real"
	default:
		return "not-retval"
	}
}

// promoteRetval validates and applies a RETVAL state transition.
// Only synthetic -> semi-real, synthetic -> real, and semi-real -> real are
// legal; anything else is a bug in the caller.
func promoteRetval(from, to RetvalState) (RetvalState, error) {
	legal := (from == RetvalSynthetic && (to == RetvalSemiReal || to == RetvalReal)) ||
		(from == RetvalSemiReal && to == RetvalReal)
	if !legal {
		return from, errors.AssertionFailedf(
			"illegal RETVAL transition %s -> %s", from, to)
	}
	return to, nil
}
