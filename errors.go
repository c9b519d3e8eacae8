package ecskern

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// InvalidHandleError reports use of an Entity or Archetype handle whose
// version no longer matches the live slot (stale or destroyed).
type InvalidHandleError struct {
	Op string
}

func (e *InvalidHandleError) Error() string {
	return fmt.Sprintf("ecskern: %s: invalid handle", e.Op)
}

// MissingComponentError reports Get[T] against an entity whose archetype
// does not carry T.
type MissingComponentError struct {
	Op   string
	Type string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("ecskern: %s: entity has no component %s", e.Op, e.Type)
}

// CapacityOverflowError reports a directory or column growth that could
// not allocate. It is not recovered anywhere in the core; it propagates.
type CapacityOverflowError struct {
	Op     string
	Reason string
}

func (e *CapacityOverflowError) Error() string {
	return fmt.Sprintf("ecskern: %s: capacity overflow: %s", e.Op, e.Reason)
}

// FrameworkInvariantError reports an internal consistency violation — a
// bug in this package, never a reachable user error. Constructing one
// always results in a panic (see the framework helper below).
type FrameworkInvariantError struct {
	Reason string
}

func (e *FrameworkInvariantError) Error() string {
	return fmt.Sprintf("ecskern: internal invariant violated: %s", e.Reason)
}

// framework builds a FrameworkInvariantError already wrapped with a stack
// trace, ready to hand to panic. Every FrameworkInvariant-class failure in
// this package goes through here so traces are consistent.
func framework(reason string) error {
	return bark.AddTrace(&FrameworkInvariantError{Reason: reason})
}

// capacityOverflow builds a CapacityOverflowError for a growth path that
// cannot represent the capacity it was asked for (spec.md 7: "Directory or
// column growth failed (allocation). Propagates; not recovered in the
// core."). Every doubling-growth call site that cannot safely keep
// doubling goes through here instead of silently wrapping into a negative
// capacity and handing `make` a nonsensical size.
func capacityOverflow(op, reason string) error {
	return &CapacityOverflowError{Op: op, Reason: reason}
}
