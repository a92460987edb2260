// Package contract implements the fatal half of the engine's error taxonomy:
// invariant breaches and precondition violations abort the process rather
// than propagate, because by definition they indicate a programming bug
// rather than a recoverable runtime condition.
package contract

import "fmt"

// Check aborts the process if cond is false. Use for internal invariants —
// conditions that a correct caller can never violate (e.g. a stream's
// internal bookkeeping).
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("nowsound: invariant violated: "+format, args...))
	}
}

// Require aborts the process if cond is false. Use for precondition
// violations attributable to the caller (unknown IDs, wrong graph state,
// out-of-range parameters, illegal state transitions) — per the spec these
// are contract violations, not recoverable errors.
func Require(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("nowsound: precondition violated: "+format, args...))
	}
}
