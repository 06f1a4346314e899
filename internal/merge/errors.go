package merge

import (
	"fmt"

	"github.com/lherron/pomokan/internal/id"
)

// MalformedInputError reports an input dataset that violates its own shape
// invariants. Nothing is merged.
type MalformedInputError struct {
	Source id.Source
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s dataset: %v", e.Source, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// DanglingReferenceError reports relationship fields of the merged dataset
// that do not resolve. The merge is aborted and no dataset is produced.
type DanglingReferenceError struct {
	Failures []Failure
}

func (e *DanglingReferenceError) Error() string {
	if len(e.Failures) == 0 {
		return "merge aborted: dangling references"
	}
	f := e.Failures[0]
	msg := fmt.Sprintf("merge aborted: %s %q field %s references missing %q", f.Entity, f.ID, f.Field, f.Ref)
	if n := len(e.Failures) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}
