package dstar

import (
	"errors"
	"fmt"
)

var (
	// ErrConstruction reports malformed input: bad ids, mismatched
	// alphabets, broken acceptance mappings, unparsable documents.
	ErrConstruction = errors.New("dstar: construction failed")

	// ErrLimitReached reports that a run was aborted because the state
	// ceiling was exceeded. The scheduler treats it as a lost branch.
	ErrLimitReached = errors.New("dstar: state limit reached")
)

// LimitError carries the ceiling that stopped a run.
type LimitError struct {
	Limit  int
	States int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("dstar: state limit %d reached with %d states", e.Limit, e.States)
}

func (e *LimitError) Unwrap() error {
	return ErrLimitReached
}

func constructionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstruction, fmt.Sprintf(format, args...))
}

// invariant panics when an internal consistency check fails. These are
// programming errors and are never recovered inside the package.
func invariant(ok bool, format string, args ...any) {
	if !ok {
		panic("dstar: " + fmt.Sprintf(format, args...))
	}
}
