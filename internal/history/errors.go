package history

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by Store.Append for a fixture already present.
var ErrDuplicate = errors.New("fixture already in dataset")

// DataCorruptionError reports a persisted row that survived the
// completeness filter but cannot be parsed. The current cycle is abandoned.
type DataCorruptionError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *DataCorruptionError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("dataset %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("dataset %s line %d column %s: %v", e.Path, e.Line, e.Column, e.Err)
}

func (e *DataCorruptionError) Unwrap() error {
	return e.Err
}
