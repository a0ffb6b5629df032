package extract

import (
	"errors"
	"fmt"
)

// ErrMalformedOutput is the sentinel matched by every *MalformedOutputError.
var ErrMalformedOutput = errors.New("malformed output")

// MalformedOutputError reports a producer that broke the key ordering or
// value shape contract. It is recorded in State and never stops the scan.
type MalformedOutputError struct {
	// Index is the record index the problem was attributed to.
	Index int

	// Offset is the buffer position of the offending key.
	Offset int

	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed output at offset %d (record %d): %s", e.Offset, e.Index, e.Reason)
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}
