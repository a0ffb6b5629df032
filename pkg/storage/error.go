package storage

import "errors"

// ErrNilScreen is returned when Put is called without a screen.
var ErrNilScreen = errors.New("cannot store nil screen")

// NotFoundError is returned when a screen doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "screen not found"
	}

	return "screen not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
