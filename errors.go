package fits

import (
	"errors"
	"fmt"
)

var (
	// ErrNilCard signals that a structural mutation was given a nil
	// card where one is required.
	ErrNilCard = errors.New("nil card")

	// ErrInvalidValue signals that a map view Set was given a value
	// that is neither a scalar nor a sequence of scalars.
	ErrInvalidValue = errors.New("value is neither a scalar nor a sequence of scalars")

	// ErrBadCardImage signals a card image that cannot be decoded.
	ErrBadCardImage = errors.New("malformed card image")

	// ErrMissingEnd signals a header that ends without an END card.
	ErrMissingEnd = errors.New("header has no END card")
)

// IOError is a backend failure: opening, reading or writing the
// medium that supplies or persists card images. It is distinct from
// header-level errors so callers can tell the two apart.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("fits: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("fits: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
