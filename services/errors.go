package services

import "errors"

var (
	// ErrNotFound means the referenced order id or number does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus means the requested status is outside the recognized set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition means strict checking rejected the status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError reports bad input on order creation: a missing item list,
// a non-positive quantity or an unresolved menu item reference.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErr(msg string) error {
	return &ValidationError{Msg: msg}
}
