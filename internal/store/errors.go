package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrPasswordRequired = errors.New("password required for this document")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPersistence      = errors.New("persistence failure")
	ErrInvalidRecord    = errors.New("invalid document record")
	ErrInvalidName      = errors.New("invalid document name")
	ErrAlreadyExists    = errors.New("document already exists")
	ErrAlreadyProtected = errors.New("document is already password protected")
	ErrNotProtected     = errors.New("document is not password protected")
)

// Error records the operation and document behind a failure. Match the
// cause with errors.Is against the sentinels above.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op, name string, err error) error {
	return &Error{Op: op, Name: name, Err: err}
}

// persistence tags a backend failure with ErrPersistence while keeping the
// driver error reachable.
func persistence(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
