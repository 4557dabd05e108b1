package service

import (
	"errors"

	"github.com/example/foodhub/pkg/repository"
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrAlreadyExists      = repository.ErrDuplicate
	ErrConflict           = repository.ErrConflict
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error pairs one of the sentinel errors above with the message shown to the
// caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func invalidInput(msg string) error { return &Error{Kind: ErrInvalidInput, Message: msg} }

// orNotFound replaces a repository miss with msg and passes other errors through.
func orNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(msg)
	}
	return err
}
