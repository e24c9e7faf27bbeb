package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrDataFormat   = errors.New("invalid data format")
	ErrStorageWrite = errors.New("storage write failed")
)

// Error carries a user-facing message and the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func NotFound(id int) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("Task with ID %d not found", id)}
}

func DataFormat(err error) error {
	return &Error{Kind: ErrDataFormat, Message: "Invalid task data format", Err: err}
}

func StorageWrite(err error) error {
	return &Error{Kind: ErrStorageWrite, Message: "Failed to write tasks", Err: err}
}

// Message returns the text safe to show to a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}
