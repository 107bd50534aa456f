package utils

import (
	"errors"
	"fmt"
)

type Range[T any] struct {
	Min *T
	Max *T
}

type XError struct {
	Reason string
	Meta   any
}

func (xe XError) Error() string {
	if xe.Meta == nil {
		return fmt.Sprintf("xerror: %v", xe.Reason)
	}
	return fmt.Sprintf("xerror: %v (meta: %v)", xe.Reason, xe.Meta)
}

func (xe XError) ToError() error {
	return xe
}

// Wrap annotates err with a reason while keeping it unwrappable.
func Wrap(err error, reason string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", reason, err)
}

var (
	ErrEmptyAudio = errors.New("empty audio")
	ErrEmptyText  = errors.New("empty text")
	ErrNoBackend  = errors.New("no backend available")
	ErrClosed     = errors.New("closed")
)
