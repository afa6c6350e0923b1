package application

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// ErrValidation marks a request rejected before touching the store.
var ErrValidation = errors.New("validation failed")

// ValidationError carries a client-facing message and unwraps to ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type IDGenerator interface {
	NewID() string
}

// Clock supplies server-assigned timestamps.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }
