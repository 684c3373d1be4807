package types

import (
	"context"
	"errors"
)

// ErrCancelled marks work that stopped because the operator asked it to.
// It is an outcome, never a fault, and callers report it separately from failures.
var ErrCancelled = errors.New("cancelled")

// IsCancelled reports whether err stems from local cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
