// Package state persists per-session storefront state (cart contents and UI
// flags) behind a small load/save adapter so stores never depend on a concrete
// storage mechanism.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blytz-live/storefront/internal/domain"
)

// Snapshot is the durable projection of the cart store.
type Snapshot struct {
	Items    []domain.CartItem `json:"items"`
	CartOpen bool              `json:"cart_open"`
	SavedAt  time.Time         `json:"saved_at"`
}

// Clone returns a deep copy so callers cannot alias persisted state.
func (s Snapshot) Clone() Snapshot {
	dup := s
	if len(s.Items) > 0 {
		dup.Items = make([]domain.CartItem, len(s.Items))
		copy(dup.Items, s.Items)
	}
	return dup
}

// Repository owns snapshot persistence. Implementations categorise failures
// via StateError so callers can distinguish absence from unavailability.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Clear(ctx context.Context) error
}

// StateError wraps low-level persistence failures with categorisation used by
// the stores.
type StateError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

type stateError struct {
	msg         string
	err         error
	notFound    bool
	unavailable bool
}

func (e *stateError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *stateError) Unwrap() error       { return e.err }
func (e *stateError) IsNotFound() bool    { return e.notFound }
func (e *stateError) IsUnavailable() bool { return e.unavailable }

func notFoundError(msg string) error {
	return &stateError{msg: msg, notFound: true}
}

func unavailableError(msg string, err error) error {
	return &stateError{msg: msg, err: err, unavailable: true}
}

// IsNotFound reports whether the error marks an absent snapshot.
func IsNotFound(err error) bool {
	var se StateError
	return errors.As(err, &se) && se.IsNotFound()
}
