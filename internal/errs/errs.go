// Package errs defines the error taxonomy shared by the inventory core.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrEntityNotFound           = errors.New("entity not found")
	ErrInvalidQuantity          = errors.New("invalid quantity")
	ErrInvalidTransferEndpoints = errors.New("invalid transfer endpoints")
	ErrManifestState            = errors.New("invalid manifest state transition")
	ErrCapacityExceeded         = errors.New("capacity exceeded")
	ErrInvalidValue             = errors.New("invalid value")
)

// Entity kinds used in NotFoundError.
const (
	KindCargo        = "Cargo"
	KindStorageUnit  = "Storage unit"
	KindSpacecraft   = "Spacecraft"
	KindUser         = "User"
	KindCargoStorage = "Cargo storage"
	KindManifest     = "Manifest entry"
)

// NotFoundError reports a reference that did not resolve.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// NotFound builds a NotFoundError.
func NotFound(kind string, id int64) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// StateError reports an illegal manifest status transition.
type StateError struct {
	EntryID int64
	From    string
	To      string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("manifest entry %d cannot move from %s to %s", e.EntryID, e.From, e.To)
}

func (e *StateError) Is(target error) bool {
	return target == ErrManifestState
}

// QuantityError reports a rejected quantity value.
type QuantityError struct {
	Quantity int
	Reason   string
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d: %s", e.Quantity, e.Reason)
}

func (e *QuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// Endpoints wraps ErrInvalidTransferEndpoints with a reason.
func Endpoints(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransferEndpoints, reason)
}

// CapacityError reports a write that would overflow a location.
type CapacityError struct {
	Location string
	Resource string
	Required string
	Free     string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s %s capacity exceeded: need %s, available %s", e.Location, e.Resource, e.Required, e.Free)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
