// Package store defines how contacts are persisted. The implementations live in the
// sub-packages sqlstore, mongostore and filestore.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
)

// ErrNotFound is returned when no contact matches the identifier and owner of an operation.
// A contact of another owner is reported the same way as a contact that does not exist.
var ErrNotFound = errors.New("contact not found")

// Store performs the persistence operations on contacts. Every operation is scoped to an owner.
type Store interface {
	// List returns the contacts matching the filter, sorted by name and id, restricted to the
	// page. It returns an empty slice if nothing matches.
	List(ctx context.Context, filter model.Filter, page model.Page) ([]model.Contact, error)

	// FindOne returns a single contact or ErrNotFound.
	FindOne(ctx context.Context, id string, owner string) (model.Contact, error)

	// Insert creates a contact for the owner and returns it with its new id.
	Insert(ctx context.Context, fields model.Fields, owner string) (model.Contact, error)

	// Update merges the changes into a contact and returns the result, or ErrNotFound.
	Update(ctx context.Context, id string, owner string, changes model.Changes) (model.Contact, error)

	// Delete removes a contact or returns ErrNotFound.
	Delete(ctx context.Context, id string, owner string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the resources held by the store.
	Close() error
}

// NewId returns a fresh random contact identifier.
func NewId() string {
	return uuid.NewString()
}

// ValidId returns true if the string could have been produced by NewId. Requests for other
// identifiers can be answered without asking the store.
func ValidId(id string) bool {
	return uuid.Validate(id) == nil
}
