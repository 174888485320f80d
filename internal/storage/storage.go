// Package storage defines the Storage interface — a contract that any
// backend must satisfy to work with this application — together with the
// ordered user collection the backends share.
//
// Handlers (HTTP layer) depend only on this interface, so the JSON file,
// in-memory and SQLite backends are interchangeable: main.go picks one
// from config and nothing else changes.
package storage

import (
	"errors"

	"github.com/aanand-mishra/users-api/internal/types"
)

var (
	// ErrNotFound is returned for a lookup miss on get, update or delete.
	ErrNotFound = errors.New("user not found")

	// ErrCorrupt is returned by backends running in strict mode when the
	// persisted state cannot be read back.
	ErrCorrupt = errors.New("storage is corrupt")
)

// Storage is the persistence contract.
//
// Every backend keeps users ordered "most recently written first":
// CreateUser and UpdateUserByID move the written user to the front,
// DeleteUserByID keeps the relative order of the rest, and reads never
// change the order.
type Storage interface {
	// CreateUser assigns a fresh id to user, stores it and returns the
	// stored record.
	CreateUser(user types.User) (types.User, error)

	// GetUserByID fetches a single user. Returns ErrNotFound if absent.
	GetUserByID(id string) (types.User, error)

	// GetUsers returns every user, most recently written first.
	// Returns an empty slice (not nil) if there are no users.
	GetUsers() ([]types.User, error)

	// UpdateUserByID replaces every field of an existing user except its
	// id. Returns ErrNotFound if absent.
	UpdateUserByID(id string, user types.User) (types.User, error)

	// DeleteUserByID removes a user permanently. Returns ErrNotFound if
	// absent.
	DeleteUserByID(id string) error
}
