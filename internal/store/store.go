// Package store implements the persistent user store consumed by the bancho
// endpoint: credentials, per-mode stats, friend relationships, and privilege
// lookups, backed by SQLite.
package store

import (
	"context"
	"errors"

	"github.com/gobancho-project/gobancho/internal/session"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// User is a stored account record.
type User struct {
	ID             int32
	Username       string
	UsernameSafe   string
	PasswordBcrypt string
	Privileges     session.Privileges
	SilenceEnd     int32
	Country        string
}

// Store is the persistence interface the bancho core depends on. It is
// deliberately narrow: the core never issues SQL of its own.
type Store interface {
	// UserByUsername fetches a user record by its normalized username.
	UserByUsername(ctx context.Context, usernameSafe string) (*User, error)

	// AllStats fetches the per-mode performance records for a user, one per
	// supported mode. Missing rows yield zero records.
	AllStats(ctx context.Context, userID int32) ([session.ModeCount]session.ModeStats, error)

	// Friends fetches the ids of a user's friends.
	Friends(ctx context.Context, userID int32) ([]int32, error)

	// AddFriend persists a friend relationship. Adding an existing
	// relationship is a no-op.
	AddFriend(ctx context.Context, userID, friendID int32) error

	// RemoveFriend deletes a friend relationship. Removing a missing
	// relationship is a no-op.
	RemoveFriend(ctx context.Context, userID, friendID int32) error

	// Privileges fetches the current privilege bitset for a user.
	Privileges(ctx context.Context, userID int32) (session.Privileges, error)

	// Country fetches the two-letter country code for a user.
	Country(ctx context.Context, userID int32) (string, error)

	Close() error
}
