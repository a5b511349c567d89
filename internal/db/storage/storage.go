// Package storage declares the persistence contracts shared by the
// PostgreSQL and in-memory backends.
package storage

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/docsvc/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
// Backends keep their own driver error in the chain next to it.
var ErrConflict = errors.New("unique constraint violated")

// Storage hands out request-scoped sessions.
type Storage interface {
	NewSession(ctx context.Context) (Session, error)

	Ping(ctx context.Context) error

	Close() error
}

// Session is a persistence handle bound to a single request. Close must be
// called exactly once when the request is done, whatever the outcome.
type Session interface {
	CreateUser(ctx context.Context, usr *models.User) error

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateDocument(ctx context.Context, doc *models.Document) error

	GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error)

	Close() error
}
