// Package memorystorage keeps users and documents in process memory.
// It is selected when no DATABASE_URL is configured and backs most tests.
package memorystorage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

type cacheStruct struct {
	Users           map[string]*models.User
	UsersByEmail    map[string]string
	UsersByUsername map[string]string
	Documents       []models.Document
}

// MemoryStorage is safe for concurrent use. All sessions share one cache.
type MemoryStorage struct {
	mu    sync.RWMutex
	cache cacheStruct
	now   func() time.Time
}

// Session is a view over the shared cache. It holds no resources of its
// own, so Close only marks it unusable.
type Session struct {
	db     *MemoryStorage
	closed bool
}

var errSessionClosed = errors.New("memorystorage: session is closed")

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		cache: cacheStruct{
			Users:           map[string]*models.User{},
			UsersByEmail:    map[string]string{},
			UsersByUsername: map[string]string{},
			Documents:       []models.Document{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (theStorage *MemoryStorage) NewSession(ctx context.Context) (storage.Session, error) {
	return &Session{db: theStorage}, nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (s *Session) CreateUser(ctx context.Context, usr *models.User) error {
	if s.closed {
		return errSessionClosed
	}

	db := s.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.cache.UsersByEmail[usr.Email]; exists {
		return fmt.Errorf("%w: email %q already registered", storage.ErrConflict, usr.Email)
	}
	if _, exists := db.cache.UsersByUsername[usr.Username]; exists {
		return fmt.Errorf("%w: username %q already taken", storage.ErrConflict, usr.Username)
	}

	usr.ID = uuid.New().String()
	usr.CreatedAt = db.now()

	stored := *usr
	db.cache.Users[stored.ID] = &stored
	db.cache.UsersByEmail[stored.Email] = stored.ID
	db.cache.UsersByUsername[stored.Username] = stored.ID

	return nil
}

func (s *Session) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.closed {
		return nil, errSessionClosed
	}

	db := s.db
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.cache.UsersByEmail[email]
	if !found {
		return nil, storage.ErrNotFound
	}

	usr := *db.cache.Users[userID]
	return &usr, nil
}

// CreateDocument accepts any user id, registered or not.
func (s *Session) CreateDocument(ctx context.Context, doc *models.Document) error {
	if s.closed {
		return errSessionClosed
	}

	db := s.db
	db.mu.Lock()
	defer db.mu.Unlock()

	doc.ID = uuid.New().String()
	doc.CreatedAt = db.now()
	doc.UpdatedAt = doc.CreatedAt

	db.cache.Documents = append(db.cache.Documents, *doc)

	return nil
}

func (s *Session) GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	if s.closed {
		return nil, errSessionClosed
	}

	db := s.db
	db.mu.RLock()
	defer db.mu.RUnlock()

	owned := funk.Filter(db.cache.Documents, func(doc models.Document) bool {
		return doc.UserID == userID
	}).([]models.Document)

	return owned, nil
}

func (s *Session) Close() error {
	if s.closed {
		return errSessionClosed
	}
	s.closed = true

	return nil
}
