// Package mockstorage provides testify-based mocks of the storage contracts.
// Router tests use them to force storage failures and to check that every
// request session is released.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

// StorageMock mocks storage.Storage.
type StorageMock struct {
	mock.Mock
}

// NewSession returns the mocked session, or the mocked error.
func (m *StorageMock) NewSession(ctx context.Context) (storage.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(storage.Session)
	return session, args.Error(1)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// SessionMock mocks storage.Session.
type SessionMock struct {
	mock.Mock
}

// CreateUser mocks inserting a user. When the first return value is a
// *models.User its generated fields are copied into usr.
func (m *SessionMock) CreateUser(ctx context.Context, usr *models.User) error {
	args := m.Called(ctx, usr)
	if stored, ok := args.Get(0).(*models.User); ok && stored != nil {
		usr.ID = stored.ID
		usr.CreatedAt = stored.CreatedAt
	}
	return args.Error(1)
}

// GetUserByEmail mocks the user lookup.
func (m *SessionMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

// CreateDocument mocks inserting a document.
func (m *SessionMock) CreateDocument(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// GetUserDocuments mocks listing a user's documents.
func (m *SessionMock) GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	args := m.Called(ctx, userID)
	docs, _ := args.Get(0).([]models.Document)
	return docs, args.Error(1)
}

// Close mocks releasing the session.
func (m *SessionMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
