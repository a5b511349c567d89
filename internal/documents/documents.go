// Package documents files text documents under their owners.
package documents

import (
	"context"

	"github.com/patric-chuzhbe/docsvc/internal/models"
)

type documentKeeper interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error)
}

type Service struct {
	db documentKeeper
}

func New(db documentKeeper) *Service {
	return &Service{db: db}
}

// CreateDocument stores a document for userID. The id is not checked
// against registered users, so documents can be filed under any string.
func (s *Service) CreateDocument(ctx context.Context, userID, title, content string) (*models.Document, error) {
	doc := &models.Document{
		Title:   title,
		Content: content,
		UserID:  userID,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// GetUserDocuments lists userID's documents in storage order. The result is
// empty, never nil, when there are none.
func (s *Service) GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.db.GetUserDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}

	return docs, nil
}
