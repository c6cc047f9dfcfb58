package repository

import (
	"context"

	"github.com/camden-git/docregistry/models"
)

// DocumentRepositoryInterface defines the methods for document data operations
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	ListAll(ctx context.Context, sortOrder string) ([]models.Document, error)
	ListByCode(ctx context.Context, code string) ([]models.Document, error)
}

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	ListAll(ctx context.Context) ([]models.Person, error)
	SetDocument(ctx context.Context, personID, documentID uint) error
}

var (
	_ DocumentRepositoryInterface = (*DocumentRepository)(nil)
	_ PersonRepositoryInterface   = (*PersonRepository)(nil)
)
