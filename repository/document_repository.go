package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/docregistry/database"
	"github.com/camden-git/docregistry/models"
)

// DocumentRepository handles database operations for Document entities
type DocumentRepository struct {
	DB *gorm.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// Create inserts a new document with no owner.
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	if strings.TrimSpace(document.Code) == "" {
		return &ValidationError{Field: "code"}
	}
	document.Person = nil

	err := r.DB.WithContext(ctx).Omit("Person").Create(document).Error
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", document.Code, TranslateError(err))
	}
	return nil
}

// GetByID retrieves a document by its ID. The owner is resolved from
// person.document_id.
func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var document models.Document
	err := r.DB.WithContext(ctx).Preload("Person").First(&document, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "document", ID: id}
		}
		return nil, fmt.Errorf("failed to get document by ID %d: %w", id, err)
	}
	return &document, nil
}

// ListAll retrieves all documents with their owners. An empty sortOrder means
// database.DefaultSortOrder.
func (r *DocumentRepository) ListAll(ctx context.Context, sortOrder string) ([]models.Document, error) {
	if sortOrder == "" {
		sortOrder = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(sortOrder) {
		return nil, &ValidationError{Field: "sort", Reason: "is not a known sort order"}
	}

	query := r.DB.WithContext(ctx).Preload("Person")
	switch sortOrder {
	case database.SortCodeAsc:
		query = query.Order("code ASC").Order("id ASC")
	case database.SortCreatedDesc:
		query = query.Order("created_at DESC").Order("id DESC")
	case database.SortCreatedAsc:
		query = query.Order("created_at ASC").Order("id ASC")
	default:
		query = query.Order("id ASC")
	}

	var documents []models.Document
	if err := query.Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	if sortOrder == database.SortCodeNat {
		sort.SliceStable(documents, func(i, j int) bool {
			return natsort.Compare(documents[i].Code, documents[j].Code)
		})
	}
	return documents, nil
}

// ListByCode retrieves the documents carrying an exact code, ordered by ID.
func (r *DocumentRepository) ListByCode(ctx context.Context, code string) ([]models.Document, error) {
	var documents []models.Document
	err := r.DB.WithContext(ctx).Preload("Person").Where("code = ?", code).Order("id ASC").Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents with code %s: %w", code, err)
	}
	return documents, nil
}
