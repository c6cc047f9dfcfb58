package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/docregistry/models"
)

// PersonRepository handles database operations for Person entities
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Create creates a new person record in the database. DocumentID may be set to
// create the person already holding a document.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if strings.TrimSpace(person.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	person.Document = nil

	err := r.DB.WithContext(ctx).Omit("Document").Create(person).Error
	if err != nil {
		err = documentConstraintError(err, person.DocumentID)
		return fmt.Errorf("failed to create person %s: %w", person.Name, err)
	}
	return nil
}

// GetByID retrieves a person by their ID, preloading the Document
func (r *PersonRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.WithContext(ctx).Preload("Document").First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "person", ID: id}
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// ListAll retrieves all people, ordered by name, preloading Document
func (r *PersonRepository) ListAll(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	err := r.DB.WithContext(ctx).Preload("Document").Order("name ASC").Order("id ASC").Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// SetDocument points person.document_id at documentID. Conflicts are left to
// the unique constraint and come back as *ConstraintViolationError.
func (r *PersonRepository) SetDocument(ctx context.Context, personID, documentID uint) error {
	updates := map[string]interface{}{
		"document_id": documentID,
		"updated_at":  time.Now(),
	}
	result := r.DB.WithContext(ctx).Model(&models.Person{}).Where("id = ?", personID).Updates(updates)
	if result.Error != nil {
		err := documentConstraintError(result.Error, &documentID)
		return fmt.Errorf("failed to assign document ID %d to person ID %d: %w", documentID, personID, err)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Entity: "person", ID: personID}
	}
	return nil
}

// documentConstraintError translates err and fills in what the driver left
// out about the person.document_id constraints.
func documentConstraintError(err error, documentID *uint) error {
	err = TranslateError(err)
	cv, ok := IsConstraintViolation(err)
	if !ok {
		return err
	}
	if cv.Table == "" {
		cv.Table = models.Person{}.TableName()
	}
	if cv.Column == "" {
		cv.Column = "document_id"
	}
	if cv.Value == "" && documentID != nil {
		cv.Value = strconv.FormatUint(uint64(*documentID), 10)
	}
	if cv.Constraint == "" {
		if cv.Kind == ConstraintUnique {
			cv.Constraint = models.PersonDocumentUniqueConstraint
		} else {
			cv.Constraint = models.PersonDocumentForeignKey
		}
	}
	return cv
}
