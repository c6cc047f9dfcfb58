package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/camden-git/docregistry/metrics"
	"github.com/camden-git/docregistry/models"
	"github.com/camden-git/docregistry/repository"
)

// RelationshipStoreInterface is the in-process API over people, documents and
// the one-to-one link between them.
type RelationshipStoreInterface interface {
	CreateDocument(ctx context.Context, code string) (*models.Document, error)
	CreatePerson(ctx context.Context, name string) (*models.Person, error)
	CreatePersonWithDocument(ctx context.Context, name string, documentID uint) (*models.Person, error)
	AssignDocument(ctx context.Context, personID, documentID uint) (*models.Person, error)
	GetDocument(ctx context.Context, id uint) (*models.Document, error)
	GetPerson(ctx context.Context, id uint) (*models.Person, error)
	ListDocuments(ctx context.Context, sortOrder string) ([]models.Document, error)
	FindDocumentsByCode(ctx context.Context, code string) ([]models.Document, error)
	ListPeople(ctx context.Context) ([]models.Person, error)
}

// RelationshipStore persists people and documents. A document belongs to at
// most one person; the person.document_id unique constraint is the only
// thing enforcing it.
type RelationshipStore struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

var _ RelationshipStoreInterface = (*RelationshipStore)(nil)

func NewRelationshipStore(db *gorm.DB, m *metrics.Metrics) *RelationshipStore {
	return &RelationshipStore{db: db, metrics: m}
}

func (s *RelationshipStore) documents(db *gorm.DB) *repository.DocumentRepository {
	return repository.NewDocumentRepository(db)
}

func (s *RelationshipStore) people(db *gorm.DB) *repository.PersonRepository {
	return repository.NewPersonRepository(db)
}

func (s *RelationshipStore) CreateDocument(ctx context.Context, code string) (*models.Document, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &repository.ValidationError{Field: "code"}
	}

	document := &models.Document{Code: code}
	if err := s.documents(s.db).Create(ctx, document); err != nil {
		logrus.WithFields(logrus.Fields{"code": code, "error": err}).Error("Failed to create document")
		return nil, err
	}

	s.metrics.IncDocumentsCreated()
	logrus.WithFields(logrus.Fields{"document_id": document.ID, "code": code}).Info("Document created")
	return document, nil
}

func (s *RelationshipStore) CreatePerson(ctx context.Context, name string) (*models.Person, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &repository.ValidationError{Field: "name"}
	}

	person := &models.Person{Name: name}
	if err := s.people(s.db).Create(ctx, person); err != nil {
		logrus.WithFields(logrus.Fields{"name": name, "error": err}).Error("Failed to create person")
		return nil, err
	}

	s.metrics.IncPeopleCreated()
	logrus.WithField("person_id", person.ID).Info("Person created")
	return person, nil
}

// CreatePersonWithDocument inserts a person that already holds documentID.
// Nothing is inserted if the document is missing or already taken.
func (s *RelationshipStore) CreatePersonWithDocument(ctx context.Context, name string, documentID uint) (*models.Person, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &repository.ValidationError{Field: "name"}
	}
	log := logrus.WithField("document_id", documentID)

	var created *models.Person
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.documents(tx).GetByID(ctx, documentID); err != nil {
			return err
		}

		person := &models.Person{Name: name, DocumentID: &documentID}
		people := s.people(tx)
		if err := people.Create(ctx, person); err != nil {
			return err
		}

		var err error
		created, err = people.GetByID(ctx, person.ID)
		return err
	})
	if err != nil {
		s.logWriteFailure(log, err, "Failed to create person with document")
		return nil, err
	}

	s.metrics.IncPeopleCreated()
	s.metrics.IncDocumentsAssigned()
	log.WithField("person_id", created.ID).Info("Person created with document")
	return created, nil
}

// AssignDocument links documentID to personID. Loading, updating and
// re-reading happen in one transaction that rolls back on any error. If the
// document is held by someone else the update fails on the unique constraint
// and a *repository.ConstraintViolationError is returned. Moving a person to
// another document frees the previous one.
func (s *RelationshipStore) AssignDocument(ctx context.Context, personID, documentID uint) (*models.Person, error) {
	log := logrus.WithFields(logrus.Fields{
		"person_id":   personID,
		"document_id": documentID,
	})

	var assigned *models.Person
	wrote := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		people := s.people(tx)

		person, err := people.GetByID(ctx, personID)
		if err != nil {
			return err
		}
		if _, err := s.documents(tx).GetByID(ctx, documentID); err != nil {
			return err
		}

		if person.HasDocument(documentID) {
			assigned = person
			return nil
		}

		if err := people.SetDocument(ctx, personID, documentID); err != nil {
			return err
		}
		wrote = true

		assigned, err = people.GetByID(ctx, personID)
		return err
	})
	if err != nil {
		s.logWriteFailure(log, err, "Failed to assign document")
		return nil, err
	}

	if wrote {
		s.metrics.IncDocumentsAssigned()
		log.Info("Document assigned")
	} else {
		log.Debug("Document already assigned to this person")
	}
	return assigned, nil
}

func (s *RelationshipStore) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	document, err := s.documents(s.db).GetByID(ctx, id)
	if err != nil {
		s.logReadFailure(logrus.WithField("document_id", id), err, "Failed to get document")
		return nil, err
	}
	return document, nil
}

func (s *RelationshipStore) GetPerson(ctx context.Context, id uint) (*models.Person, error) {
	person, err := s.people(s.db).GetByID(ctx, id)
	if err != nil {
		s.logReadFailure(logrus.WithField("person_id", id), err, "Failed to get person")
		return nil, err
	}
	return person, nil
}

// ListDocuments lists every document with its owner. sortOrder is one of the
// database.Sort* values; empty means natural order of code.
func (s *RelationshipStore) ListDocuments(ctx context.Context, sortOrder string) ([]models.Document, error) {
	documents, err := s.documents(s.db).ListAll(ctx, sortOrder)
	if err != nil {
		log := logrus.WithFields(logrus.Fields{"sort": sortOrder, "error": err})
		var invalid *repository.ValidationError
		if errors.As(err, &invalid) {
			log.Warn("Rejected document listing")
		} else {
			log.Error("Failed to list documents")
		}
		return nil, err
	}
	return documents, nil
}

func (s *RelationshipStore) FindDocumentsByCode(ctx context.Context, code string) ([]models.Document, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &repository.ValidationError{Field: "code"}
	}
	documents, err := s.documents(s.db).ListByCode(ctx, code)
	if err != nil {
		logrus.WithFields(logrus.Fields{"code": code, "error": err}).Error("Failed to find documents by code")
		return nil, err
	}
	return documents, nil
}

func (s *RelationshipStore) ListPeople(ctx context.Context) ([]models.Person, error) {
	people, err := s.people(s.db).ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list people")
		return nil, err
	}
	return people, nil
}

func (s *RelationshipStore) logWriteFailure(log *logrus.Entry, err error, msg string) {
	var notFound *repository.NotFoundError
	if cv, ok := repository.IsConstraintViolation(err); ok {
		s.metrics.IncAssignmentConflicts()
		log.WithFields(logrus.Fields{
			"constraint": cv.Constraint,
			"key":        fmt.Sprintf("%s=%s", cv.Column, cv.Value),
		}).Warn(msg)
		return
	}
	if errors.As(err, &notFound) {
		log.WithField("error", err).Warn(msg)
		return
	}
	log.WithField("error", err).Error(msg)
}

func (s *RelationshipStore) logReadFailure(log *logrus.Entry, err error, msg string) {
	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		log.Warn(msg + ": not found")
		return
	}
	log.WithField("error", err).Error(msg)
}
