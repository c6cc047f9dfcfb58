package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/camden-git/docregistry/config"
	"github.com/camden-git/docregistry/database"
	"github.com/camden-git/docregistry/metrics"
	"github.com/camden-git/docregistry/repository"
)

type RelationshipStoreSuite struct {
	suite.Suite
	db      *gorm.DB
	metrics *metrics.Metrics
	store   *RelationshipStore
	ctx     context.Context
}

func TestRelationshipStoreSuite(t *testing.T) {
	suite.Run(t, new(RelationshipStoreSuite))
}

// SetupTest gives every test a fresh database so generated IDs start at 1.
func (s *RelationshipStoreSuite) SetupTest() {
	db, err := database.InitGormDB(config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabasePath:   filepath.Join(s.T().TempDir(), "store.db"),
		DBLogLevel:     "silent",
	})
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))

	s.db = db
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = NewRelationshipStore(db, s.metrics)
	s.ctx = context.Background()
}

func (s *RelationshipStoreSuite) TearDownTest() {
	s.Require().NoError(database.Close(s.db))
}

func (s *RelationshipStoreSuite) TestCreateDocument() {
	code := "DOC-" + uuid.NewString()

	doc, err := s.store.CreateDocument(s.ctx, code)
	s.Require().NoError(err)
	s.NotZero(doc.ID)
	s.Equal(code, doc.Code)
	s.Nil(doc.Person)

	stored, err := s.store.GetDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(code, stored.Code)
	s.Nil(stored.Person)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DocumentsCreated))
}

func (s *RelationshipStoreSuite) TestCreateDocumentRequiresCode() {
	for _, code := range []string{"", "   "} {
		_, err := s.store.CreateDocument(s.ctx, code)
		var ve *repository.ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Equal("code", ve.Field)
	}

	docs, err := s.store.ListDocuments(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(docs, "nothing written on validation failure")
}

func (s *RelationshipStoreSuite) TestCreatePerson() {
	person, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)
	s.NotZero(person.ID)
	s.Equal("John Smith", person.Name)
	s.Nil(person.DocumentID)
	s.Nil(person.Document)
}

func (s *RelationshipStoreSuite) TestCreatePersonRequiresName() {
	_, err := s.store.CreatePerson(s.ctx, "")
	var ve *repository.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Equal("name", ve.Field)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.PeopleCreated))
}

func (s *RelationshipStoreSuite) TestAssignDocumentVisibleFromBothSides() {
	doc, err := s.store.CreateDocument(s.ctx, "XD892342")
	s.Require().NoError(err)
	person, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)

	updated, err := s.store.AssignDocument(s.ctx, person.ID, doc.ID)
	s.Require().NoError(err)
	s.Equal(person.ID, updated.ID)
	s.Equal("John Smith", updated.Name)
	s.Require().NotNil(updated.Document)
	s.Equal(doc.ID, updated.Document.ID)
	s.Equal("XD892342", updated.Document.Code)

	gotPerson, err := s.store.GetPerson(s.ctx, person.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotPerson.Document)
	s.Equal(doc.ID, gotPerson.Document.ID)

	gotDoc, err := s.store.GetDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotDoc.Person)
	s.Equal(person.ID, gotDoc.Person.ID)
	s.Equal("John Smith", gotDoc.Person.Name)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.DocumentsAssigned))
}

func (s *RelationshipStoreSuite) TestAssignDocumentTakenByAnotherPerson() {
	doc, err := s.store.CreateDocument(s.ctx, "XYZ12345")
	s.Require().NoError(err)
	john, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)
	mary, err := s.store.CreatePerson(s.ctx, "Mary Jane")
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, john.ID, doc.ID)
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, mary.ID, doc.ID)
	cv, ok := repository.IsConstraintViolation(err)
	s.Require().True(ok, "got %v", err)
	s.Equal(repository.ConstraintUnique, cv.Kind)
	s.Equal("person_document_id_key", cv.Constraint)
	s.Equal("document_id", cv.Column)
	s.Equal("1", cv.Value)

	// state unchanged
	gotDoc, err := s.store.GetDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotDoc.Person)
	s.Equal(john.ID, gotDoc.Person.ID)

	gotMary, err := s.store.GetPerson(s.ctx, mary.ID)
	s.Require().NoError(err)
	s.Nil(gotMary.DocumentID)
	s.Nil(gotMary.Document)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.AssignmentConflicts))
}

func (s *RelationshipStoreSuite) TestAssignDocumentMissingRows() {
	doc, err := s.store.CreateDocument(s.ctx, "XD892342")
	s.Require().NoError(err)
	person, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, 999, doc.ID)
	var nf *repository.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal("person", nf.Entity)
	s.Equal(uint(999), nf.ID)

	_, err = s.store.AssignDocument(s.ctx, person.ID, 999)
	s.Require().ErrorAs(err, &nf)
	s.Equal("document", nf.Entity)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))

	_, isConflict := repository.IsConstraintViolation(err)
	s.False(isConflict)

	gotPerson, err := s.store.GetPerson(s.ctx, person.ID)
	s.Require().NoError(err)
	s.Nil(gotPerson.DocumentID, "no write on not-found")
	s.Equal(0.0, testutil.ToFloat64(s.metrics.DocumentsAssigned))
}

func (s *RelationshipStoreSuite) TestAssignSameDocumentTwiceIsNoop() {
	doc, err := s.store.CreateDocument(s.ctx, "XD892342")
	s.Require().NoError(err)
	person, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, person.ID, doc.ID)
	s.Require().NoError(err)
	again, err := s.store.AssignDocument(s.ctx, person.ID, doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(again.Document)
	s.Equal(doc.ID, again.Document.ID)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.DocumentsAssigned))
}

func (s *RelationshipStoreSuite) TestReassignFreesPreviousDocument() {
	first, err := s.store.CreateDocument(s.ctx, "FIRST")
	s.Require().NoError(err)
	second, err := s.store.CreateDocument(s.ctx, "SECOND")
	s.Require().NoError(err)
	john, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)
	mary, err := s.store.CreatePerson(s.ctx, "Mary Jane")
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, john.ID, first.ID)
	s.Require().NoError(err)
	_, err = s.store.AssignDocument(s.ctx, john.ID, second.ID)
	s.Require().NoError(err)

	gotFirst, err := s.store.GetDocument(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Nil(gotFirst.Person)

	_, err = s.store.AssignDocument(s.ctx, mary.ID, first.ID)
	s.Require().NoError(err, "freed document can be claimed")
}

func (s *RelationshipStoreSuite) TestGetMissing() {
	_, err := s.store.GetDocument(s.ctx, 1)
	var nf *repository.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal("document", nf.Entity)

	_, err = s.store.GetPerson(s.ctx, 1)
	s.Require().ErrorAs(err, &nf)
	s.Equal("person", nf.Entity)
}

func (s *RelationshipStoreSuite) TestCreatePersonWithDocument() {
	doc, err := s.store.CreateDocument(s.ctx, "XYZ12345")
	s.Require().NoError(err)

	john, err := s.store.CreatePersonWithDocument(s.ctx, "John Smith", doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(john.Document)
	s.Equal(doc.ID, john.Document.ID)

	_, err = s.store.CreatePersonWithDocument(s.ctx, "Mary Jane", doc.ID)
	_, ok := repository.IsConstraintViolation(err)
	s.Require().True(ok, "got %v", err)

	_, err = s.store.CreatePersonWithDocument(s.ctx, "Peter Parker", 404)
	var nf *repository.NotFoundError
	s.Require().ErrorAs(err, &nf)

	_, err = s.store.CreatePersonWithDocument(s.ctx, " ", doc.ID)
	var ve *repository.ValidationError
	s.Require().ErrorAs(err, &ve)

	people, err := s.store.ListPeople(s.ctx)
	s.Require().NoError(err)
	s.Len(people, 1, "failed creates insert nothing")
}

// The concrete walk-through: IDs are generated from 1 on a fresh database.
func (s *RelationshipStoreSuite) TestDocumentLifecycleScenario() {
	doc1, err := s.store.CreateDocument(s.ctx, "XD892342")
	s.Require().NoError(err)
	s.Equal(uint(1), doc1.ID)

	john, err := s.store.CreatePerson(s.ctx, "John Smith")
	s.Require().NoError(err)
	s.Equal(uint(1), john.ID)

	_, err = s.store.AssignDocument(s.ctx, 1, 1)
	s.Require().NoError(err)
	got, err := s.store.GetDocument(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("John Smith", got.Person.Name)

	doc2, err := s.store.CreateDocument(s.ctx, "XYZ12345")
	s.Require().NoError(err)
	s.Equal(uint(2), doc2.ID)

	mary, err := s.store.CreatePerson(s.ctx, "Mary Jane")
	s.Require().NoError(err)
	s.Equal(uint(2), mary.ID)

	prior, err := s.store.CreatePersonWithDocument(s.ctx, "John Smith", doc2.ID)
	s.Require().NoError(err)

	_, err = s.store.AssignDocument(s.ctx, mary.ID, doc2.ID)
	cv, ok := repository.IsConstraintViolation(err)
	s.Require().True(ok, "got %v", err)
	s.Contains(cv.Error(), "person_document_id_key")
	s.Contains(cv.Error(), "(document_id)=(2)")

	got, err = s.store.GetDocument(s.ctx, doc2.ID)
	s.Require().NoError(err)
	s.Equal(prior.ID, got.Person.ID)
}

func (s *RelationshipStoreSuite) TestConcurrentAssignmentOneWinner() {
	doc, err := s.store.CreateDocument(s.ctx, "RACE-"+uuid.NewString())
	s.Require().NoError(err)

	const writers = 8
	ids := make([]uint, writers)
	for i := range ids {
		p, err := s.store.CreatePerson(s.ctx, "Racer "+uuid.NewString())
		s.Require().NoError(err)
		ids[i] = p.ID
	}

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32
	for _, id := range ids {
		wg.Add(1)
		go func(personID uint) {
			defer wg.Done()
			_, err := s.store.AssignDocument(s.ctx, personID, doc.ID)
			if err == nil {
				successCount.Add(1)
			} else if _, ok := repository.IsConstraintViolation(err); ok {
				conflictCount.Add(1)
			}
		}(id)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(writers-1), conflictCount.Load())

	got, err := s.store.GetDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.Person)
	s.Contains(ids, got.Person.ID)
}

func (s *RelationshipStoreSuite) TestListAndFind() {
	_, err := s.store.CreateDocument(s.ctx, "B-2")
	s.Require().NoError(err)
	_, err = s.store.CreateDocument(s.ctx, "B-10")
	s.Require().NoError(err)
	_, err = s.store.CreateDocument(s.ctx, "A-1")
	s.Require().NoError(err)

	docs, err := s.store.ListDocuments(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	s.Equal([]string{"A-1", "B-2", "B-10"}, []string{docs[0].Code, docs[1].Code, docs[2].Code})

	found, err := s.store.FindDocumentsByCode(s.ctx, "B-10")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(uint(2), found[0].ID)

	none, err := s.store.FindDocumentsByCode(s.ctx, "missing")
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.store.FindDocumentsByCode(s.ctx, "")
	var ve *repository.ValidationError
	s.ErrorAs(err, &ve)

	_, err = s.store.CreatePerson(s.ctx, "Zed")
	s.Require().NoError(err)
	_, err = s.store.CreatePerson(s.ctx, "Amy")
	s.Require().NoError(err)
	people, err := s.store.ListPeople(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(people, 2)
	s.Equal("Amy", people[0].Name)
}
