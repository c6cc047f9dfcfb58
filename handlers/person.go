package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/docregistry/models"
	"github.com/camden-git/docregistry/services"
)

type PersonHandler struct {
	Store services.RelationshipStoreInterface
}

// CreatePerson creates a person, optionally already holding document_id.
func (ph *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		DocumentID *uint  `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	var (
		person *models.Person
		err    error
	)
	if req.DocumentID != nil {
		person, err = ph.Store.CreatePersonWithDocument(r.Context(), req.Name, *req.DocumentID)
	} else {
		person, err = ph.Store.CreatePerson(r.Context(), req.Name)
	}
	if err != nil {
		writeStoreError(w, err, "create person")
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (ph *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := ph.Store.ListPeople(r.Context())
	if err != nil {
		writeStoreError(w, err, "retrieve people")
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := parseID(chi.URLParam(r, "person_id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid person ID format")
		return
	}

	person, err := ph.Store.GetPerson(r.Context(), personID)
	if err != nil {
		writeStoreError(w, err, "retrieve person")
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// AssignDocument links the document in the body to the person in the path.
func (ph *PersonHandler) AssignDocument(w http.ResponseWriter, r *http.Request) {
	personID, err := parseID(chi.URLParam(r, "person_id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid person ID format")
		return
	}

	var req struct {
		DocumentID *uint `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DocumentID == nil {
		WriteAPIError(w, http.StatusBadRequest, CodeValidationFailed, "Missing required field: document_id")
		return
	}

	person, err := ph.Store.AssignDocument(r.Context(), personID, *req.DocumentID)
	if err != nil {
		writeStoreError(w, err, "assign document")
		return
	}
	writeJSON(w, http.StatusOK, person)
}
