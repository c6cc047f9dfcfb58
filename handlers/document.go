package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/docregistry/models"
	"github.com/camden-git/docregistry/services"
)

type DocumentHandler struct {
	Store services.RelationshipStoreInterface
}

func (dh *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	document, err := dh.Store.CreateDocument(r.Context(), req.Code)
	if err != nil {
		writeStoreError(w, err, "create document")
		return
	}
	writeJSON(w, http.StatusCreated, document)
}

// ListDocuments returns every document ordered by ?sort=, or only those
// matching ?code=.
func (dh *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var (
		documents []models.Document
		err       error
	)
	if code := r.URL.Query().Get("code"); code != "" {
		documents, err = dh.Store.FindDocumentsByCode(r.Context(), code)
	} else {
		documents, err = dh.Store.ListDocuments(r.Context(), r.URL.Query().Get("sort"))
	}
	if err != nil {
		writeStoreError(w, err, "retrieve documents")
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}
	writeJSON(w, http.StatusOK, documents)
}

func (dh *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID, err := parseID(chi.URLParam(r, "document_id"))
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid document ID format")
		return
	}

	document, err := dh.Store.GetDocument(r.Context(), documentID)
	if err != nil {
		writeStoreError(w, err, "retrieve document")
		return
	}
	writeJSON(w, http.StatusOK, document)
}
