package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/docregistry/repository"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

const (
	CodeInvalidRequest          = "invalid_request"
	CodeValidationFailed        = "validation_failed"
	CodeNotFound                = "not_found"
	CodeDocumentAlreadyAssigned = "document_already_assigned"
	CodeConstraintViolation     = "constraint_violation"
	CodeInternal                = "internal_error"
)

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeStoreError maps store errors onto HTTP responses. Anything it does not
// recognise is logged and reported as a 500 without internals.
func writeStoreError(w http.ResponseWriter, err error, action string) {
	var ve *repository.ValidationError
	var nf *repository.NotFoundError

	switch {
	case errors.As(err, &ve):
		WriteAPIError(w, http.StatusBadRequest, CodeValidationFailed, ve.Error())
	case errors.As(err, &nf):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, nf.Error())
	default:
		if cv, ok := repository.IsConstraintViolation(err); ok {
			code := CodeConstraintViolation
			if cv.Kind == repository.ConstraintUnique {
				code = CodeDocumentAlreadyAssigned
			}
			WriteAPIError(w, http.StatusConflict, code, cv.Error())
			return
		}
		logrus.WithField("error", err).Errorf("Failed to %s", action)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to "+action)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Error("Error encoding JSON response")
		}
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid ID format")
	}
	return uint(id), nil
}
