package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError reports a missing required field. It is raised before the
// store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: %s is required", e.Field)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports that an identifier does not resolve to a row.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is lets callers keep matching on gorm.ErrRecordNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == gorm.ErrRecordNotFound
}

type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintViolationError is a write the datastore rejected because of a
// schema constraint. Value holds the offending key as text.
type ConstraintViolationError struct {
	Kind       ConstraintKind
	Constraint string
	Table      string
	Column     string
	Value      string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	msg := fmt.Sprintf("%s constraint %q violated", e.Kind, e.Constraint)
	if e.Column == "" {
		return msg
	}
	msg += fmt.Sprintf(": key (%s)=(%s)", e.Column, e.Value)
	if e.Kind == ConstraintUnique {
		return msg + " already exists"
	}
	return msg + " is not present"
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

func (e *ConstraintViolationError) Is(target error) bool {
	switch e.Kind {
	case ConstraintUnique:
		return target == gorm.ErrDuplicatedKey
	case ConstraintForeignKey:
		return target == gorm.ErrForeignKeyViolated
	}
	return false
}

// IsConstraintViolation returns the ConstraintViolationError in err's chain, if any.
func IsConstraintViolation(err error) (*ConstraintViolationError, bool) {
	var cv *ConstraintViolationError
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}
