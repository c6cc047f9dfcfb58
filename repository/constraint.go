package repository

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/camden-git/docregistry/models"
)

// SQLSTATE codes from the integrity constraint violation class.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// Postgres puts the offending key in the detail line, e.g.
// "Key (document_id)=(2) already exists."
var pgKeyDetail = regexp.MustCompile(`Key \(([^)]*)\)=\(([^)]*)\)`)

// SQLite reports no constraint names, only "table.column", so they are
// resolved against the schema.
var sqliteConstraintNames = map[string]string{
	"person.document_id": models.PersonDocumentUniqueConstraint,
}

// TranslateError converts driver-level constraint errors into
// *ConstraintViolationError. Any other error is returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return translatePostgres(pgErr, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return translateSQLite(sqliteErr, err)
	}

	return err
}

func translatePostgres(pgErr *pgconn.PgError, err error) error {
	var kind ConstraintKind
	switch pgErr.Code {
	case pgUniqueViolation:
		kind = ConstraintUnique
	case pgForeignKeyViolation:
		kind = ConstraintForeignKey
	default:
		return err
	}

	cv := &ConstraintViolationError{
		Kind:       kind,
		Constraint: pgErr.ConstraintName,
		Table:      pgErr.TableName,
		Column:     pgErr.ColumnName,
		Err:        err,
	}
	if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); m != nil {
		cv.Column = m[1]
		cv.Value = m[2]
	}
	return cv
}

func translateSQLite(sqliteErr sqlite3.Error, err error) error {
	var kind ConstraintKind
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		kind = ConstraintUnique
	case sqlite3.ErrConstraintForeignKey:
		kind = ConstraintForeignKey
	default:
		return err
	}

	cv := &ConstraintViolationError{Kind: kind, Err: err}

	// "UNIQUE constraint failed: person.document_id"
	msg := sqliteErr.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 && kind == ConstraintUnique {
		target := strings.TrimSpace(msg[idx+2:])
		if table, column, ok := strings.Cut(target, "."); ok {
			cv.Table = table
			cv.Column = column
		}
		cv.Constraint = sqliteConstraintNames[target]
	}
	return cv
}
