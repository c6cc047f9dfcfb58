package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/camden-git/docregistry/models"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

const migrationsTable = "schema_migrations"

type migration struct {
	Version    int
	Name       string
	Statements map[string][]string // keyed by dialect
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create_document",
		Statements: map[string][]string{
			dialectPostgres: {`
			CREATE TABLE IF NOT EXISTS document (
				id BIGSERIAL PRIMARY KEY,
				code VARCHAR(255) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
			dialectSQLite: {`
			CREATE TABLE IF NOT EXISTS document (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`},
		},
	},
	{
		Version: 2,
		Name:    "create_person",
		Statements: map[string][]string{
			dialectPostgres: {fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS person (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				document_id BIGINT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT %s UNIQUE (document_id),
				CONSTRAINT %s FOREIGN KEY (document_id) REFERENCES document (id)
			)`, models.PersonDocumentUniqueConstraint, models.PersonDocumentForeignKey)},
			dialectSQLite: {fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS person (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				document_id INTEGER NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				CONSTRAINT %s UNIQUE (document_id),
				CONSTRAINT %s FOREIGN KEY (document_id) REFERENCES document (id)
			)`, models.PersonDocumentUniqueConstraint, models.PersonDocumentForeignKey)},
		},
	},
	{
		Version: 3,
		Name:    "index_document_code",
		Statements: map[string][]string{
			dialectPostgres: {`CREATE INDEX IF NOT EXISTS idx_document_code ON document (code)`},
			dialectSQLite:   {`CREATE INDEX IF NOT EXISTS idx_document_code ON document (code)`},
		},
	},
}

func statementBuilder(dialect string) sq.StatementBuilderType {
	if dialect == dialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Migrate brings the schema up to date. Each migration runs in its own
// transaction and is recorded in schema_migrations; applied versions are skipped.
func Migrate(db *gorm.DB) error {
	dialect := db.Dialector.Name()
	if dialect != dialectPostgres && dialect != dialectSQLite {
		return fmt.Errorf("no migrations for dialect '%s'", dialect)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	ledger := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at BIGINT NOT NULL
	);
	`
	if _, err := sqlDB.Exec(ledger); err != nil {
		return fmt.Errorf("failed to create %s table: %w", migrationsTable, err)
	}

	builder := statementBuilder(dialect)
	applied, err := appliedVersions(sqlDB, builder)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(sqlDB, builder, dialect, m); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"version": m.Version,
			"name":    m.Name,
		}).Info("Applied schema migration")
	}
	return nil
}

func appliedVersions(db *sql.DB, builder sq.StatementBuilderType) (map[int]bool, error) {
	sqlStr, args, err := builder.Select("version").From(migrationsTable).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for applied migrations: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func applyMigration(db *sql.DB, builder sq.StatementBuilderType, dialect string, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements[dialect] {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	sqlStr, args, err := builder.Insert(migrationsTable).
		Columns("version", "name", "applied_at").
		Values(m.Version, m.Name, time.Now().Unix()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for migration ledger: %w", err)
	}
	if _, err := tx.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version, or 0.
func SchemaVersion(db *gorm.DB) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlStr, args, err := statementBuilder(db.Dialector.Name()).
		Select("COALESCE(MAX(version), 0)").
		From(migrationsTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL query for SchemaVersion: %w", err)
	}

	var version int
	if err := sqlDB.QueryRow(sqlStr, args...).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}
