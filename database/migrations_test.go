package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/docregistry/config"
	"github.com/camden-git/docregistry/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitGormDB(config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabasePath:   filepath.Join(t.TempDir(), "migrations.db"),
		DBLogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.Document{}))
	assert.True(t, db.Migrator().HasTable(&models.Person{}))
	assert.True(t, db.Migrator().HasIndex(&models.Document{}, "idx_document_code"))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Table(migrationsTable).Count(&count).Error)
	assert.Equal(t, int64(len(migrations)), count)
}

func TestSchemaEnforcesOneDocumentPerPerson(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Exec(`INSERT INTO document (code) VALUES ('XD892342')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO person (name, document_id) VALUES ('John Smith', 1)`).Error)

	err := db.Exec(`INSERT INTO person (name, document_id) VALUES ('Mary Jane', 1)`).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed: person.document_id")

	// NULL is not a conflict
	require.NoError(t, db.Exec(`INSERT INTO person (name) VALUES ('Mary Jane')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO person (name) VALUES ('Peter Parker')`).Error)
}

func TestSchemaEnforcesForeignKey(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	err := db.Exec(`INSERT INTO person (name, document_id) VALUES ('John Smith', 42)`).Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY constraint failed")
}

func TestSchemaVersionBeforeMigrate(t *testing.T) {
	db := openTestDB(t)

	_, err := SchemaVersion(db)
	assert.Error(t, err, "ledger table does not exist yet")
}

func TestInitGormDBRejectsUnknownDriver(t *testing.T) {
	_, err := InitGormDB(config.Config{DatabaseDriver: "oracle"})
	assert.Error(t, err)
}
