package models

import "time"

// Document represents an identity document (passport, national ID card...).
// It corresponds to the 'document' table.
type Document struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"not null;index:idx_document_code" json:"code"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Person is the owner, if any. It is never stored on this table: GORM
	// resolves it from person.document_id when preloaded.
	Person *Person `gorm:"foreignKey:DocumentID" json:"person,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Document) TableName() string {
	return "document"
}
