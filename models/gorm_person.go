package models

import "time"

// Names of the constraints guarding the person -> document link.
const (
	PersonDocumentUniqueConstraint = "person_document_id_key"
	PersonDocumentForeignKey       = "person_document_id_fkey"
)

// Person represents a person in the database using GORM.
// It corresponds to the 'person' table.
type Person struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	DocumentID *uint     `gorm:"uniqueIndex:person_document_id_key" json:"document_id,omitempty"` // Nullable foreign key to document table
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`

	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"` // Belongs to Document
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "person"
}

// HasDocument reports whether the person currently holds documentID.
func (p *Person) HasDocument(documentID uint) bool {
	return p.DocumentID != nil && *p.DocumentID == documentID
}
