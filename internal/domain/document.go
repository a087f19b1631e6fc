package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CollectionID uuid.UUID   `gorm:"type:uuid;not null;index" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE;foreignKey:CollectionID;references:ID" json:"-"`

	Title   string `gorm:"column:title" json:"title,omitempty"`
	Content string `gorm:"column:content;type:text;not null" json:"content"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Document) TableName() string { return "document" }

// DocumentEmbedding holds the vector for exactly one document. It is written
// once and replaced (not edited) if the embedding model changes.
type DocumentEmbedding struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`

	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding;not null" json:"embedding"`
	Model     string         `gorm:"column:model" json:"model,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentEmbedding) TableName() string { return "document_embedding" }
