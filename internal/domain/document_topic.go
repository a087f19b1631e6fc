package domain

import (
	"github.com/google/uuid"
)

// DocumentTopic links a document to a topic. IsPrimary is true for the
// cluster the document was labeled into by the current clustering pass.
type DocumentTopic struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_document_topic,unique" json:"document_id"`
	TopicID    uuid.UUID `gorm:"type:uuid;not null;index:idx_document_topic,unique;index" json:"topic_id"`

	Document *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	Topic    *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"-"`

	RelevanceScore float64 `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`
	IsPrimary      bool    `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
}

func (DocumentTopic) TableName() string { return "document_topic" }
