package domain

import (
	"github.com/google/uuid"
)

const (
	RelationshipStronglyRelated = "STRONGLY_RELATED"
	RelationshipRelated         = "RELATED"
	RelationshipSharedDocuments = "SHARED_DOCUMENTS"
	RelationshipSimilar         = "SIMILAR"
)

// TopicRelationship is an undirected edge stored once per unordered pair.
// Source/target orientation is canonical (source id sorts below target id)
// so (A,B) and (B,A) cannot both exist.
type TopicRelationship struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceTopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_relationship_pair,unique" json:"source_topic_id"`
	TargetTopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_relationship_pair,unique" json:"target_topic_id"`

	SourceTopic *Topic `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceTopicID;references:ID" json:"-"`
	TargetTopic *Topic `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetTopicID;references:ID" json:"-"`

	SimilarityScore     float64 `gorm:"column:similarity_score;not null;default:0" json:"similarity_score"`
	RelationshipType    string  `gorm:"column:relationship_type" json:"relationship_type"`
	CommonDocumentCount int     `gorm:"column:common_document_count;not null;default:0" json:"common_document_count"`
}

func (TopicRelationship) TableName() string { return "topic_relationship" }
