package domain

import (
	"time"

	"github.com/google/uuid"
)

// Topic is one discovered cluster of a collection. ClusterSlot is the cluster
// index from the most recent clustering run; it is the only identity carried
// across incremental runs, so slot N after a re-cluster may describe different
// content than slot N before.
type Topic struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CollectionID uuid.UUID   `gorm:"type:uuid;not null;index:idx_topic_collection_slot,unique" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE;foreignKey:CollectionID;references:ID" json:"-"`

	Name          string  `gorm:"column:name;not null" json:"name"`
	ClusterSlot   int     `gorm:"column:cluster_slot;not null;index:idx_topic_collection_slot,unique" json:"cluster_slot"`
	DocumentCount int     `gorm:"column:document_count;not null;default:0" json:"document_count"`
	SizeScore     float64 `gorm:"column:size_score;not null;default:0" json:"size_score"`
	AvgConfidence float64 `gorm:"column:avg_confidence;not null;default:0" json:"avg_confidence"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
