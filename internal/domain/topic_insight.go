package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TopicInsight is the one-per-topic structured summary. List columns hold at
// most five entries each; the whole row is regenerated on each insight pass.
type TopicInsight struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"topic_id"`
	Topic   *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"-"`

	Summary         string         `gorm:"column:summary;type:text" json:"summary"`
	Themes          datatypes.JSON `gorm:"type:jsonb;column:themes" json:"themes"`
	CommonQuestions datatypes.JSON `gorm:"type:jsonb;column:common_questions" json:"common_questions"`
	RelatedConcepts datatypes.JSON `gorm:"type:jsonb;column:related_concepts" json:"related_concepts"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TopicInsight) TableName() string { return "topic_insight" }
