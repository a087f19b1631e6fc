package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

const JobTypeTopicDiscovery = "topic_discovery"

// JobRun is one pipeline invocation. Progress is a fraction in [0,1],
// non-decreasing within a run, and reaches 1.0 only on success.
type JobRun struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CollectionID uuid.UUID   `gorm:"type:uuid;not null;index" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE;foreignKey:CollectionID;references:ID" json:"-"`

	JobType  string  `gorm:"column:job_type;not null;index" json:"job_type"`
	Status   string  `gorm:"column:status;not null;index" json:"status"`
	Stage    string  `gorm:"column:stage;not null" json:"stage"`
	Progress float64 `gorm:"column:progress;not null;default:0" json:"progress"`
	Message  string  `gorm:"column:message" json:"message,omitempty"`
	Error    string  `gorm:"column:error" json:"error,omitempty"`
	Attempts int     `gorm:"column:attempts;not null;default:0" json:"attempts"`

	LockedAt    *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`

	Payload datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Result  datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	CreatedAt   time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (JobRun) TableName() string { return "job_run" }
