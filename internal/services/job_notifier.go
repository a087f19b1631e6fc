package services

import (
	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/sse"
)

// JobNotifier publishes job lifecycle events to whoever is watching the
// collection. The job runtime calls it as a side channel; persistence of the
// job row itself never depends on delivery.
type JobNotifier interface {
	JobCreated(collectionID uuid.UUID, job *domain.JobRun)
	JobProgress(collectionID uuid.UUID, job *domain.JobRun, stage string, progress float64, message string)
	JobFailed(collectionID uuid.UUID, job *domain.JobRun, stage string, errorMessage string)
	JobDone(collectionID uuid.UUID, job *domain.JobRun)
}

type jobNotifier struct {
	hub *sse.SSEHub
}

func NewJobNotifier(hub *sse.SSEHub) JobNotifier {
	return &jobNotifier{hub: hub}
}

func (n *jobNotifier) JobCreated(collectionID uuid.UUID, job *domain.JobRun) {
	n.hub.Broadcast(sse.SSEMessage{
		Channel: collectionID.String(),
		Event:   sse.SSEEventJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(collectionID uuid.UUID, job *domain.JobRun, stage string, progress float64, message string) {
	n.hub.Broadcast(sse.SSEMessage{
		Channel: collectionID.String(),
		Event:   sse.SSEEventJobProgress,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"stage":    stage,
			"progress": progress,
			"message":  message,
		},
	})
}

func (n *jobNotifier) JobFailed(collectionID uuid.UUID, job *domain.JobRun, stage string, errorMessage string) {
	n.hub.Broadcast(sse.SSEMessage{
		Channel: collectionID.String(),
		Event:   sse.SSEEventJobFailed,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"stage":    stage,
			"error":    errorMessage,
		},
	})
}

func (n *jobNotifier) JobDone(collectionID uuid.UUID, job *domain.JobRun) {
	n.hub.Broadcast(sse.SSEMessage{
		Channel: collectionID.String(),
		Event:   sse.SSEEventJobDone,
		Data: map[string]any{
			"job_id":   job.ID,
			"job_type": job.JobType,
		},
	})
}
