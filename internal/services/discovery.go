package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type DiscoveryService interface {
	Enqueue(ctx context.Context, collectionID uuid.UUID, incremental bool) (*domain.JobRun, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.JobRun, error)
	LatestJob(ctx context.Context, collectionID uuid.UUID) (*domain.JobRun, error)
}

type discoveryService struct {
	log         *logger.Logger
	collections repos.CollectionRepo
	jobs        repos.JobRunRepo
	notify      JobNotifier
}

func NewDiscoveryService(baseLog *logger.Logger, collections repos.CollectionRepo, jobs repos.JobRunRepo, notify JobNotifier) DiscoveryService {
	return &discoveryService{
		log:         baseLog.With("service", "DiscoveryService"),
		collections: collections,
		jobs:        jobs,
		notify:      notify,
	}
}

// Enqueue records a pending discovery run for the worker pool to claim.
// Multiple queued runs for one collection are allowed; the claim query keeps
// them from executing concurrently.
func (s *discoveryService) Enqueue(ctx context.Context, collectionID uuid.UUID, incremental bool) (*domain.JobRun, error) {
	dbc := dbctx.Context{Ctx: ctx}

	coll, err := s.collections.GetByID(dbc, collectionID)
	if err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, fmt.Errorf("collection %s not found", collectionID)
	}

	payload, _ := json.Marshal(map[string]any{
		"collection_id": collectionID,
		"incremental":   incremental,
	})
	job := &domain.JobRun{
		ID:           uuid.New(),
		CollectionID: collectionID,
		JobType:      domain.JobTypeTopicDiscovery,
		Status:       domain.JobStatusPending,
		Payload:      datatypes.JSON(payload),
	}
	created, err := s.jobs.Create(dbc, []*domain.JobRun{job})
	if err != nil {
		return nil, fmt.Errorf("enqueue discovery: %w", err)
	}
	job = created[0]

	s.log.Info("Discovery run queued",
		"collection_id", collectionID, "job_id", job.ID, "incremental", incremental)
	if s.notify != nil {
		s.notify.JobCreated(collectionID, job)
	}
	return job, nil
}

func (s *discoveryService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.JobRun, error) {
	return s.jobs.GetByID(dbctx.Context{Ctx: ctx}, jobID)
}

func (s *discoveryService) LatestJob(ctx context.Context, collectionID uuid.UUID) (*domain.JobRun, error) {
	return s.jobs.GetLatestByCollection(dbctx.Context{Ctx: ctx}, collectionID, domain.JobTypeTopicDiscovery)
}
