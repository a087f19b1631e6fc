package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type CollectionService interface {
	Create(ctx context.Context, name, description string) (*domain.Collection, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error)
	List(ctx context.Context) ([]*domain.Collection, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DocumentCount(ctx context.Context, id uuid.UUID) (int64, error)
}

type collectionService struct {
	log         *logger.Logger
	collections repos.CollectionRepo
	documents   repos.DocumentRepo
}

func NewCollectionService(baseLog *logger.Logger, collections repos.CollectionRepo, documents repos.DocumentRepo) CollectionService {
	return &collectionService{
		log:         baseLog.With("service", "CollectionService"),
		collections: collections,
		documents:   documents,
	}
}

func (s *collectionService) Create(ctx context.Context, name, description string) (*domain.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Collection"
	}
	c := &domain.Collection{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	created, err := s.collections.Create(dbctx.Context{Ctx: ctx}, c)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.log.Info("Collection created", "collection_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *collectionService) Get(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	return s.collections.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (s *collectionService) List(ctx context.Context) ([]*domain.Collection, error) {
	return s.collections.List(dbctx.Context{Ctx: ctx})
}

func (s *collectionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.collections.Delete(dbctx.Context{Ctx: ctx}, id); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	s.log.Info("Collection deleted", "collection_id", id)
	return nil
}

func (s *collectionService) DocumentCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.documents.CountByCollection(dbctx.Context{Ctx: ctx}, id)
}
