package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/jobs/discovery/steps"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

type DocumentInput struct {
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
}

type DocumentService interface {
	Add(ctx context.Context, collectionID uuid.UUID, in DocumentInput) (*domain.Document, error)
	AddBatch(ctx context.Context, collectionID uuid.UUID, inputs []DocumentInput) ([]*domain.Document, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Document, error)
}

type documentService struct {
	log         *logger.Logger
	collections repos.CollectionRepo
	documents   repos.DocumentRepo
	embeddings  repos.DocumentEmbeddingRepo
	ai          openai.Client
}

func NewDocumentService(
	baseLog *logger.Logger,
	collections repos.CollectionRepo,
	documents repos.DocumentRepo,
	embeddings repos.DocumentEmbeddingRepo,
	ai openai.Client,
) DocumentService {
	return &documentService{
		log:         baseLog.With("service", "DocumentService"),
		collections: collections,
		documents:   documents,
		embeddings:  embeddings,
		ai:          ai,
	}
}

// deriveTitle falls back to the first line of the content's leading 100
// characters, then to a positional name within the collection.
func deriveTitle(title, content string, ordinal int64) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}
	head := content
	if len(head) > 100 {
		head = head[:100]
	}
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	head = strings.TrimSpace(head)
	if head != "" {
		return head
	}
	return fmt.Sprintf("Document %d", ordinal)
}

func (s *documentService) Add(ctx context.Context, collectionID uuid.UUID, in DocumentInput) (*domain.Document, error) {
	docs, err := s.AddBatch(ctx, collectionID, []DocumentInput{in})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document was not created")
	}
	return docs[0], nil
}

// AddBatch persists the documents and then embeds them best-effort. A document
// whose embedding call fails is still saved; the discovery pipeline embeds
// stragglers on its next pass.
func (s *documentService) AddBatch(ctx context.Context, collectionID uuid.UUID, inputs []DocumentInput) ([]*domain.Document, error) {
	dbc := dbctx.Context{Ctx: ctx}

	coll, err := s.collections.GetByID(dbc, collectionID)
	if err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, fmt.Errorf("collection %s not found", collectionID)
	}

	existing, err := s.documents.CountByCollection(dbc, collectionID)
	if err != nil {
		return nil, err
	}

	docs := make([]*domain.Document, 0, len(inputs))
	for i, in := range inputs {
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return nil, fmt.Errorf("document %d has empty content", i)
		}
		docs = append(docs, &domain.Document{
			ID:           uuid.New(),
			CollectionID: collectionID,
			Title:        deriveTitle(in.Title, content, existing+int64(i)+1),
			Content:      content,
		})
	}

	created, err := s.documents.Create(dbc, docs)
	if err != nil {
		return nil, fmt.Errorf("create documents: %w", err)
	}

	if _, embErr := steps.EnsureEmbeddings(ctx, steps.EnsureEmbeddingsDeps{
		Log:        s.log,
		Embeddings: s.embeddings,
		AI:         s.ai,
	}, created); embErr != nil {
		s.log.Warn("Eager embedding pass failed; documents saved without vectors",
			"collection_id", collectionID, "error", embErr)
	}

	s.log.Info("Documents added", "collection_id", collectionID, "count", len(created))
	return created, nil
}

func (s *documentService) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Document, error) {
	return s.documents.ListByCollection(dbctx.Context{Ctx: ctx}, collectionID)
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	docs, err := s.documents.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}
