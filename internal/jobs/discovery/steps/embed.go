package steps

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

// maxEmbedInputChars bounds the content prefix sent to the embedding
// provider, matching its input limit.
const maxEmbedInputChars = 8000

// embedConcurrency bounds parallel provider calls; embedding rows are
// independent per document, so the writes cannot race each other.
const embedConcurrency = 4

type EnsureEmbeddingsDeps struct {
	Log        *logger.Logger
	Embeddings repos.DocumentEmbeddingRepo
	AI         openai.Client
}

// EnsureEmbeddings returns a vector for every document that has one, fetching
// and persisting the missing ones. A provider failure on one document skips
// that document and keeps the batch going; only store failures are fatal.
func EnsureEmbeddings(ctx context.Context, deps EnsureEmbeddingsDeps, docs []*domain.Document) (map[uuid.UUID][]float32, error) {
	out := make(map[uuid.UUID][]float32, len(docs))
	if len(docs) == 0 {
		return out, nil
	}

	docIDs := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		if d != nil && d.ID != uuid.Nil {
			docIDs = append(docIDs, d.ID)
		}
	}

	existing, err := deps.Embeddings.GetByDocumentIDs(dbctx.Context{Ctx: ctx}, docIDs)
	if err != nil {
		return nil, err
	}
	for _, emb := range existing {
		if vec, ok := parseFloat32ArrayJSON(emb.Embedding); ok {
			out[emb.DocumentID] = vec
		}
	}

	var missing []*domain.Document
	for _, d := range docs {
		if d == nil || d.ID == uuid.Nil {
			continue
		}
		if _, ok := out[d.ID]; !ok {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for _, doc := range missing {
		doc := doc
		g.Go(func() error {
			text := truncateText(doc.Content, maxEmbedInputChars)
			vecs, embedErr := deps.AI.Embed(gctx, []string{text})
			if embedErr != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
				deps.Log.Warn("Embedding failed; skipping document for this pass",
					"document_id", doc.ID, "error", embedErr)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			vec := vecs[0]

			if err := deps.Embeddings.Upsert(dbctx.Context{Ctx: gctx}, &domain.DocumentEmbedding{
				ID:         uuid.New(),
				DocumentID: doc.ID,
				Embedding:  vectorJSON(vec),
				Model:      deps.AI.EmbedModel(),
			}); err != nil {
				return err
			}

			mu.Lock()
			out[doc.ID] = vec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		deps.Log.Warn("Some documents excluded from clustering pass",
			"skipped", skipped, "embedded", len(out))
	}
	return out, nil
}
