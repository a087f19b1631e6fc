package steps

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos/testutil"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
)

// fakeEmbeddingRepo keeps embedding rows in memory keyed by document id.
type fakeEmbeddingRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.DocumentEmbedding

	upsertErr error
}

func newFakeEmbeddingRepo() *fakeEmbeddingRepo {
	return &fakeEmbeddingRepo{rows: map[uuid.UUID]*domain.DocumentEmbedding{}}
}

func (f *fakeEmbeddingRepo) GetByDocumentIDs(_ dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.DocumentEmbedding
	for _, id := range documentIDs {
		if row, ok := f.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeEmbeddingRepo) Upsert(_ dbctx.Context, emb *domain.DocumentEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[emb.DocumentID] = emb
	return nil
}

func embedDocs(n int) []*domain.Document {
	out := make([]*domain.Document, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &domain.Document{ID: uuid.New(), Content: "some document content"})
	}
	return out
}

func TestEnsureEmbeddingsFetchesMissing(t *testing.T) {
	docs := embedDocs(3)
	repo := newFakeEmbeddingRepo()
	ai := &stubAI{embedFn: func(inputs []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}}

	out, err := EnsureEmbeddings(context.Background(), EnsureEmbeddingsDeps{
		Log:        testutil.Logger(t),
		Embeddings: repo,
		AI:         ai,
	}, docs)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d vectors, want 3", len(out))
	}
	for _, d := range docs {
		if _, ok := out[d.ID]; !ok {
			t.Errorf("document %v missing from result", d.ID)
		}
		row := repo.rows[d.ID]
		if row == nil {
			t.Errorf("document %v not persisted", d.ID)
			continue
		}
		if row.Model != "stub-embed" {
			t.Errorf("model = %q", row.Model)
		}
	}
}

func TestEnsureEmbeddingsReusesExisting(t *testing.T) {
	docs := embedDocs(2)
	repo := newFakeEmbeddingRepo()
	repo.rows[docs[0].ID] = &domain.DocumentEmbedding{
		DocumentID: docs[0].ID,
		Embedding:  vectorJSON([]float32{0, 1}),
	}

	calls := 0
	var mu sync.Mutex
	ai := &stubAI{embedFn: func(inputs []string) ([][]float32, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return [][]float32{{1, 0}}, nil
	}}

	out, err := EnsureEmbeddings(context.Background(), EnsureEmbeddingsDeps{
		Log:        testutil.Logger(t),
		Embeddings: repo,
		AI:         ai,
	}, docs)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d vectors, want 2", len(out))
	}
	if calls != 1 {
		t.Fatalf("provider called %d times, want 1", calls)
	}
	if vec := out[docs[0].ID]; vec[0] != 0 || vec[1] != 1 {
		t.Fatalf("cached vector not reused: %v", vec)
	}
}

func TestEnsureEmbeddingsSkipsProviderFailures(t *testing.T) {
	docs := embedDocs(2)
	docs[0].Content = "poison document"
	repo := newFakeEmbeddingRepo()
	ai := &stubAI{embedFn: func(inputs []string) ([][]float32, error) {
		if strings.Contains(inputs[0], "poison") {
			return nil, errors.New("provider rejected input")
		}
		return [][]float32{{1, 0}}, nil
	}}

	out, err := EnsureEmbeddings(context.Background(), EnsureEmbeddingsDeps{
		Log:        testutil.Logger(t),
		Embeddings: repo,
		AI:         ai,
	}, docs)
	if err != nil {
		t.Fatalf("per-document provider failure must not fail the batch: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d vectors, want 1", len(out))
	}
	if _, ok := out[docs[0].ID]; ok {
		t.Fatal("failed document should be skipped")
	}
}

func TestEnsureEmbeddingsStoreFailureIsFatal(t *testing.T) {
	docs := embedDocs(1)
	repo := newFakeEmbeddingRepo()
	repo.upsertErr = errors.New("disk full")
	ai := &stubAI{embedFn: func(inputs []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}}

	_, err := EnsureEmbeddings(context.Background(), EnsureEmbeddingsDeps{
		Log:        testutil.Logger(t),
		Embeddings: repo,
		AI:         ai,
	}, docs)
	if err == nil {
		t.Fatal("store failure must fail the batch")
	}
}

func TestEnsureEmbeddingsTruncatesInput(t *testing.T) {
	docs := embedDocs(1)
	docs[0].Content = strings.Repeat("x", maxEmbedInputChars+500)
	repo := newFakeEmbeddingRepo()
	ai := &stubAI{embedFn: func(inputs []string) ([][]float32, error) {
		if len(inputs[0]) != maxEmbedInputChars {
			t.Errorf("input length = %d, want %d", len(inputs[0]), maxEmbedInputChars)
		}
		return [][]float32{{1, 0}}, nil
	}}

	if _, err := EnsureEmbeddings(context.Background(), EnsureEmbeddingsDeps{
		Log:        testutil.Logger(t),
		Embeddings: repo,
		AI:         ai,
	}, docs); err != nil {
		t.Fatalf("ensure: %v", err)
	}
}
