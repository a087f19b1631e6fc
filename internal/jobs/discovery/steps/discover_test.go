package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/data/repos/testutil"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
)

// seedClusteredCollection creates two clearly separated document groups with
// pre-seeded embeddings so no provider embed calls are needed.
func seedClusteredCollection(t *testing.T, dbc dbctx.Context) (*domain.Collection, []*domain.Document) {
	t.Helper()
	coll := testutil.SeedCollection(t, dbc, "discover")

	groupA := [][]float32{{1, 0, 0}, {0.9, 0.1, 0}, {0.95, 0, 0.05}}
	groupB := [][]float32{{0, 1, 0}, {0, 0.9, 0.1}, {0.05, 0.95, 0}}

	var docs []*domain.Document
	for i, vec := range append(groupA, groupB...) {
		content := "networking protocols and sockets"
		if i >= len(groupA) {
			content = "gardening soil and compost"
		}
		doc := testutil.SeedDocument(t, dbc, coll.ID, content)
		testutil.SeedEmbedding(t, dbc, doc.ID, vec)
		docs = append(docs, doc)
	}
	return coll, docs
}

func discoverDeps(t *testing.T, dbc dbctx.Context, ai *stubAI) DiscoverTopicsDeps {
	t.Helper()
	log := testutil.Logger(t)
	return DiscoverTopicsDeps{
		DB:          dbc.Tx,
		Log:         log,
		Documents:   repos.NewDocumentRepo(dbc.Tx, log),
		Embeddings:  repos.NewDocumentEmbeddingRepo(dbc.Tx, log),
		Topics:      repos.NewTopicRepo(dbc.Tx, log),
		Assignments: repos.NewDocumentTopicRepo(dbc.Tx, log),
		AI:          ai,
	}
}

func namingStub() *stubAI {
	return &stubAI{textFn: func(system, user string) (string, error) {
		if strings.Contains(user, "networking") {
			return "Networking", nil
		}
		return "Gardening", nil
	}}
}

func TestDiscoverTopicsCreatesSlottedTopics(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	coll, docs := seedClusteredCollection(t, dbc)
	deps := discoverDeps(t, dbc, namingStub())

	out, err := DiscoverTopics(context.Background(), deps, DiscoverTopicsInput{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if out.DocumentCount != len(docs) || out.EmbeddedCount != len(docs) {
		t.Fatalf("counts = %d/%d, want %d/%d", out.DocumentCount, out.EmbeddedCount, len(docs), len(docs))
	}
	if len(out.Topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(out.Topics))
	}

	names := map[string]bool{}
	for _, topic := range out.Topics {
		names[topic.Name] = true
		if topic.DocumentCount != 3 {
			t.Errorf("topic %q document_count = %d, want 3", topic.Name, topic.DocumentCount)
		}
		if topic.SizeScore != 0.5 {
			t.Errorf("topic %q size_score = %v, want 0.5", topic.Name, topic.SizeScore)
		}
		if topic.AvgConfidence <= 0 || topic.AvgConfidence > 1 {
			t.Errorf("topic %q avg_confidence = %v", topic.Name, topic.AvgConfidence)
		}
	}
	if !names["Networking"] || !names["Gardening"] {
		t.Fatalf("topic names = %v", names)
	}

	assignments, err := deps.Assignments.ListByTopicIDs(dbc, []uuid.UUID{out.Topics[0].ID, out.Topics[1].ID})
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(assignments) != len(docs) {
		t.Fatalf("got %d assignments, want %d", len(assignments), len(docs))
	}
	for _, a := range assignments {
		if !a.IsPrimary {
			t.Errorf("assignment %v not primary", a.ID)
		}
		if a.RelevanceScore <= 0 || a.RelevanceScore > 1 {
			t.Errorf("relevance = %v", a.RelevanceScore)
		}
	}
}

func TestDiscoverTopicsRerunUpsertsBySlot(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	coll, docs := seedClusteredCollection(t, dbc)
	deps := discoverDeps(t, dbc, namingStub())

	first, err := DiscoverTopics(context.Background(), deps, DiscoverTopicsInput{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := DiscoverTopics(context.Background(), deps, DiscoverTopicsInput{CollectionID: coll.ID, Incremental: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	firstIDs := map[uuid.UUID]bool{}
	for _, topic := range first.Topics {
		firstIDs[topic.ID] = true
	}
	for _, topic := range second.Topics {
		if !firstIDs[topic.ID] {
			t.Fatalf("second run minted new topic %v instead of reusing slot", topic.ID)
		}
	}

	all, err := deps.Topics.ListByCollection(dbc, coll.ID)
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("topic rows = %d after rerun, want 2", len(all))
	}

	ids := make([]uuid.UUID, 0, len(all))
	for _, topic := range all {
		ids = append(ids, topic.ID)
	}
	assignments, err := deps.Assignments.ListByTopicIDs(dbc, ids)
	if err != nil {
		t.Fatalf("list assignments: %v", err)
	}
	if len(assignments) != len(docs) {
		t.Fatalf("assignment rows = %d after rerun, want %d", len(assignments), len(docs))
	}
}

func TestDiscoverTopicsEmptyCollection(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	coll := testutil.SeedCollection(t, dbc, "empty")
	deps := discoverDeps(t, dbc, &stubAI{})

	out, err := DiscoverTopics(context.Background(), deps, DiscoverTopicsInput{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("discover on empty collection: %v", err)
	}
	if out.DocumentCount != 0 || len(out.Topics) != 0 {
		t.Fatalf("expected empty output, got %+v", out)
	}
}

func TestBuildRelationshipsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	log := testutil.Logger(t)

	coll, _ := seedClusteredCollection(t, dbc)
	discDeps := discoverDeps(t, dbc, namingStub())
	if _, err := DiscoverTopics(context.Background(), discDeps, DiscoverTopicsInput{CollectionID: coll.ID}); err != nil {
		t.Fatalf("discover: %v", err)
	}

	relRepo := repos.NewTopicRelationshipRepo(dbc.Tx, log)
	relDeps := BuildRelationshipsDeps{
		Log:           log,
		Topics:        discDeps.Topics,
		Assignments:   discDeps.Assignments,
		Embeddings:    discDeps.Embeddings,
		Relationships: relRepo,
	}

	if _, err := BuildRelationships(context.Background(), relDeps, coll.ID); err != nil {
		t.Fatalf("first build: %v", err)
	}
	countAfterFirst, err := relRepo.CountByCollection(dbc, coll.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	if _, err := BuildRelationships(context.Background(), relDeps, coll.ID); err != nil {
		t.Fatalf("second build: %v", err)
	}
	countAfterSecond, err := relRepo.CountByCollection(dbc, coll.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if countAfterFirst != countAfterSecond {
		t.Fatalf("edge count changed across rebuilds: %d then %d", countAfterFirst, countAfterSecond)
	}
}

func TestRecalculateRelevanceStable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	log := testutil.Logger(t)

	coll, _ := seedClusteredCollection(t, dbc)
	discDeps := discoverDeps(t, dbc, namingStub())
	out, err := DiscoverTopics(context.Background(), discDeps, DiscoverTopicsInput{CollectionID: coll.ID})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	rescoreDeps := RecalculateRelevanceDeps{
		Log:         log,
		Topics:      discDeps.Topics,
		Assignments: discDeps.Assignments,
		Embeddings:  discDeps.Embeddings,
	}

	snapshot := func() map[uuid.UUID]float64 {
		t.Helper()
		scores := map[uuid.UUID]float64{}
		for _, topic := range out.Topics {
			rows, err := discDeps.Assignments.ListByTopic(dbc, topic.ID, 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			for _, a := range rows {
				scores[a.ID] = a.RelevanceScore
			}
		}
		return scores
	}

	if err := RecalculateRelevance(context.Background(), rescoreDeps, coll.ID); err != nil {
		t.Fatalf("first rescore: %v", err)
	}
	first := snapshot()

	if err := RecalculateRelevance(context.Background(), rescoreDeps, coll.ID); err != nil {
		t.Fatalf("second rescore: %v", err)
	}
	second := snapshot()

	if len(first) == 0 {
		t.Fatal("no assignments rescored")
	}
	for id, score := range first {
		if second[id] != score {
			t.Fatalf("assignment %v score drifted: %v then %v", id, score, second[id])
		}
	}
}
