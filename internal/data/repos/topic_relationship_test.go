package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/data/repos/testutil"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
)

func TestRelationshipGetByPairEitherOrientation(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewTopicRelationshipRepo(db, log)

	coll := testutil.SeedCollection(t, dbc, "pairs")
	a := testutil.SeedTopic(t, dbc, coll.ID, 0, "A")
	b := testutil.SeedTopic(t, dbc, coll.ID, 1, "B")

	created, err := repo.Create(dbc, &domain.TopicRelationship{
		ID:               uuid.New(),
		SourceTopicID:    a.ID,
		TargetTopicID:    b.ID,
		SimilarityScore:  0.6,
		RelationshipType: domain.RelationshipRelated,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	forward, err := repo.GetByPair(dbc, a.ID, b.ID)
	if err != nil {
		t.Fatalf("get forward: %v", err)
	}
	reverse, err := repo.GetByPair(dbc, b.ID, a.ID)
	if err != nil {
		t.Fatalf("get reverse: %v", err)
	}
	if forward == nil || reverse == nil {
		t.Fatal("pair lookup must match both orientations")
	}
	if forward.ID != created.ID || reverse.ID != created.ID {
		t.Fatalf("lookups found different rows: %v / %v", forward.ID, reverse.ID)
	}
}

func TestRelationshipListByCollectionScopes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewTopicRelationshipRepo(db, log)

	mine := testutil.SeedCollection(t, dbc, "mine")
	other := testutil.SeedCollection(t, dbc, "other")
	a := testutil.SeedTopic(t, dbc, mine.ID, 0, "A")
	b := testutil.SeedTopic(t, dbc, mine.ID, 1, "B")
	x := testutil.SeedTopic(t, dbc, other.ID, 0, "X")
	y := testutil.SeedTopic(t, dbc, other.ID, 1, "Y")

	for _, pair := range [][2]uuid.UUID{{a.ID, b.ID}, {x.ID, y.ID}} {
		if _, err := repo.Create(dbc, &domain.TopicRelationship{
			ID:               uuid.New(),
			SourceTopicID:    pair[0],
			TargetTopicID:    pair[1],
			SimilarityScore:  0.5,
			RelationshipType: domain.RelationshipSimilar,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rels, err := repo.ListByCollection(dbc, mine.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1", len(rels))
	}
	if rels[0].SourceTopicID != a.ID {
		t.Fatalf("wrong edge returned: %+v", rels[0])
	}

	n, err := repo.CountByCollection(dbc, mine.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestRelationshipUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := repos.NewTopicRelationshipRepo(db, log)

	coll := testutil.SeedCollection(t, dbc, "update")
	a := testutil.SeedTopic(t, dbc, coll.ID, 0, "A")
	b := testutil.SeedTopic(t, dbc, coll.ID, 1, "B")

	rel, err := repo.Create(dbc, &domain.TopicRelationship{
		ID:               uuid.New(),
		SourceTopicID:    a.ID,
		TargetTopicID:    b.ID,
		SimilarityScore:  0.4,
		RelationshipType: domain.RelationshipSimilar,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.UpdateFields(dbc, rel.ID, map[string]interface{}{
		"similarity_score":      0.8,
		"relationship_type":     domain.RelationshipStronglyRelated,
		"common_document_count": 3,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByPair(dbc, a.ID, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SimilarityScore != 0.8 || got.RelationshipType != domain.RelationshipStronglyRelated || got.CommonDocumentCount != 3 {
		t.Fatalf("update lost: %+v", got)
	}
}
