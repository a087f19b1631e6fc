package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
)

func SeedCollection(tb testing.TB, dbc dbctx.Context, name string) *domain.Collection {
	tb.Helper()
	c := &domain.Collection{
		ID:   uuid.New(),
		Name: name,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed collection: %v", err)
	}
	return c
}

func SeedDocument(tb testing.TB, dbc dbctx.Context, collectionID uuid.UUID, content string) *domain.Document {
	tb.Helper()
	d := &domain.Document{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Title:        "doc",
		Content:      content,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedEmbedding(tb testing.TB, dbc dbctx.Context, documentID uuid.UUID, vec []float32) *domain.DocumentEmbedding {
	tb.Helper()
	raw := "["
	for i, v := range vec {
		if i > 0 {
			raw += ","
		}
		raw += fmt.Sprintf("%g", v)
	}
	raw += "]"
	e := &domain.DocumentEmbedding{
		ID:         uuid.New(),
		DocumentID: documentID,
		Embedding:  datatypes.JSON([]byte(raw)),
		Model:      "test-embed",
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed embedding: %v", err)
	}
	return e
}

func SeedTopic(tb testing.TB, dbc dbctx.Context, collectionID uuid.UUID, slot int, name string) *domain.Topic {
	tb.Helper()
	t := &domain.Topic{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Name:         name,
		ClusterSlot:  slot,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed topic: %v", err)
	}
	return t
}

func SeedAssignment(tb testing.TB, dbc dbctx.Context, documentID, topicID uuid.UUID, relevance float64) *domain.DocumentTopic {
	tb.Helper()
	a := &domain.DocumentTopic{
		ID:             uuid.New(),
		DocumentID:     documentID,
		TopicID:        topicID,
		RelevanceScore: relevance,
		IsPrimary:      true,
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedJobRun(tb testing.TB, dbc dbctx.Context, collectionID uuid.UUID, status string) *domain.JobRun {
	tb.Helper()
	payload := fmt.Sprintf(`{"collection_id":%q,"incremental":false}`, collectionID)
	j := &domain.JobRun{
		ID:           uuid.New(),
		CollectionID: collectionID,
		JobType:      domain.JobTypeTopicDiscovery,
		Status:       status,
		Payload:      datatypes.JSON([]byte(payload)),
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed job run: %v", err)
	}
	return j
}
