package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos/testutil"
	"github.com/topiclens/topiclens-backend/internal/domain"
)

func namedCluster(docID uuid.UUID) kCluster {
	return kCluster{
		Slot:     2,
		Centroid: []float32{1, 0},
		Members:  []docVec{{DocID: docID, Vec: []float32{1, 0}}},
	}
}

func TestTopicNameUsesProvider(t *testing.T) {
	docID := uuid.New()
	docs := map[uuid.UUID]*domain.Document{
		docID: {ID: docID, Content: "All about neural networks and training."},
	}
	ai := &stubAI{textFn: func(system, user string) (string, error) {
		if !strings.Contains(user, "neural networks") {
			t.Errorf("prompt missing document excerpt: %q", user)
		}
		return `"Neural Networks"`, nil
	}}

	got := topicName(context.Background(), testutil.Logger(t), ai, namedCluster(docID), docs)
	if got != "Neural Networks" {
		t.Fatalf("name = %q, want quotes stripped", got)
	}
}

func TestTopicNameFallbackOnProviderError(t *testing.T) {
	docID := uuid.New()
	docs := map[uuid.UUID]*domain.Document{
		docID: {ID: docID, Content: "content"},
	}
	ai := &stubAI{textFn: func(system, user string) (string, error) {
		return "", errors.New("rate limited")
	}}

	got := topicName(context.Background(), testutil.Logger(t), ai, namedCluster(docID), docs)
	if got != "Topic 3" {
		t.Fatalf("fallback = %q, want \"Topic 3\"", got)
	}
}

func TestTopicNameFallbackOnEmptyResponse(t *testing.T) {
	docID := uuid.New()
	docs := map[uuid.UUID]*domain.Document{
		docID: {ID: docID, Content: "content"},
	}
	ai := &stubAI{textFn: func(system, user string) (string, error) {
		return `  ""  `, nil
	}}

	got := topicName(context.Background(), testutil.Logger(t), ai, namedCluster(docID), docs)
	if got != "Topic 3" {
		t.Fatalf("fallback = %q, want \"Topic 3\"", got)
	}
}

func TestTopicNameFallbackWithoutExcerpts(t *testing.T) {
	docID := uuid.New()
	// The cluster member has no matching document, so there is nothing to
	// prompt with and the provider must not be called.
	ai := &stubAI{textFn: func(system, user string) (string, error) {
		t.Fatal("provider called with no excerpts")
		return "", nil
	}}

	got := topicName(context.Background(), testutil.Logger(t), ai, namedCluster(docID), map[uuid.UUID]*domain.Document{})
	if got != "Topic 3" {
		t.Fatalf("fallback = %q, want \"Topic 3\"", got)
	}
}
