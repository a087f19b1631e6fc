package steps

import (
	"context"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type RecalculateRelevanceDeps struct {
	Log         *logger.Logger
	Topics      repos.TopicRepo
	Assignments repos.DocumentTopicRepo
	Embeddings  repos.DocumentEmbeddingRepo
}

// RecalculateRelevance rebuilds every topic's centroid from its currently
// assigned documents and rescores each assignment against it. It corrects
// drift after incremental additions without a full re-cluster, and running
// it twice on unchanged data yields identical scores. Topics with no
// embedded assignments are left alone.
func RecalculateRelevance(ctx context.Context, deps RecalculateRelevanceDeps, collectionID uuid.UUID) error {
	dbc := dbctx.Context{Ctx: ctx}

	topics, err := deps.Topics.ListByCollection(dbc, collectionID)
	if err != nil {
		return err
	}

	for _, topic := range topics {
		assignments, err := deps.Assignments.ListByTopic(dbc, topic.ID, 0)
		if err != nil {
			return err
		}
		if len(assignments) == 0 {
			continue
		}

		docIDs := make([]uuid.UUID, 0, len(assignments))
		for _, a := range assignments {
			docIDs = append(docIDs, a.DocumentID)
		}
		embeddings, err := deps.Embeddings.GetByDocumentIDs(dbc, docIDs)
		if err != nil {
			return err
		}

		vecByDoc := make(map[uuid.UUID][]float32, len(embeddings))
		all := make([][]float32, 0, len(embeddings))
		for _, emb := range embeddings {
			if vec, ok := parseFloat32ArrayJSON(emb.Embedding); ok {
				vecByDoc[emb.DocumentID] = vec
				all = append(all, vec)
			}
		}
		centroid, ok := meanVector(all)
		if !ok {
			continue
		}

		var sum float64
		scored := 0
		for _, a := range assignments {
			vec, ok := vecByDoc[a.DocumentID]
			if !ok {
				continue
			}
			score := clamp01(cosineSimilarity(vec, centroid))
			if err := deps.Assignments.UpdateScore(dbc, a.ID, score); err != nil {
				return err
			}
			sum += score
			scored++
		}
		if scored > 0 {
			if err := deps.Topics.UpdateFields(dbc, topic.ID, map[string]interface{}{
				"avg_confidence": sum / float64(scored),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
