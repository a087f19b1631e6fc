package steps

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

type DiscoverTopicsDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Documents   repos.DocumentRepo
	Embeddings  repos.DocumentEmbeddingRepo
	Topics      repos.TopicRepo
	Assignments repos.DocumentTopicRepo
	AI          openai.Client
}

type DiscoverTopicsInput struct {
	CollectionID uuid.UUID
	Incremental  bool
}

type DiscoverTopicsOutput struct {
	Topics        []*domain.Topic
	DocumentCount int
	EmbeddedCount int
}

// DiscoverTopics clusters a collection's embedded documents into topics and
// persists topics plus primary assignments in one transaction. Topics are
// re-identified across runs purely by cluster slot: a topic row that already
// holds a slot is updated in place, never duplicated. Incremental and full
// runs share that upsert path; the flag only reflects why the run was asked
// for.
func DiscoverTopics(ctx context.Context, deps DiscoverTopicsDeps, in DiscoverTopicsInput) (DiscoverTopicsOutput, error) {
	var out DiscoverTopicsOutput

	docs, err := deps.Documents.ListByCollection(dbctx.Context{Ctx: ctx}, in.CollectionID)
	if err != nil {
		return out, err
	}
	out.DocumentCount = len(docs)
	if len(docs) == 0 {
		return out, nil
	}

	vecByDoc, err := EnsureEmbeddings(ctx, EnsureEmbeddingsDeps{
		Log:        deps.Log,
		Embeddings: deps.Embeddings,
		AI:         deps.AI,
	}, docs)
	if err != nil {
		return out, err
	}
	out.EmbeddedCount = len(vecByDoc)
	if len(vecByDoc) == 0 {
		deps.Log.Warn("No embeddable documents in collection; skipping clustering",
			"collection_id", in.CollectionID)
		return out, nil
	}

	docsByID := make(map[uuid.UUID]*domain.Document, len(docs))
	vecs := make([]docVec, 0, len(vecByDoc))
	for _, d := range docs {
		docsByID[d.ID] = d
		if vec, ok := vecByDoc[d.ID]; ok {
			vecs = append(vecs, docVec{DocID: d.ID, Vec: vec})
		}
	}

	k := chooseK(len(vecs))
	clusters := kmeans(vecs, k)

	// Provider calls stay outside the write transaction.
	names := make(map[int]string, len(clusters))
	for _, cl := range clusters {
		if len(cl.Members) == 0 {
			continue
		}
		names[cl.Slot] = topicName(ctx, deps.Log, deps.AI, cl, docsByID)
	}

	now := time.Now()
	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, cl := range clusters {
			if len(cl.Members) == 0 {
				continue
			}

			var avgConfidence float64
			scores := make(map[uuid.UUID]float64, len(cl.Members))
			for _, m := range cl.Members {
				// Stored relevance is always in [0,1]; cosine can dip below
				// zero for off-cluster vectors.
				s := clamp01(cosineSimilarity(m.Vec, cl.Centroid))
				scores[m.DocID] = s
				avgConfidence += s
			}
			avgConfidence /= float64(len(cl.Members))

			topic, err := deps.Topics.GetBySlot(dbc, in.CollectionID, cl.Slot)
			if err != nil {
				return err
			}
			if topic == nil {
				topic, err = deps.Topics.Create(dbc, &domain.Topic{
					ID:            uuid.New(),
					CollectionID:  in.CollectionID,
					Name:          names[cl.Slot],
					ClusterSlot:   cl.Slot,
					DocumentCount: len(cl.Members),
					SizeScore:     float64(len(cl.Members)) / float64(len(docs)),
					AvgConfidence: avgConfidence,
					CreatedAt:     now,
					UpdatedAt:     now,
				})
				if err != nil {
					return err
				}
			} else {
				if err := deps.Topics.UpdateFields(dbc, topic.ID, map[string]interface{}{
					"name":           names[cl.Slot],
					"document_count": len(cl.Members),
					"size_score":     float64(len(cl.Members)) / float64(len(docs)),
					"avg_confidence": avgConfidence,
				}); err != nil {
					return err
				}
				topic.Name = names[cl.Slot]
				topic.DocumentCount = len(cl.Members)
				topic.SizeScore = float64(len(cl.Members)) / float64(len(docs))
				topic.AvgConfidence = avgConfidence
			}

			for _, m := range cl.Members {
				if err := deps.Assignments.Upsert(dbc, &domain.DocumentTopic{
					ID:             uuid.New(),
					DocumentID:     m.DocID,
					TopicID:        topic.ID,
					RelevanceScore: scores[m.DocID],
					IsPrimary:      true,
				}); err != nil {
					return err
				}
			}

			out.Topics = append(out.Topics, topic)
		}
		return nil
	})
	if err != nil {
		out.Topics = nil
		return out, err
	}

	deps.Log.Info("Topic discovery pass complete",
		"collection_id", in.CollectionID,
		"documents", out.DocumentCount,
		"embedded", out.EmbeddedCount,
		"clusters", len(out.Topics),
		"incremental", in.Incremental,
	)
	return out, nil
}
