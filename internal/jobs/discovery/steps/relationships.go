package steps

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

// relationshipThreshold gates edge materialization; pairs at or below it are
// neither created nor updated. Edges that later drop under the threshold are
// intentionally not removed (known behavior of the rebuild).
const relationshipThreshold = 0.3

type BuildRelationshipsDeps struct {
	Log           *logger.Logger
	Topics        repos.TopicRepo
	Assignments   repos.DocumentTopicRepo
	Embeddings    repos.DocumentEmbeddingRepo
	Relationships repos.TopicRelationshipRepo
}

// classifyRelationship orders the ladder strictly: strong similarity wins,
// then plain similarity, then document overlap, then the residual bucket.
func classifyRelationship(similarity float64, commonCount int) string {
	switch {
	case similarity > 0.7:
		return domain.RelationshipStronglyRelated
	case similarity > 0.5:
		return domain.RelationshipRelated
	case commonCount > 0:
		return domain.RelationshipSharedDocuments
	default:
		return domain.RelationshipSimilar
	}
}

// canonicalPair fixes the stored orientation of an unordered topic pair so
// (A,B) and (B,A) map to one row.
func canonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

// BuildRelationships recomputes pairwise topic similarity from centroid
// embeddings and document overlap, upserting qualifying edges. Calling it
// twice on unchanged data changes nothing and adds no rows.
func BuildRelationships(ctx context.Context, deps BuildRelationshipsDeps, collectionID uuid.UUID) ([]*domain.TopicRelationship, error) {
	dbc := dbctx.Context{Ctx: ctx}

	topics, err := deps.Topics.ListByCollection(dbc, collectionID)
	if err != nil {
		return nil, err
	}
	if len(topics) < 2 {
		return nil, nil
	}

	topicIDs := make([]uuid.UUID, 0, len(topics))
	for _, t := range topics {
		topicIDs = append(topicIDs, t.ID)
	}
	assignments, err := deps.Assignments.ListByTopicIDs(dbc, topicIDs)
	if err != nil {
		return nil, err
	}

	docSets := make(map[uuid.UUID]map[uuid.UUID]bool, len(topics))
	var allDocIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, a := range assignments {
		set, ok := docSets[a.TopicID]
		if !ok {
			set = map[uuid.UUID]bool{}
			docSets[a.TopicID] = set
		}
		set[a.DocumentID] = true
		if !seen[a.DocumentID] {
			seen[a.DocumentID] = true
			allDocIDs = append(allDocIDs, a.DocumentID)
		}
	}

	embeddings, err := deps.Embeddings.GetByDocumentIDs(dbc, allDocIDs)
	if err != nil {
		return nil, err
	}
	vecByDoc := make(map[uuid.UUID][]float32, len(embeddings))
	for _, emb := range embeddings {
		if vec, ok := parseFloat32ArrayJSON(emb.Embedding); ok {
			vecByDoc[emb.DocumentID] = vec
		}
	}

	centroids := make(map[uuid.UUID][]float32, len(topics))
	for topicID, docs := range docSets {
		vecs := make([][]float32, 0, len(docs))
		for docID := range docs {
			if vec, ok := vecByDoc[docID]; ok {
				vecs = append(vecs, vec)
			}
		}
		if centroid, ok := meanVector(vecs); ok {
			centroids[topicID] = centroid
		}
	}

	var out []*domain.TopicRelationship
	for i := 0; i < len(topics); i++ {
		a := topics[i]
		centroidA, ok := centroids[a.ID]
		if !ok {
			continue
		}
		for j := i + 1; j < len(topics); j++ {
			b := topics[j]
			centroidB, ok := centroids[b.ID]
			if !ok {
				continue
			}

			similarity := cosineSimilarity(centroidA, centroidB)
			if similarity <= relationshipThreshold {
				continue
			}

			common := 0
			for docID := range docSets[a.ID] {
				if docSets[b.ID][docID] {
					common++
				}
			}
			relType := classifyRelationship(similarity, common)

			existing, err := deps.Relationships.GetByPair(dbc, a.ID, b.ID)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				if err := deps.Relationships.UpdateFields(dbc, existing.ID, map[string]interface{}{
					"similarity_score":      similarity,
					"common_document_count": common,
					"relationship_type":     relType,
				}); err != nil {
					return nil, err
				}
				existing.SimilarityScore = similarity
				existing.CommonDocumentCount = common
				existing.RelationshipType = relType
				out = append(out, existing)
				continue
			}

			source, target := canonicalPair(a.ID, b.ID)
			rel, err := deps.Relationships.Create(dbc, &domain.TopicRelationship{
				ID:                  uuid.New(),
				SourceTopicID:       source,
				TargetTopicID:       target,
				SimilarityScore:     similarity,
				RelationshipType:    relType,
				CommonDocumentCount: common,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
	}

	deps.Log.Info("Relationship build complete",
		"collection_id", collectionID,
		"topics", len(topics),
		"relationships", len(out),
	)
	return out, nil
}
