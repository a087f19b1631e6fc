package discovery

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/jobs/discovery/steps"
	"github.com/topiclens/topiclens-backend/internal/jobs/runtime"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
)

// Run executes the four discovery stages in order. Each stage commits its own
// writes before the next starts, so a failure mid-pipeline leaves the earlier
// stages' results in place and the run marked failed at the stage that broke.
func (p *Pipeline) Run(jc *runtime.Context) error {
	collectionID, ok := jc.PayloadUUID("collection_id")
	if !ok || collectionID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("payload missing collection_id"))
		return nil
	}
	incremental := jc.PayloadBool("incremental")

	log := p.log.With("job_run_id", jc.Job.ID, "collection_id", collectionID)

	coll, err := p.collections.GetByID(dbctx.Context{Ctx: jc.Ctx}, collectionID)
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	if coll == nil {
		jc.Fail("validate", fmt.Errorf("collection %s not found", collectionID))
		return nil
	}

	if err := jc.Ctx.Err(); err != nil {
		jc.Fail("validate", err)
		return nil
	}

	jc.Progress("discover_topics", 0.2, "Discovering topics")
	discovered, err := steps.DiscoverTopics(jc.Ctx, steps.DiscoverTopicsDeps{
		DB:          p.db,
		Log:         log,
		Documents:   p.documents,
		Embeddings:  p.embeddings,
		Topics:      p.topics,
		Assignments: p.assignments,
		AI:          p.ai,
	}, steps.DiscoverTopicsInput{CollectionID: collectionID, Incremental: incremental})
	if err != nil {
		jc.Fail("discover_topics", err)
		return nil
	}
	log.Info("topics discovered",
		"topics", len(discovered.Topics),
		"documents", discovered.DocumentCount,
		"embedded", discovered.EmbeddedCount,
		"incremental", incremental)

	if err := jc.Ctx.Err(); err != nil {
		jc.Fail("discover_topics", err)
		return nil
	}

	jc.Progress("build_relationships", 0.5, "Building topic relationships")
	rels, err := steps.BuildRelationships(jc.Ctx, steps.BuildRelationshipsDeps{
		Log:           log,
		Topics:        p.topics,
		Assignments:   p.assignments,
		Embeddings:    p.embeddings,
		Relationships: p.relationships,
	}, collectionID)
	if err != nil {
		jc.Fail("build_relationships", err)
		return nil
	}

	if err := jc.Ctx.Err(); err != nil {
		jc.Fail("build_relationships", err)
		return nil
	}

	jc.Progress("generate_insights", 0.7, "Generating topic insights")
	topicIDs := make([]uuid.UUID, 0, len(discovered.Topics))
	for _, t := range discovered.Topics {
		topicIDs = append(topicIDs, t.ID)
	}
	insights := steps.GenerateInsightBatch(jc.Ctx, steps.GenerateInsightDeps{
		Log:         log,
		Topics:      p.topics,
		Assignments: p.assignments,
		Documents:   p.documents,
		Insights:    p.insights,
		AI:          p.ai,
	}, topicIDs)

	if err := jc.Ctx.Err(); err != nil {
		jc.Fail("generate_insights", err)
		return nil
	}

	jc.Progress("recalculate_relevance", 0.9, "Recalculating relevance scores")
	if err := steps.RecalculateRelevance(jc.Ctx, steps.RecalculateRelevanceDeps{
		Log:         log,
		Topics:      p.topics,
		Assignments: p.assignments,
		Embeddings:  p.embeddings,
	}, collectionID); err != nil {
		jc.Fail("recalculate_relevance", err)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"collection_id":  collectionID,
		"incremental":    incremental,
		"topic_count":    len(discovered.Topics),
		"document_count": discovered.DocumentCount,
		"embedded_count": discovered.EmbeddedCount,
		"edge_count":     len(rels),
		"insight_count":  len(insights),
	})
	return nil
}
