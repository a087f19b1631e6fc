package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

const (
	insightCandidateDocs = 10
	insightSampleDocs    = 5
	insightExcerptChars  = 500
	insightPromptChars   = 3000
	insightListCap       = 5
)

const insightSystemPrompt = "You are a helpful assistant that analyzes documents and provides structured insights in JSON format."

type GenerateInsightDeps struct {
	Log         *logger.Logger
	Topics      repos.TopicRepo
	Assignments repos.DocumentTopicRepo
	Documents   repos.DocumentRepo
	Insights    repos.TopicInsightRepo
	AI          openai.Client
}

func insightSchema() map[string]any {
	stringList := map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string"},
		"maxItems": insightListCap,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary":          map[string]any{"type": "string"},
			"themes":           stringList,
			"common_questions": stringList,
			"related_concepts": stringList,
		},
		"required":             []string{"summary", "themes", "common_questions", "related_concepts"},
		"additionalProperties": false,
	}
}

// parseStringList tolerates whatever shape the model returned for a list
// field and caps the result; model output is untrusted text.
func parseStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, insightListCap)
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == insightListCap {
			break
		}
	}
	return out
}

func stringListJSON(v []string) datatypes.JSON {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}

func fallbackInsight(topic *domain.Topic) *domain.TopicInsight {
	return &domain.TopicInsight{
		ID:              uuid.New(),
		TopicID:         topic.ID,
		Summary:         fmt.Sprintf("Topic: %s", topic.Name),
		Themes:          stringListJSON(nil),
		CommonQuestions: stringListJSON(nil),
		RelatedConcepts: stringListJSON(nil),
	}
}

// GenerateInsight derives the structured summary for one topic from its most
// relevant documents. Provider failures and malformed responses degrade to a
// minimal insight; the upsert always leaves exactly one row for the topic.
func GenerateInsight(ctx context.Context, deps GenerateInsightDeps, topicID uuid.UUID) (*domain.TopicInsight, error) {
	dbc := dbctx.Context{Ctx: ctx}

	topic, err := deps.Topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, fmt.Errorf("topic %s not found", topicID)
	}

	assignments, err := deps.Assignments.ListByTopic(dbc, topicID, insightCandidateDocs)
	if err != nil {
		return nil, err
	}

	docIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		docIDs = append(docIDs, a.DocumentID)
	}
	docs, err := deps.Documents.GetByIDs(dbc, docIDs)
	if err != nil {
		return nil, err
	}
	docsByID := make(map[uuid.UUID]*domain.Document, len(docs))
	for _, d := range docs {
		docsByID[d.ID] = d
	}

	// Keep relevance order; GetByIDs does not.
	excerpts := make([]string, 0, insightSampleDocs)
	for _, a := range assignments {
		if len(excerpts) == insightSampleDocs {
			break
		}
		doc := docsByID[a.DocumentID]
		if doc == nil || strings.TrimSpace(doc.Content) == "" {
			continue
		}
		excerpts = append(excerpts, truncateText(doc.Content, insightExcerptChars))
	}

	insight := fallbackInsight(topic)
	if len(excerpts) > 0 {
		combined := truncateText(strings.Join(excerpts, "\n\n---\n\n"), insightPromptChars)
		user := fmt.Sprintf(`Analyze the following documents related to the topic %q and provide insights.

Documents:
%s

Respond with a JSON object containing: "summary" (2-3 sentence summary of the topic), "themes", "common_questions" and "related_concepts" (up to 5 entries each).`,
			topic.Name, combined)

		obj, genErr := deps.AI.GenerateJSON(ctx, insightSystemPrompt, user, "topic_insight", insightSchema())
		if genErr != nil {
			deps.Log.Warn("Insight generation failed; using fallback",
				"topic_id", topicID, "error", genErr)
		} else {
			if summary, ok := obj["summary"].(string); ok && strings.TrimSpace(summary) != "" {
				insight.Summary = strings.TrimSpace(summary)
			}
			insight.Themes = stringListJSON(parseStringList(obj["themes"]))
			insight.CommonQuestions = stringListJSON(parseStringList(obj["common_questions"]))
			insight.RelatedConcepts = stringListJSON(parseStringList(obj["related_concepts"]))
		}
	}

	if err := deps.Insights.Upsert(dbc, insight); err != nil {
		return nil, err
	}
	return insight, nil
}

// GenerateInsightBatch keeps going past per-topic failures and returns the
// insights that succeeded.
func GenerateInsightBatch(ctx context.Context, deps GenerateInsightDeps, topicIDs []uuid.UUID) []*domain.TopicInsight {
	out := make([]*domain.TopicInsight, 0, len(topicIDs))
	for _, id := range topicIDs {
		insight, err := GenerateInsight(ctx, deps, id)
		if err != nil {
			deps.Log.Warn("Skipping topic in insight batch", "topic_id", id, "error", err)
			continue
		}
		out = append(out, insight)
	}
	return out
}
