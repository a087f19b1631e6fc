package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

const (
	qaContextDocs     = 5
	qaDocExcerptChars = 1000
	qaContextChars    = 4000
	previewChars      = 200
)

type GraphNode struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	SizeScore     float64 `json:"size_score"`
	DocumentCount int     `json:"document_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
	Type   string  `json:"type"`
}

type TopicGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type TopicDocument struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	ContentPreview string    `json:"content_preview"`
	RelevanceScore float64   `json:"relevance_score"`
	IsPrimary      bool      `json:"is_primary"`
}

type RelatedTopic struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	SimilarityScore  float64   `json:"similarity_score"`
	RelationshipType string    `json:"relationship_type"`
}

type InsightView struct {
	Summary         string   `json:"summary"`
	Themes          []string `json:"themes"`
	CommonQuestions []string `json:"common_questions"`
	RelatedConcepts []string `json:"related_concepts"`
}

type TopicDetail struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DocumentCount int             `json:"document_count"`
	SizeScore     float64         `json:"size_score"`
	AvgConfidence float64         `json:"avg_confidence"`
	Insights      *InsightView    `json:"insights"`
	Documents     []TopicDocument `json:"documents"`
	RelatedTopics []RelatedTopic  `json:"related_topics"`
}

type Citation struct {
	DocumentID uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Preview    string    `json:"preview"`
}

type TopicAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	TopicID   uuid.UUID  `json:"topic_id"`
	TopicName string     `json:"topic_name"`
}

type TopicService interface {
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Topic, error)
	Graph(ctx context.Context, collectionID uuid.UUID) (*TopicGraph, error)
	Detail(ctx context.Context, topicID uuid.UUID) (*TopicDetail, error)
	Answer(ctx context.Context, topicID uuid.UUID, question string) (*TopicAnswer, error)
}

type topicService struct {
	log           *logger.Logger
	collections   repos.CollectionRepo
	topics        repos.TopicRepo
	assignments   repos.DocumentTopicRepo
	documents     repos.DocumentRepo
	relationships repos.TopicRelationshipRepo
	insights      repos.TopicInsightRepo
	ai            openai.Client
}

func NewTopicService(
	baseLog *logger.Logger,
	collections repos.CollectionRepo,
	topics repos.TopicRepo,
	assignments repos.DocumentTopicRepo,
	documents repos.DocumentRepo,
	relationships repos.TopicRelationshipRepo,
	insights repos.TopicInsightRepo,
	ai openai.Client,
) TopicService {
	return &topicService{
		log:           baseLog.With("service", "TopicService"),
		collections:   collections,
		topics:        topics,
		assignments:   assignments,
		documents:     documents,
		relationships: relationships,
		insights:      insights,
		ai:            ai,
	}
}

func (s *topicService) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*domain.Topic, error) {
	return s.topics.ListByCollection(dbctx.Context{Ctx: ctx}, collectionID)
}

func (s *topicService) Graph(ctx context.Context, collectionID uuid.UUID) (*TopicGraph, error) {
	dbc := dbctx.Context{Ctx: ctx}

	topics, err := s.topics.ListByCollection(dbc, collectionID)
	if err != nil {
		return nil, err
	}
	rels, err := s.relationships.ListByCollection(dbc, collectionID)
	if err != nil {
		return nil, err
	}

	g := &TopicGraph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, t := range topics {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:            "t" + t.ID.String(),
			Label:         t.Name,
			SizeScore:     t.SizeScore,
			DocumentCount: t.DocumentCount,
			AvgConfidence: t.AvgConfidence,
		})
	}
	for _, rel := range rels {
		g.Edges = append(g.Edges, GraphEdge{
			Source: "t" + rel.SourceTopicID.String(),
			Target: "t" + rel.TargetTopicID.String(),
			Weight: rel.SimilarityScore,
			Type:   rel.RelationshipType,
		})
	}
	return g, nil
}

func preview(content string) string {
	if len(content) > previewChars {
		return content[:previewChars]
	}
	return content
}

func decodeStringList(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func (s *topicService) Detail(ctx context.Context, topicID uuid.UUID) (*TopicDetail, error) {
	dbc := dbctx.Context{Ctx: ctx}

	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, nil
	}

	detail := &TopicDetail{
		ID:            topic.ID,
		Name:          topic.Name,
		DocumentCount: topic.DocumentCount,
		SizeScore:     topic.SizeScore,
		AvgConfidence: topic.AvgConfidence,
		Documents:     []TopicDocument{},
		RelatedTopics: []RelatedTopic{},
	}

	if ins, err := s.insights.GetByTopic(dbc, topicID); err != nil {
		return nil, err
	} else if ins != nil {
		detail.Insights = &InsightView{
			Summary:         ins.Summary,
			Themes:          decodeStringList(ins.Themes),
			CommonQuestions: decodeStringList(ins.CommonQuestions),
			RelatedConcepts: decodeStringList(ins.RelatedConcepts),
		}
	}

	assignments, err := s.assignments.ListByTopic(dbc, topicID, 0)
	if err != nil {
		return nil, err
	}
	docIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		docIDs = append(docIDs, a.DocumentID)
	}
	docs, err := s.documents.GetByIDs(dbc, docIDs)
	if err != nil {
		return nil, err
	}
	docByID := make(map[uuid.UUID]*domain.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}
	for _, a := range assignments {
		doc, ok := docByID[a.DocumentID]
		if !ok {
			continue
		}
		detail.Documents = append(detail.Documents, TopicDocument{
			ID:             doc.ID,
			Title:          doc.Title,
			ContentPreview: preview(doc.Content),
			RelevanceScore: a.RelevanceScore,
			IsPrimary:      a.IsPrimary,
		})
	}

	rels, err := s.relationships.ListByCollection(dbc, topic.CollectionID)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		var otherID uuid.UUID
		switch topicID {
		case rel.SourceTopicID:
			otherID = rel.TargetTopicID
		case rel.TargetTopicID:
			otherID = rel.SourceTopicID
		default:
			continue
		}
		other, err := s.topics.GetByID(dbc, otherID)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}
		detail.RelatedTopics = append(detail.RelatedTopics, RelatedTopic{
			ID:               other.ID,
			Name:             other.Name,
			SimilarityScore:  rel.SimilarityScore,
			RelationshipType: rel.RelationshipType,
		})
	}
	sort.Slice(detail.RelatedTopics, func(i, j int) bool {
		return detail.RelatedTopics[i].SimilarityScore > detail.RelatedTopics[j].SimilarityScore
	})

	return detail, nil
}

var citationPattern = regexp.MustCompile(`\[Doc(\d+)\]`)

// Answer runs topic-scoped question answering over the topic's most relevant
// documents. Citations in the model output reference documents positionally
// ([Doc1] is the highest-relevance document) and are resolved back to ids.
func (s *topicService) Answer(ctx context.Context, topicID uuid.UUID, question string) (*TopicAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	dbc := dbctx.Context{Ctx: ctx}

	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		return nil, fmt.Errorf("topic %s not found", topicID)
	}

	assignments, err := s.assignments.ListByTopic(dbc, topicID, qaContextDocs)
	if err != nil {
		return nil, err
	}
	docIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		docIDs = append(docIDs, a.DocumentID)
	}
	fetched, err := s.documents.GetByIDs(dbc, docIDs)
	if err != nil {
		return nil, err
	}
	docByID := make(map[uuid.UUID]*domain.Document, len(fetched))
	for _, d := range fetched {
		docByID[d.ID] = d
	}
	ordered := make([]*domain.Document, 0, len(assignments))
	for _, a := range assignments {
		if d, ok := docByID[a.DocumentID]; ok {
			ordered = append(ordered, d)
		}
	}

	var sb strings.Builder
	for i, d := range ordered {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		excerpt := d.Content
		if len(excerpt) > qaDocExcerptChars {
			excerpt = excerpt[:qaDocExcerptChars]
		}
		fmt.Fprintf(&sb, "Document %d:\n%s", i+1, excerpt)
	}
	contextText := sb.String()
	if len(contextText) > qaContextChars {
		contextText = contextText[:qaContextChars]
	}

	prompt := fmt.Sprintf(`You are answering a question about the topic %q.

Context from relevant documents:
%s

Question: %s

Provide a comprehensive answer with inline citations. Format citations as [Doc1], [Doc2], etc. where Doc1 refers to the first document, Doc2 to the second, etc.

Answer:`, topic.Name, contextText, question)

	answer, err := s.ai.GenerateText(ctx,
		"You are a helpful assistant that provides detailed answers with citations.",
		prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	cited := map[int]bool{}
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			continue
		}
		idx := n - 1
		if idx >= 0 && idx < len(ordered) {
			cited[idx] = true
		}
	}
	citations := make([]Citation, 0, len(cited))
	for idx := range cited {
		d := ordered[idx]
		citations = append(citations, Citation{
			DocumentID: d.ID,
			Title:      d.Title,
			Preview:    preview(d.Content),
		})
	}
	sort.Slice(citations, func(i, j int) bool {
		return citations[i].DocumentID.String() < citations[j].DocumentID.String()
	})

	return &TopicAnswer{
		Answer:    answer,
		Citations: citations,
		TopicID:   topic.ID,
		TopicName: topic.Name,
	}, nil
}
