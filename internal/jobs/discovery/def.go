package discovery

import (
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
)

type Pipeline struct {
	db            *gorm.DB
	log           *logger.Logger
	collections   repos.CollectionRepo
	documents     repos.DocumentRepo
	embeddings    repos.DocumentEmbeddingRepo
	topics        repos.TopicRepo
	assignments   repos.DocumentTopicRepo
	relationships repos.TopicRelationshipRepo
	insights      repos.TopicInsightRepo
	ai            openai.Client
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	collections repos.CollectionRepo,
	documents repos.DocumentRepo,
	embeddings repos.DocumentEmbeddingRepo,
	topics repos.TopicRepo,
	assignments repos.DocumentTopicRepo,
	relationships repos.TopicRelationshipRepo,
	insights repos.TopicInsightRepo,
	ai openai.Client,
) *Pipeline {
	return &Pipeline{
		db:            db,
		log:           baseLog.With("job", domain.JobTypeTopicDiscovery),
		collections:   collections,
		documents:     documents,
		embeddings:    embeddings,
		topics:        topics,
		assignments:   assignments,
		relationships: relationships,
		insights:      insights,
		ai:            ai,
	}
}

func (p *Pipeline) Type() string { return domain.JobTypeTopicDiscovery }
