package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type TopicRelationshipRepo interface {
	GetByPair(dbc dbctx.Context, a, b uuid.UUID) (*domain.TopicRelationship, error)
	Create(dbc dbctx.Context, rel *domain.TopicRelationship) (*domain.TopicRelationship, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.TopicRelationship, error)
	CountByCollection(dbc dbctx.Context, collectionID uuid.UUID) (int64, error)
}

type topicRelationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) TopicRelationshipRepo {
	return &topicRelationshipRepo{db: db, log: baseLog.With("repo", "TopicRelationshipRepo")}
}

func (r *topicRelationshipRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

// GetByPair matches either orientation so callers may pass ids in any order.
func (r *topicRelationshipRepo) GetByPair(dbc dbctx.Context, a, b uuid.UUID) (*domain.TopicRelationship, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, nil
	}
	var rel domain.TopicRelationship
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("(source_topic_id = ? AND target_topic_id = ?) OR (source_topic_id = ? AND target_topic_id = ?)",
			a, b, b, a).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *topicRelationshipRepo) Create(dbc dbctx.Context, rel *domain.TopicRelationship) (*domain.TopicRelationship, error) {
	if rel == nil {
		return nil, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *topicRelationshipRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.TopicRelationship{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *topicRelationshipRepo) ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.TopicRelationship, error) {
	var out []*domain.TopicRelationship
	if collectionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Joins("JOIN topic ON topic.id = topic_relationship.source_topic_id").
		Where("topic.collection_id = ?", collectionID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRelationshipRepo) CountByCollection(dbc dbctx.Context, collectionID uuid.UUID) (int64, error) {
	if collectionID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.TopicRelationship{}).
		Joins("JOIN topic ON topic.id = topic_relationship.source_topic_id").
		Where("topic.collection_id = ?", collectionID).
		Count(&n).Error
	return n, err
}
