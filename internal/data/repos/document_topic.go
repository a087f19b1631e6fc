package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type DocumentTopicRepo interface {
	Upsert(dbc dbctx.Context, a *domain.DocumentTopic) error
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID, limit int) ([]*domain.DocumentTopic, error)
	ListByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) ([]*domain.DocumentTopic, error)
	UpdateScore(dbc dbctx.Context, id uuid.UUID, score float64) error
	CountPrimaryByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error)
}

type documentTopicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentTopicRepo(db *gorm.DB, baseLog *logger.Logger) DocumentTopicRepo {
	return &documentTopicRepo{db: db, log: baseLog.With("repo", "DocumentTopicRepo")}
}

func (r *documentTopicRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

// Upsert keys on the (document_id, topic_id) unique pair so re-running
// discovery refreshes scores instead of duplicating assignments.
func (r *documentTopicRepo) Upsert(dbc dbctx.Context, a *domain.DocumentTopic) error {
	if a == nil || a.DocumentID == uuid.Nil || a.TopicID == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relevance_score", "is_primary"}),
		}).
		Create(a).Error
}

func (r *documentTopicRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID, limit int) ([]*domain.DocumentTopic, error) {
	var out []*domain.DocumentTopic
	if topicID == uuid.Nil {
		return out, nil
	}
	q := r.handle(dbc).WithContext(dbc.Ctx).
		Where("topic_id = ?", topicID).
		Order("relevance_score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentTopicRepo) ListByTopicIDs(dbc dbctx.Context, topicIDs []uuid.UUID) ([]*domain.DocumentTopic, error) {
	var out []*domain.DocumentTopic
	if len(topicIDs) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("topic_id IN ?", topicIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentTopicRepo) UpdateScore(dbc dbctx.Context, id uuid.UUID, score float64) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.DocumentTopic{}).
		Where("id = ?", id).
		Update("relevance_score", score).Error
}

func (r *documentTopicRepo) CountPrimaryByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	if topicID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.DocumentTopic{}).
		Where("topic_id = ? AND is_primary = ?", topicID, true).
		Count(&n).Error
	return n, err
}
