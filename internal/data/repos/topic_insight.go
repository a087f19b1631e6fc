package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type TopicInsightRepo interface {
	Upsert(dbc dbctx.Context, ins *domain.TopicInsight) error
	GetByTopic(dbc dbctx.Context, topicID uuid.UUID) (*domain.TopicInsight, error)
}

type topicInsightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicInsightRepo(db *gorm.DB, baseLog *logger.Logger) TopicInsightRepo {
	return &topicInsightRepo{db: db, log: baseLog.With("repo", "TopicInsightRepo")}
}

func (r *topicInsightRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

// Upsert regenerates the topic's single insight row wholesale.
func (r *topicInsightRepo) Upsert(dbc dbctx.Context, ins *domain.TopicInsight) error {
	if ins == nil || ins.TopicID == uuid.Nil {
		return nil
	}
	ins.UpdatedAt = time.Now()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"summary", "themes", "common_questions", "related_concepts", "updated_at",
			}),
		}).
		Create(ins).Error
}

func (r *topicInsightRepo) GetByTopic(dbc dbctx.Context, topicID uuid.UUID) (*domain.TopicInsight, error) {
	if topicID == uuid.Nil {
		return nil, nil
	}
	var ins domain.TopicInsight
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("topic_id = ?", topicID).First(&ins).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ins, nil
}
