package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type TopicRepo interface {
	Create(dbc dbctx.Context, t *domain.Topic) (*domain.Topic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Topic, error)
	GetBySlot(dbc dbctx.Context, collectionID uuid.UUID, slot int) (*domain.Topic, error)
	ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.Topic, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *topicRepo) Create(dbc dbctx.Context, t *domain.Topic) (*domain.Topic, error) {
	if t == nil {
		return nil, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *topicRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Topic, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var t domain.Topic
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetBySlot resolves a topic by its positional cluster slot. This is the
// cross-run identity lookup used by incremental discovery.
func (r *topicRepo) GetBySlot(dbc dbctx.Context, collectionID uuid.UUID, slot int) (*domain.Topic, error) {
	if collectionID == uuid.Nil {
		return nil, nil
	}
	var t domain.Topic
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("collection_id = ? AND cluster_slot = ?", collectionID, slot).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *topicRepo) ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.Topic, error) {
	var out []*domain.Topic
	if collectionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("collection_id = ?", collectionID).
		Order("cluster_slot ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Topic{}).
		Where("id = ?", id).
		Updates(updates).Error
}
