package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type CollectionRepo interface {
	Create(dbc dbctx.Context, c *domain.Collection) (*domain.Collection, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Collection, error)
	List(dbc dbctx.Context) ([]*domain.Collection, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return &collectionRepo{db: db, log: baseLog.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *collectionRepo) Create(dbc dbctx.Context, c *domain.Collection) (*domain.Collection, error) {
	if c == nil {
		return nil, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *collectionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Collection, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c domain.Collection
	err := r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectionRepo) List(dbc dbctx.Context) ([]*domain.Collection, error) {
	var out []*domain.Collection
	if err := r.handle(dbc).WithContext(dbc.Ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a collection; dependent rows go with it via FK cascade
// (documents, topics, assignments, relationships, insights, job runs).
func (r *collectionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Where("id = ?", id).Delete(&domain.Collection{}).Error
}
