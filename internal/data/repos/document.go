package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*domain.Document) ([]*domain.Document, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Document, error)
	ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.Document, error)
	CountByCollection(dbc dbctx.Context, collectionID uuid.UUID) (int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*domain.Document) ([]*domain.Document, error) {
	if len(docs) == 0 {
		return []*domain.Document{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Document, error) {
	var out []*domain.Document
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*domain.Document, error) {
	var out []*domain.Document
	if collectionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) CountByCollection(dbc dbctx.Context, collectionID uuid.UUID) (int64, error) {
	if collectionID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&domain.Document{}).
		Where("collection_id = ?", collectionID).
		Count(&n).Error
	return n, err
}
