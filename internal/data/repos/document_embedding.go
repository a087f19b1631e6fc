package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/topiclens/topiclens-backend/internal/domain"
	"github.com/topiclens/topiclens-backend/internal/platform/dbctx"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
)

type DocumentEmbeddingRepo interface {
	GetByDocumentIDs(dbc dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentEmbedding, error)
	Upsert(dbc dbctx.Context, emb *domain.DocumentEmbedding) error
}

type documentEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) DocumentEmbeddingRepo {
	return &documentEmbeddingRepo{db: db, log: baseLog.With("repo", "DocumentEmbeddingRepo")}
}

func (r *documentEmbeddingRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *documentEmbeddingRepo) GetByDocumentIDs(dbc dbctx.Context, documentIDs []uuid.UUID) ([]*domain.DocumentEmbedding, error) {
	var out []*domain.DocumentEmbedding
	if len(documentIDs) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("document_id IN ?", documentIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert replaces the vector for a document if one exists. A model change
// therefore produces a replacement row value, never a partial edit.
func (r *documentEmbeddingRepo) Upsert(dbc dbctx.Context, emb *domain.DocumentEmbedding) error {
	if emb == nil || emb.DocumentID == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "model"}),
		}).
		Create(emb).Error
}
