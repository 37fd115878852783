package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
)

type FlagRepository interface {
	Create(ctx context.Context, f *model.Flag) error
	ListByContent(ctx context.Context, contentID, contentKind string) ([]*model.Flag, error)
}

type flagRepository struct{ db *gorm.DB }

func NewFlagRepository(db *gorm.DB) FlagRepository { return &flagRepository{db: db} }

func (r *flagRepository) Create(ctx context.Context, f *model.Flag) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *flagRepository) ListByContent(ctx context.Context, contentID, contentKind string) ([]*model.Flag, error) {
	var res []*model.Flag
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND content_kind = ?", contentID, contentKind).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}
