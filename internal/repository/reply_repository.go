package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

type ReplyRepository interface {
	Create(ctx context.Context, rp *model.Reply) error
	ByID(ctx context.Context, id string) (*model.Reply, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByThread(ctx context.Context, threadID string) ([]*model.Reply, error)
	SetValidated(ctx context.Context, id, validatorID string, at time.Time) error
	SetFlagged(ctx context.Context, id string, flagged bool) error
	ListFlagged(ctx context.Context, offset, limit int) ([]*model.Reply, error)
	CountFlagged(ctx context.Context) (int64, error)
	DeleteByThread(ctx context.Context, threadID string) (int64, error)
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
}

type replyRepository struct{ db *gorm.DB }

func NewReplyRepository(db *gorm.DB) ReplyRepository { return &replyRepository{db: db} }

func (r *replyRepository) Create(ctx context.Context, rp *model.Reply) error {
	if rp.ID == "" {
		rp.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *replyRepository) ByID(ctx context.Context, id string) (*model.Reply, error) {
	var rp model.Reply
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("reply not found")
		}
		return nil, err
	}
	return &rp, nil
}

func (r *replyRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reply{})
	return res.RowsAffected > 0, res.Error
}

func (r *replyRepository) ListByThread(ctx context.Context, threadID string) ([]*model.Reply, error) {
	var res []*model.Reply
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *replyRepository) SetValidated(ctx context.Context, id, validatorID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Reply{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_validated": true,
			"is_flagged":   false,
			"validated_by": validatorID,
			"validated_at": at,
		}).Error
}

func (r *replyRepository) SetFlagged(ctx context.Context, id string, flagged bool) error {
	return r.db.WithContext(ctx).Model(&model.Reply{}).Where("id = ?", id).
		Update("is_flagged", flagged).Error
}

func (r *replyRepository) ListFlagged(ctx context.Context, offset, limit int) ([]*model.Reply, error) {
	var res []*model.Reply
	err := r.db.WithContext(ctx).
		Where("is_flagged = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *replyRepository) CountFlagged(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Reply{}).Where("is_flagged = ?", true).Count(&cnt).Error
	return cnt, err
}

func (r *replyRepository) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Delete(&model.Reply{})
	return res.RowsAffected, res.Error
}

func (r *replyRepository) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("author_id = ?", authorID).Delete(&model.Reply{})
	return res.RowsAffected, res.Error
}
