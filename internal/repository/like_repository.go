package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

type LikeRepository interface {
	Create(ctx context.Context, userID, threadID string) error
	Delete(ctx context.Context, userID, threadID string) (bool, error)
	Exists(ctx context.Context, userID, threadID string) (bool, error)
	// LikedSet 返回 threadIDs 中被 userID 点过赞的子集
	LikedSet(ctx context.Context, userID string, threadIDs []string) (map[string]bool, error)
	DeleteByThread(ctx context.Context, threadID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type likeRepository struct{ db *gorm.DB }

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, userID, threadID string) error {
	l := &model.Like{ID: uuid.New().String(), UserID: userID, ThreadID: threadID}
	// 唯一性由 idx_like_pair 保证
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.AlreadyExists("thread already liked")
		}
		return err
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, threadID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Delete(&model.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *likeRepository) Exists(ctx context.Context, userID, threadID string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *likeRepository) LikedSet(ctx context.Context, userID string, threadIDs []string) (map[string]bool, error) {
	m := make(map[string]bool, len(threadIDs))
	if len(threadIDs) == 0 {
		return m, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Like{}).
		Where("user_id = ? AND thread_id IN ?", userID, threadIDs).
		Pluck("thread_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		m[id] = true
	}
	return m, nil
}

func (r *likeRepository) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Delete(&model.Like{})
	return res.RowsAffected, res.Error
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Like{})
	return res.RowsAffected, res.Error
}
