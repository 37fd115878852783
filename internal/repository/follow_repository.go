package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID, status string) (*model.Follow, error)
	Get(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	// AcceptPending 仅当边处于 pending 时置为 accepted，返回是否命中
	AcceptPending(ctx context.Context, followerID, followingID string) (bool, error)
	// DeletePending 仅删除 pending 边，返回是否命中
	DeletePending(ctx context.Context, followerID, followingID string) (bool, error)
	// Delete 无条件删除，返回是否存在
	Delete(ctx context.Context, followerID, followingID string) (bool, error)
	ExistsAccepted(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, followingID string) ([]*model.Follow, error)
	ListFollowing(ctx context.Context, followerID string) ([]*model.Follow, error)
	ListPending(ctx context.Context, followingID string) ([]*model.Follow, error)
	// AcceptedFollowingIDs 返回 follower 已被接受关注的全部对象 id
	AcceptedFollowingIDs(ctx context.Context, followerID string) ([]string, error)
	// StatusMap 返回 follower 对外的 pending/accepted 边状态表（按对象 id 索引）
	StatusMap(ctx context.Context, followerID string) (map[string]string, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, followerID, followingID, status string) (*model.Follow, error) {
	f := &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FollowingID: followingID, Status: status}
	// 唯一性由 idx_follow_pair 保证；并发重复由存储层冲突裁决
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.AlreadyExists("follow edge already exists")
		}
		return nil, err
	}
	return f, nil
}

func (r *followRepository) Get(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *followRepository) AcceptPending(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, model.FollowStatusPending).
		Update("status", model.FollowStatusAccepted)
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) DeletePending(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, model.FollowStatusPending).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&model.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) ExistsAccepted(ctx context.Context, followerID, followingID string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, model.FollowStatusAccepted).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, followingID string) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("following_id = ? AND status = ?", followingID, model.FollowStatusAccepted).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *followRepository) ListFollowing(ctx context.Context, followerID string) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND status = ?", followerID, model.FollowStatusAccepted).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *followRepository) ListPending(ctx context.Context, followingID string) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("following_id = ? AND status = ?", followingID, model.FollowStatusPending).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *followRepository) AcceptedFollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND status = ?", followerID, model.FollowStatusAccepted).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *followRepository) StatusMap(ctx context.Context, followerID string) (map[string]string, error) {
	var rows []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND status IN ?", followerID, []string{model.FollowStatusAccepted, model.FollowStatusPending}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(rows))
	for _, f := range rows {
		m[f.FollowingID] = f.Status
	}
	return m, nil
}

func (r *followRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&model.Follow{})
	return res.RowsAffected, res.Error
}
