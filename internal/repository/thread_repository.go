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

// FeedVisibility 描述一次 feed 查询的可见作者集合：
// 私密作者被排除，除非作者是 viewer 本人或在 IncludeAuthorIDs 放行名单内。
type FeedVisibility struct {
	ViewerID         string   // 空表示匿名
	PrivateAuthorIDs []string
	IncludeAuthorIDs []string
}

type ThreadRepository interface {
	Create(ctx context.Context, t *model.Thread) error
	ByID(ctx context.Context, id string) (*model.Thread, error)
	Save(ctx context.Context, t *model.Thread) error
	Delete(ctx context.Context, id string) (bool, error)
	ListVisible(ctx context.Context, vis FeedVisibility, offset, limit int) ([]*model.Thread, error)
	CountVisible(ctx context.Context, vis FeedVisibility) (int64, error)
	// Search 内容大小写不敏感子串匹配，套用同一可见性过滤
	Search(ctx context.Context, query string, vis FeedVisibility, offset, limit int) ([]*model.Thread, error)
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Thread, error)
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	IncrCounter(ctx context.Context, id, column string, delta int64) error
	SetValidated(ctx context.Context, id, validatorID string, at time.Time) error
	SetFlagged(ctx context.Context, id string, flagged bool) error
	ListFlagged(ctx context.Context, offset, limit int) ([]*model.Thread, error)
	CountFlagged(ctx context.Context) (int64, error)
	DeleteAllForAuthor(ctx context.Context, authorID string) (int64, error)
}

type threadRepository struct{ db *gorm.DB }

func NewThreadRepository(db *gorm.DB) ThreadRepository { return &threadRepository{db: db} }

func (r *threadRepository) Create(ctx context.Context, t *model.Thread) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *threadRepository) ByID(ctx context.Context, id string) (*model.Thread, error) {
	var t model.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("thread not found")
		}
		return nil, err
	}
	return &t, nil
}

func (r *threadRepository) Save(ctx context.Context, t *model.Thread) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *threadRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Thread{})
	return res.RowsAffected > 0, res.Error
}

// visibleScope 构造可见性条件：
// author NOT IN private OR author = viewer OR author IN include
func (r *threadRepository) visibleScope(ctx context.Context, vis FeedVisibility) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Thread{})
	if len(vis.PrivateAuthorIDs) == 0 {
		return q
	}
	cond := r.db.Where("author_id NOT IN ?", vis.PrivateAuthorIDs)
	if vis.ViewerID != "" {
		cond = cond.Or("author_id = ?", vis.ViewerID)
		if len(vis.IncludeAuthorIDs) > 0 {
			cond = cond.Or("author_id IN ?", vis.IncludeAuthorIDs)
		}
	}
	return q.Where(cond)
}

func (r *threadRepository) ListVisible(ctx context.Context, vis FeedVisibility, offset, limit int) ([]*model.Thread, error) {
	var res []*model.Thread
	err := r.visibleScope(ctx, vis).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *threadRepository) CountVisible(ctx context.Context, vis FeedVisibility) (int64, error) {
	var cnt int64
	err := r.visibleScope(ctx, vis).Count(&cnt).Error
	return cnt, err
}

func (r *threadRepository) Search(ctx context.Context, query string, vis FeedVisibility, offset, limit int) ([]*model.Thread, error) {
	var res []*model.Thread
	err := r.visibleScope(ctx, vis).
		Where("LOWER(content) LIKE LOWER(?)", "%"+query+"%").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Thread, error) {
	var res []*model.Thread
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *threadRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Thread{}).Where("author_id = ?", authorID).Count(&cnt).Error
	return cnt, err
}

func (r *threadRepository) IncrCounter(ctx context.Context, id, column string, delta int64) error {
	return r.db.WithContext(ctx).Model(&model.Thread{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func (r *threadRepository) SetValidated(ctx context.Context, id, validatorID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Thread{}).Where("id = ?", id).
		Updates(map[string]any{
			"is_validated": true,
			"is_flagged":   false,
			"validated_by": validatorID,
			"validated_at": at,
		}).Error
}

func (r *threadRepository) SetFlagged(ctx context.Context, id string, flagged bool) error {
	return r.db.WithContext(ctx).Model(&model.Thread{}).Where("id = ?", id).
		Update("is_flagged", flagged).Error
}

func (r *threadRepository) ListFlagged(ctx context.Context, offset, limit int) ([]*model.Thread, error) {
	var res []*model.Thread
	err := r.db.WithContext(ctx).
		Where("is_flagged = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *threadRepository) CountFlagged(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Thread{}).Where("is_flagged = ?", true).Count(&cnt).Error
	return cnt, err
}

func (r *threadRepository) DeleteAllForAuthor(ctx context.Context, authorID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("author_id = ?", authorID).Delete(&model.Thread{})
	return res.RowsAffected, res.Error
}
