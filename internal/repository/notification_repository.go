package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
)

// TypeStat 单一类型的通知统计
type TypeStat struct {
	Type   string `json:"type"`
	Total  int64  `json:"total"`
	Unread int64  `json:"unread"`
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// FindRecent 查找 since 之后创建的同 (recipient, sender, type, thread) 记录
	FindRecent(ctx context.Context, recipientID, senderID, notifType, threadID string, since time.Time) (*model.Notification, error)
	ListUnread(ctx context.Context, recipientID string, offset, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead 返回是否命中属于 recipient 的记录
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	// DeleteOldRead 删除早于 before 的已读通知
	DeleteOldRead(ctx context.Context, before time.Time) (int64, error)
	Stats(ctx context.Context, recipientID string) ([]TypeStat, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) FindRecent(ctx context.Context, recipientID, senderID, notifType, threadID string, since time.Time) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND sender_id = ? AND type = ? AND thread_id = ? AND created_at >= ?",
			recipientID, senderID, notifType, threadID, since).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, recipientID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) DeleteOldRead(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND is_read = ?", before, true).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) Stats(ctx context.Context, recipientID string) ([]TypeStat, error) {
	var stats []TypeStat
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Select("type, COUNT(*) AS total, SUM(CASE WHEN is_read THEN 0 ELSE 1 END) AS unread").
		Where("recipient_id = ?", recipientID).
		Group("type").
		Scan(&stats).Error
	return stats, err
}

func (r *notificationRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("recipient_id = ? OR sender_id = ?", userID, userID).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
