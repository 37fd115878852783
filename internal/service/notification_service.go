package service

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
	"github.com/d60-Lab/thread-graph/pkg/logger"
)

// dedupWindow 相同 (recipient, sender, type, thread) 在该窗口内合并为一条。
// 时间窗是尽力而为的启发式，不是互斥锁。
const dedupWindow = 60 * time.Second

// cleanupAge 已读通知保留期
const cleanupAge = 30 * 24 * time.Hour

var mentionRe = regexp.MustCompile(`@(\w+)`)

// Notifier 实时推送通道（按收件人寻址）
type Notifier interface {
	PushNotification(ctx context.Context, userID string, payload interface{}) error
	PushUnreadCount(ctx context.Context, userID string, count int64) error
}

// CreateNotificationInput 创建通知的入参；ThreadID 可为空
type CreateNotificationInput struct {
	RecipientID string
	SenderID    string
	Type        string
	ThreadID    string
}

// SenderSummary 推送载荷里冗余的发送者信息
type SenderSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsVerified     bool   `json:"isVerified"`
}

// NotificationView 对外返回/推送的通知视图
type NotificationView struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	Sender        SenderSummary `json:"sender"`
	ThreadID      string        `json:"threadId,omitempty"`
	ThreadContent string        `json:"threadContent,omitempty"`
	IsRead        bool          `json:"isRead"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type NotificationService interface {
	// Create 先过收件人的 inApp 偏好；不通过则零副作用。
	// 返回的记录可能是窗口内已存在的旧记录。
	Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error)
	DetectMentions(text string) []string
	CreateMentionNotifications(ctx context.Context, content, authorID, threadID string) error
	Unread(ctx context.Context, userID string, page, limit int) ([]NotificationView, Pagination, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// CleanupOld 删除 30 天前的已读通知
	CleanupOld(ctx context.Context) (int64, error)
	Stats(ctx context.Context, userID string) ([]repository.TypeStat, error)
}

type notificationService struct {
	notifRepo   repository.NotificationRepository
	userRepo    repository.UserRepository
	threadRepo  repository.ThreadRepository
	settingsSvc SettingsService
	notifier    Notifier
}

func NewNotificationService(notifRepo repository.NotificationRepository, userRepo repository.UserRepository, threadRepo repository.ThreadRepository, settingsSvc SettingsService, notifier Notifier) NotificationService {
	return &notificationService{
		notifRepo:   notifRepo,
		userRepo:    userRepo,
		threadRepo:  threadRepo,
		settingsSvc: settingsSvc,
		notifier:    notifier,
	}
}

func (s *notificationService) Create(ctx context.Context, in CreateNotificationInput) (*model.Notification, error) {
	if !s.settingsSvc.CanReceiveNotification(ctx, in.RecipientID, in.Type, ChannelInApp) {
		return nil, nil
	}

	// 窗口内去重：两次并发创建可能都先于提交通过该检查
	existing, err := s.notifRepo.FindRecent(ctx, in.RecipientID, in.SenderID, in.Type, in.ThreadID, time.Now().Add(-dedupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	n := &model.Notification{
		Type:        in.Type,
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		ThreadID:    in.ThreadID,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.push(ctx, n)
	return n, nil
}

// push 冗余 sender/thread 后推送通知与未读数两个事件；推送失败只记日志
func (s *notificationService) push(ctx context.Context, n *model.Notification) {
	view := NotificationView{
		ID:        n.ID,
		Type:      n.Type,
		ThreadID:  n.ThreadID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if sender, err := s.userRepo.ByID(ctx, n.SenderID); err == nil {
		name := sender.Name
		if name == "" {
			name = sender.Username
		}
		view.Sender = SenderSummary{
			ID:             sender.ID,
			Username:       sender.Username,
			Name:           name,
			ProfilePicture: sender.ProfilePicture,
			IsVerified:     sender.IsVerified,
		}
	}
	if n.ThreadID != "" {
		if thread, err := s.threadRepo.ByID(ctx, n.ThreadID); err == nil {
			view.ThreadContent = thread.Content
		}
	}

	_ = s.notifier.PushNotification(ctx, n.RecipientID, view)
	if count, err := s.notifRepo.CountUnread(ctx, n.RecipientID); err == nil {
		_ = s.notifier.PushUnreadCount(ctx, n.RecipientID, count)
	}
}

// DetectMentions 按出现顺序提取全部 @token
func (s *notificationService) DetectMentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// CreateMentionNotifications 逐个解析被提及用户：解析失败与自我提及跳过，
// 通过 canMentionUser 的各发一条 mention 通知。除 60 秒窗口外没有额外去重，
// 同一内容的连续编辑可能重复产生提及通知。
func (s *notificationService) CreateMentionNotifications(ctx context.Context, content, authorID, threadID string) error {
	for _, username := range s.DetectMentions(content) {
		mentioned, err := s.userRepo.ByUsername(ctx, username)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				continue
			}
			logger.Warn("mention lookup failed", zap.String("username", username), zap.Error(err))
			continue
		}
		if mentioned.ID == authorID {
			continue
		}
		if !s.settingsSvc.CanMentionUser(ctx, authorID, mentioned.ID) {
			continue
		}
		if _, err := s.Create(ctx, CreateNotificationInput{
			RecipientID: mentioned.ID,
			SenderID:    authorID,
			Type:        model.NotifyMention,
			ThreadID:    threadID,
		}); err != nil {
			logger.Warn("mention notification failed", zap.String("recipient", mentioned.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *notificationService) Unread(ctx context.Context, userID string, page, limit int) ([]NotificationView, Pagination, error) {
	page, limit, offset := normalizePage(page, limit)

	rows, err := s.notifRepo.ListUnread(ctx, userID, offset, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	views := make([]NotificationView, 0, len(rows))
	for _, n := range rows {
		v := NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			ThreadID:  n.ThreadID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
		if sender, err := s.userRepo.ByID(ctx, n.SenderID); err == nil {
			name := sender.Name
			if name == "" {
				name = sender.Username
			}
			v.Sender = SenderSummary{
				ID:             sender.ID,
				Username:       sender.Username,
				Name:           name,
				ProfilePicture: sender.ProfilePicture,
				IsVerified:     sender.IsVerified,
			}
		}
		views = append(views, v)
	}
	return views, newPagination(page, limit, len(rows), total), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.notifRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) CleanupOld(ctx context.Context) (int64, error) {
	deleted, err := s.notifRepo.DeleteOldRead(ctx, time.Now().Add(-cleanupAge))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("old notifications cleaned up", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

func (s *notificationService) Stats(ctx context.Context, userID string) ([]repository.TypeStat, error) {
	return s.notifRepo.Stats(ctx, userID)
}
