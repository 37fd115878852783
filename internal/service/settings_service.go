package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/logger"
)

// 通知渠道
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelInApp = "inApp"
)

// NotificationPatch 三个渠道的部分更新
type NotificationPatch struct {
	Email *NotificationPrefsPatch `json:"email,omitempty"`
	Push  *NotificationPrefsPatch `json:"push,omitempty"`
	InApp *InAppPrefsPatch        `json:"inApp,omitempty"`
}

type NotificationPrefsPatch struct {
	NewFollower    *bool `json:"newFollower,omitempty"`
	FollowRequest  *bool `json:"followRequest,omitempty"`
	FollowAccepted *bool `json:"followAccepted,omitempty"`
	ThreadLike     *bool `json:"threadLike,omitempty"`
	ThreadReply    *bool `json:"threadReply,omitempty"`
	Mention        *bool `json:"mention,omitempty"`
}

type InAppPrefsPatch struct {
	NotificationPrefsPatch
	ContentValidated *bool `json:"contentValidated,omitempty"`
	ContentFlagged   *bool `json:"contentFlagged,omitempty"`
}

// PrivacyPatch 隐私偏好部分更新
type PrivacyPatch struct {
	WhoCanFollowMe      *string `json:"whoCanFollowMe,omitempty" binding:"omitempty,oneof=everyone friends_of_friends nobody"`
	WhoCanSeeMyPosts    *string `json:"whoCanSeeMyPosts,omitempty" binding:"omitempty,oneof=everyone followers only_me"`
	WhoCanMentionMe     *string `json:"whoCanMentionMe,omitempty" binding:"omitempty,oneof=everyone followers nobody"`
	ShowOnlineStatus    *bool   `json:"showOnlineStatus,omitempty"`
	ShowActivityStatus  *bool   `json:"showActivityStatus,omitempty"`
	AllowDirectMessages *string `json:"allowDirectMessages,omitempty" binding:"omitempty,oneof=everyone followers people_i_follow nobody"`
}

type DisplayPatch struct {
	Theme                *string `json:"theme,omitempty" binding:"omitempty,oneof=light dark auto"`
	Language             *string `json:"language,omitempty" binding:"omitempty,oneof=fr ar en"`
	FontSize             *string `json:"fontSize,omitempty" binding:"omitempty,oneof=small medium large"`
	ShowSensitiveContent *bool   `json:"showSensitiveContent,omitempty"`
}

type ContentPatch struct {
	AutoplayVideos    *bool `json:"autoplayVideos,omitempty"`
	ShowMediaPreviews *bool `json:"showMediaPreviews,omitempty"`
	EnableMentions    *bool `json:"enableMentions,omitempty"`
}

// SettingsService 隐私/通知/显示/内容偏好，以及由偏好派生的权限判定。
// 权限判定函数（CanViewContent / CanMentionUser / CanReceiveNotification）
// 在内部出错时一律放行（fail open），用可用性换严格性。
type SettingsService interface {
	Get(ctx context.Context, userID string) (*model.Settings, error)
	UpdateNotifications(ctx context.Context, userID string, patch NotificationPatch) (*model.Settings, error)
	UpdatePrivacy(ctx context.Context, userID string, patch PrivacyPatch) (*model.Settings, error)
	UpdateDisplay(ctx context.Context, userID string, patch DisplayPatch) (*model.Settings, error)
	UpdateContent(ctx context.Context, userID string, patch ContentPatch) (*model.Settings, error)
	CanViewContent(ctx context.Context, viewerID, targetID string) bool
	CanMentionUser(ctx context.Context, mentionerID, targetID string) bool
	CanReceiveNotification(ctx context.Context, userID, notifType, channel string) bool
	ResetToDefault(ctx context.Context, userID string) (*model.Settings, error)
	Delete(ctx context.Context, userID string) error
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository, userRepo repository.UserRepository, followRepo repository.FollowRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, userRepo: userRepo, followRepo: followRepo}
}

// Get 首次读取时以完整默认树落库，保证任何时刻都不会返回残缺配置
func (s *settingsService) Get(ctx context.Context, userID string) (*model.Settings, error) {
	settings, err := s.settingsRepo.ByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = model.DefaultSettings(userID)
		if err := s.settingsRepo.Create(ctx, settings); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func applyPrefsPatch(dst *model.NotificationPrefs, p *NotificationPrefsPatch) {
	if p == nil {
		return
	}
	if p.NewFollower != nil {
		dst.NewFollower = *p.NewFollower
	}
	if p.FollowRequest != nil {
		dst.FollowRequest = *p.FollowRequest
	}
	if p.FollowAccepted != nil {
		dst.FollowAccepted = *p.FollowAccepted
	}
	if p.ThreadLike != nil {
		dst.ThreadLike = *p.ThreadLike
	}
	if p.ThreadReply != nil {
		dst.ThreadReply = *p.ThreadReply
	}
	if p.Mention != nil {
		dst.Mention = *p.Mention
	}
}

func (s *settingsService) UpdateNotifications(ctx context.Context, userID string, patch NotificationPatch) (*model.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	applyPrefsPatch(&settings.Email, patch.Email)
	applyPrefsPatch(&settings.Push, patch.Push)
	if patch.InApp != nil {
		applyPrefsPatch(&settings.InApp.NotificationPrefs, &patch.InApp.NotificationPrefsPatch)
		if patch.InApp.ContentValidated != nil {
			settings.InApp.ContentValidated = *patch.InApp.ContentValidated
		}
		if patch.InApp.ContentFlagged != nil {
			settings.InApp.ContentFlagged = *patch.InApp.ContentFlagged
		}
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdatePrivacy 更新隐私偏好。whoCanSeeMyPosts 会同步旧版 User.IsPrivate：
// followers/only_me → true，everyone → false。其余组件仍读取该旧字段。
func (s *settingsService) UpdatePrivacy(ctx context.Context, userID string, patch PrivacyPatch) (*model.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.WhoCanFollowMe != nil {
		settings.Privacy.WhoCanFollowMe = *patch.WhoCanFollowMe
	}
	if patch.WhoCanSeeMyPosts != nil {
		settings.Privacy.WhoCanSeeMyPosts = *patch.WhoCanSeeMyPosts
	}
	if patch.WhoCanMentionMe != nil {
		settings.Privacy.WhoCanMentionMe = *patch.WhoCanMentionMe
	}
	if patch.ShowOnlineStatus != nil {
		settings.Privacy.ShowOnlineStatus = *patch.ShowOnlineStatus
	}
	if patch.ShowActivityStatus != nil {
		settings.Privacy.ShowActivityStatus = *patch.ShowActivityStatus
	}
	if patch.AllowDirectMessages != nil {
		settings.Privacy.AllowDirectMessages = *patch.AllowDirectMessages
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}

	if patch.WhoCanSeeMyPosts != nil {
		switch *patch.WhoCanSeeMyPosts {
		case model.AudienceFollowers, model.AudienceOnlyMe:
			err = s.userRepo.SetPrivate(ctx, userID, true)
		case model.AudienceEveryone:
			err = s.userRepo.SetPrivate(ctx, userID, false)
		}
		if err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func (s *settingsService) UpdateDisplay(ctx context.Context, userID string, patch DisplayPatch) (*model.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Theme != nil {
		settings.Display.Theme = *patch.Theme
	}
	if patch.Language != nil {
		settings.Display.Language = *patch.Language
	}
	if patch.FontSize != nil {
		settings.Display.FontSize = *patch.FontSize
	}
	if patch.ShowSensitiveContent != nil {
		settings.Display.ShowSensitiveContent = *patch.ShowSensitiveContent
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	// 语言同步到 User
	if patch.Language != nil {
		if err := s.userRepo.UpdateFields(ctx, userID, map[string]any{"language": *patch.Language}); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func (s *settingsService) UpdateContent(ctx context.Context, userID string, patch ContentPatch) (*model.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.AutoplayVideos != nil {
		settings.Content.AutoplayVideos = *patch.AutoplayVideos
	}
	if patch.ShowMediaPreviews != nil {
		settings.Content.ShowMediaPreviews = *patch.ShowMediaPreviews
	}
	if patch.EnableMentions != nil {
		settings.Content.EnableMentions = *patch.EnableMentions
	}
	if err := s.settingsRepo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// CanViewContent 目标为 followers 时要求 viewer 持有已接受的边或为本人；
// only_me 仅本人。出错放行。
func (s *settingsService) CanViewContent(ctx context.Context, viewerID, targetID string) bool {
	settings, err := s.Get(ctx, targetID)
	if err != nil {
		logger.Warn("canViewContent fail open", zap.String("target", targetID), zap.Error(err))
		return true
	}
	switch settings.Privacy.WhoCanSeeMyPosts {
	case model.AudienceEveryone:
		return true
	case model.AudienceFollowers:
		if viewerID == targetID {
			return true
		}
		ok, err := s.followRepo.ExistsAccepted(ctx, viewerID, targetID)
		if err != nil {
			logger.Warn("canViewContent fail open", zap.String("target", targetID), zap.Error(err))
			return true
		}
		return ok
	case model.AudienceOnlyMe:
		return viewerID == targetID
	default:
		return true
	}
}

// CanMentionUser 与 CanViewContent 同构，映射 whoCanMentionMe。出错放行。
func (s *settingsService) CanMentionUser(ctx context.Context, mentionerID, targetID string) bool {
	settings, err := s.Get(ctx, targetID)
	if err != nil {
		logger.Warn("canMentionUser fail open", zap.String("target", targetID), zap.Error(err))
		return true
	}
	switch settings.Privacy.WhoCanMentionMe {
	case model.AudienceEveryone:
		return true
	case model.AudienceFollowers:
		ok, err := s.followRepo.ExistsAccepted(ctx, mentionerID, targetID)
		if err != nil {
			logger.Warn("canMentionUser fail open", zap.String("target", targetID), zap.Error(err))
			return true
		}
		return ok
	case model.AudienceNobody:
		return false
	default:
		return true
	}
}

// CanReceiveNotification 查对应渠道/事件的开关；未知类型或出错一律放行
func (s *settingsService) CanReceiveNotification(ctx context.Context, userID, notifType, channel string) bool {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		logger.Warn("canReceiveNotification fail open", zap.String("user", userID), zap.Error(err))
		return true
	}

	var prefs model.NotificationPrefs
	switch channel {
	case ChannelEmail:
		prefs = settings.Email
	case ChannelPush:
		prefs = settings.Push
	case ChannelInApp:
		prefs = settings.InApp.NotificationPrefs
	default:
		return true
	}

	switch notifType {
	case model.NotifyNewFollower:
		return prefs.NewFollower
	case model.NotifyFollowRequest:
		return prefs.FollowRequest
	case model.NotifyFollowAccepted:
		return prefs.FollowAccepted
	case model.NotifyThreadLike:
		return prefs.ThreadLike
	case model.NotifyThreadReply:
		return prefs.ThreadReply
	case model.NotifyMention:
		return prefs.Mention
	case model.NotifyContentValidated:
		if channel == ChannelInApp {
			return settings.InApp.ContentValidated
		}
		return true
	case model.NotifyContentFlagged:
		if channel == ChannelInApp {
			return settings.InApp.ContentFlagged
		}
		return true
	default:
		return true
	}
}

func (s *settingsService) ResetToDefault(ctx context.Context, userID string) (*model.Settings, error) {
	if _, err := s.settingsRepo.Delete(ctx, userID); err != nil {
		return nil, err
	}
	settings := model.DefaultSettings(userID)
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) Delete(ctx context.Context, userID string) error {
	_, err := s.settingsRepo.Delete(ctx, userID)
	return err
}
