package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
	"github.com/d60-Lab/thread-graph/pkg/logger"
)

var ErrInvalidCredentials = apperr.PermissionDenied("invalid credentials")

// ProfilePatch 可部分更新的资料字段
type ProfilePatch struct {
	Name           *string `json:"name" binding:"omitempty,max=64"`
	Bio            *string `json:"bio" binding:"omitempty,max=256"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,max=256"`
}

// UserStats 用户侧统计
type UserStats struct {
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
	ThreadsCount   int64 `json:"threadsCount"`
	UnreadCount    int64 `json:"unreadCount"`
}

// UserService 账号生命周期与资料查询
type UserService interface {
	Register(ctx context.Context, username, email, password, name string) (*model.User, error)
	// Authenticate 支持用户名或邮箱登录
	Authenticate(ctx context.Context, login, password string) (*model.User, error)
	Profile(ctx context.Context, username, viewerID string) (*model.PublicProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error)
	Search(ctx context.Context, query, viewerID string, limit int) ([]model.PublicProfile, error)
	// Suggested 按粉丝数倒序推荐尚未关注的用户
	Suggested(ctx context.Context, userID string, limit int) ([]model.PublicProfile, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	Stats(ctx context.Context, userID string) (*UserStats, error)
	// DeleteAccount 级联清理：通知 → threads → 回复 → 点赞 → 设置 → 关注边 → 用户。
	// 各步独立提交，中途失败会留下部分删除的残留，由重试收敛。
	DeleteAccount(ctx context.Context, userID, password string) error
}

type userService struct {
	userRepo     repository.UserRepository
	settingsRepo repository.SettingsRepository
	followRepo   repository.FollowRepository
	threadRepo   repository.ThreadRepository
	replyRepo    repository.ReplyRepository
	likeRepo     repository.LikeRepository
	notifRepo    repository.NotificationRepository
}

func NewUserService(userRepo repository.UserRepository, settingsRepo repository.SettingsRepository, followRepo repository.FollowRepository, threadRepo repository.ThreadRepository, replyRepo repository.ReplyRepository, likeRepo repository.LikeRepository, notifRepo repository.NotificationRepository) UserService {
	return &userService{
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		followRepo:   followRepo,
		threadRepo:   threadRepo,
		replyRepo:    replyRepo,
		likeRepo:     likeRepo,
		notifRepo:    notifRepo,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password, name string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" {
		return nil, apperr.InvalidArgument("username and email are required")
	}
	if len(password) < 6 {
		return nil, apperr.InvalidArgument("password must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username: username,
		Email:    email,
		Name:     name,
		Password: string(hashed),
	}
	// 用户名/邮箱唯一性由存储层唯一索引裁决
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	if err := s.settingsRepo.Create(ctx, model.DefaultSettings(u.ID)); err != nil {
		logger.Warn("default settings creation failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	var (
		u   *model.User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = s.userRepo.ByEmail(ctx, strings.ToLower(login))
	} else {
		u, err = s.userRepo.ByUsername(ctx, login)
	}
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) Profile(ctx context.Context, username, viewerID string) (*model.PublicProfile, error) {
	u, err := s.userRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	p := u.PublicProfile()
	if viewerID != "" && viewerID != u.ID {
		edge, err := s.followRepo.Get(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		if edge != nil {
			p.IsFollowing = true
			p.FollowStatus = edge.Status
		}
	}
	return &p, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Bio != nil {
		fields["bio"] = *patch.Bio
	}
	if patch.ProfilePicture != nil {
		fields["profile_picture"] = *patch.ProfilePicture
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.userRepo.ByID(ctx, userID)
}

func (s *userService) Search(ctx context.Context, query, viewerID string, limit int) ([]model.PublicProfile, error) {
	if limit < 1 || limit > 50 {
		limit = 20
	}
	users, err := s.userRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return s.enrichProfiles(ctx, users, viewerID)
}

func (s *userService) Suggested(ctx context.Context, userID string, limit int) ([]model.PublicProfile, error) {
	if limit < 1 || limit > 50 {
		limit = 5
	}
	// 排除自己以及已有任何关注边（含 pending）的用户
	exclude := []string{userID}
	statusMap, err := s.followRepo.StatusMap(ctx, userID)
	if err != nil {
		return nil, err
	}
	for id := range statusMap {
		exclude = append(exclude, id)
	}
	users, err := s.userRepo.Suggested(ctx, exclude, limit)
	if err != nil {
		return nil, err
	}
	res := make([]model.PublicProfile, 0, len(users))
	for _, u := range users {
		res = append(res, u.PublicProfile())
	}
	return res, nil
}

func (s *userService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.userRepo.UsernameTaken(ctx, username)
	return !taken, err
}

func (s *userService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.userRepo.EmailTaken(ctx, strings.ToLower(email))
	return !taken, err
}

func (s *userService) Stats(ctx context.Context, userID string) (*UserStats, error) {
	u, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		ThreadsCount:   u.ThreadsCount,
		UnreadCount:    unread,
	}, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID, password string) error {
	u, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return ErrInvalidCredentials
	}

	if n, err := s.notifRepo.DeleteAllForUser(ctx, userID); err != nil {
		return err
	} else if n > 0 {
		logger.Info("account cleanup: notifications removed", zap.String("user_id", userID), zap.Int64("count", n))
	}
	if n, err := s.threadRepo.DeleteAllForAuthor(ctx, userID); err != nil {
		return err
	} else if n > 0 {
		logger.Info("account cleanup: threads removed", zap.String("user_id", userID), zap.Int64("count", n))
	}
	if n, err := s.replyRepo.DeleteByAuthor(ctx, userID); err != nil {
		return err
	} else if n > 0 {
		logger.Info("account cleanup: replies removed", zap.String("user_id", userID), zap.Int64("count", n))
	}
	if n, err := s.likeRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	} else if n > 0 {
		logger.Info("account cleanup: likes removed", zap.String("user_id", userID), zap.Int64("count", n))
	}
	if _, err := s.settingsRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if n, err := s.followRepo.DeleteAllForUser(ctx, userID); err != nil {
		return err
	} else if n > 0 {
		logger.Info("account cleanup: follow edges removed", zap.String("user_id", userID), zap.Int64("count", n))
	}

	ok, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user not found")
	}
	logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// enrichProfiles 附加 viewer 对各用户的关注状态
func (s *userService) enrichProfiles(ctx context.Context, users []*model.User, viewerID string) ([]model.PublicProfile, error) {
	var statusMap map[string]string
	if viewerID != "" {
		var err error
		statusMap, err = s.followRepo.StatusMap(ctx, viewerID)
		if err != nil {
			return nil, err
		}
	}
	res := make([]model.PublicProfile, 0, len(users))
	for _, u := range users {
		p := u.PublicProfile()
		if status, ok := statusMap[u.ID]; ok {
			p.IsFollowing = true
			p.FollowStatus = status
		}
		res = append(res, p)
	}
	return res, nil
}
