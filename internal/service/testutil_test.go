package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/database"
)

// captureNotifier 记录推送调用，替代 redis 通道
type captureNotifier struct {
	mu            sync.Mutex
	notifications map[string][]interface{} // recipient → payloads
	unreadCounts  map[string]int64
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{
		notifications: make(map[string][]interface{}),
		unreadCounts:  make(map[string]int64),
	}
}

func (n *captureNotifier) PushNotification(ctx context.Context, userID string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications[userID] = append(n.notifications[userID], payload)
	return nil
}

func (n *captureNotifier) PushUnreadCount(ctx context.Context, userID string, count int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unreadCounts[userID] = count
	return nil
}

func (n *captureNotifier) pushed(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications[userID])
}

type testEnv struct {
	db       *gorm.DB
	notifier *captureNotifier

	userRepo     repository.UserRepository
	followRepo   repository.FollowRepository
	settingsRepo repository.SettingsRepository
	notifRepo    repository.NotificationRepository
	threadRepo   repository.ThreadRepository
	likeRepo     repository.LikeRepository
	replyRepo    repository.ReplyRepository
	flagRepo     repository.FlagRepository

	settingsSvc SettingsService
	notifSvc    NotificationService
	followSvc   FollowService
	threadSvc   ThreadService
	userSvc     UserService
	modSvc      ModerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{db: db, notifier: newCaptureNotifier()}
	env.userRepo = repository.NewUserRepository(db)
	env.followRepo = repository.NewFollowRepository(db)
	env.settingsRepo = repository.NewSettingsRepository(db)
	env.notifRepo = repository.NewNotificationRepository(db)
	env.threadRepo = repository.NewThreadRepository(db)
	env.likeRepo = repository.NewLikeRepository(db)
	env.replyRepo = repository.NewReplyRepository(db)
	env.flagRepo = repository.NewFlagRepository(db)

	env.settingsSvc = NewSettingsService(env.settingsRepo, env.userRepo, env.followRepo)
	env.notifSvc = NewNotificationService(env.notifRepo, env.userRepo, env.threadRepo, env.settingsSvc, env.notifier)
	env.followSvc = NewFollowService(env.followRepo, env.userRepo, env.settingsSvc, env.notifSvc)
	env.threadSvc = NewThreadService(env.threadRepo, env.likeRepo, env.replyRepo, env.userRepo, env.followRepo, env.settingsSvc, env.notifSvc)
	env.userSvc = NewUserService(env.userRepo, env.settingsRepo, env.followRepo, env.threadRepo, env.replyRepo, env.likeRepo, env.notifRepo)
	env.modSvc = NewModerationService(env.threadRepo, env.replyRepo, env.likeRepo, env.flagRepo, env.notifSvc)
	return env
}

func (e *testEnv) mkUser(t *testing.T, username string, private bool) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "p",
		IsPrivate: private,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), u))
	if private {
		s := model.DefaultSettings(u.ID)
		s.Privacy.WhoCanSeeMyPosts = model.AudienceFollowers
		require.NoError(t, e.settingsRepo.Create(context.Background(), s))
	}
	return u
}

func (e *testEnv) mkThread(t *testing.T, authorID, content string) *model.Thread {
	t.Helper()
	th := &model.Thread{AuthorID: authorID, Content: content}
	require.NoError(t, e.threadRepo.Create(context.Background(), th))
	return th
}
