package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

func TestCreateNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	n, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID,
		SenderID:    alice.ID,
		Type:        model.NotifyNewFollower,
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsRead)

	// 实时通道收到通知与未读数两个事件
	assert.Equal(t, 1, env.notifier.pushed(bob.ID))
	assert.Equal(t, int64(1), env.notifier.unreadCounts[bob.ID])
}

func TestCreateNotificationDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	in := CreateNotificationInput{RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyThreadLike, ThreadID: "t1"}
	first, err := env.notifSvc.Create(ctx, in)
	require.NoError(t, err)
	second, err := env.notifSvc.Create(ctx, in)
	require.NoError(t, err)

	// 窗口内合并为同一条
	assert.Equal(t, first.ID, second.ID)
	count, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, env.notifier.pushed(bob.ID))

	// 不同 thread 不合并
	other, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyThreadLike, ThreadID: "t2",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateNotificationRespectsPrefs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	s := model.DefaultSettings(bob.ID)
	s.InApp.ThreadLike = false
	require.NoError(t, env.settingsRepo.Create(ctx, s))

	n, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyThreadLike, ThreadID: "t1",
	})
	require.NoError(t, err)
	// 偏好关闭：零副作用
	assert.Nil(t, n)
	count, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	assert.Zero(t, count)
	assert.Zero(t, env.notifier.pushed(bob.ID))
}

func TestDetectMentions(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, []string{"bob", "carol"}, env.notifSvc.DetectMentions("hello @bob and @carol"))
	assert.Empty(t, env.notifSvc.DetectMentions("no mentions here"))
	assert.Equal(t, []string{"a", "a"}, env.notifSvc.DetectMentions("@a @a"))
}

func TestCreateMentionNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	carol := env.mkUser(t, "carol", false)

	// carol 禁止被提及
	s := model.DefaultSettings(carol.ID)
	s.Privacy.WhoCanMentionMe = model.AudienceNobody
	require.NoError(t, env.settingsRepo.Create(ctx, s))

	// 未知用户与自我提及跳过
	err := env.notifSvc.CreateMentionNotifications(ctx, "hi @bob @carol @ghost @alice", alice.ID, "t1")
	require.NoError(t, err)

	bobCount, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	carolCount, _ := env.notifRepo.CountUnread(ctx, carol.ID)
	aliceCount, _ := env.notifRepo.CountUnread(ctx, alice.ID)
	assert.Equal(t, int64(1), bobCount)
	assert.Zero(t, carolCount)
	assert.Zero(t, aliceCount)
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	n, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyNewFollower,
	})
	require.NoError(t, err)

	// 只能标记本人的通知
	err = env.notifSvc.MarkRead(ctx, n.ID, alice.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, env.notifSvc.MarkRead(ctx, n.ID, bob.ID))
	count, _ := env.notifSvc.UnreadCount(ctx, bob.ID)
	assert.Zero(t, count)
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	for _, typ := range []string{model.NotifyNewFollower, model.NotifyMention, model.NotifyThreadReply} {
		_, err := env.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: bob.ID, SenderID: alice.ID, Type: typ,
		})
		require.NoError(t, err)
	}

	updated, err := env.notifSvc.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)
}

func TestUnreadPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.mkUser(t, "bob", false)
	for i := 0; i < 5; i++ {
		sender := env.mkUser(t, "sender"+string(rune('a'+i)), false)
		_, err := env.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: bob.ID, SenderID: sender.ID, Type: model.NotifyNewFollower,
		})
		require.NoError(t, err)
	}

	views, p, err := env.notifSvc.Unread(ctx, bob.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, int64(5), p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasMore)

	_, p, err = env.notifSvc.Unread(ctx, bob.ID, 3, 2)
	require.NoError(t, err)
	assert.False(t, p.HasMore)
}

func TestCleanupOld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	n, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyNewFollower,
	})
	require.NoError(t, err)
	require.NoError(t, env.notifSvc.MarkRead(ctx, n.ID, bob.ID))

	// 已读但未过保留期
	deleted, err := env.notifSvc.CleanupOld(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// 回拨创建时间到保留期之外
	old := time.Now().Add(-31 * 24 * time.Hour)
	require.NoError(t, env.db.Model(&model.Notification{}).Where("id = ?", n.ID).
		Update("created_at", old).Error)

	deleted, err = env.notifSvc.CleanupOld(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestNotificationStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	_, err := env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyNewFollower,
	})
	require.NoError(t, err)
	_, err = env.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: bob.ID, SenderID: alice.ID, Type: model.NotifyMention, ThreadID: "t1",
	})
	require.NoError(t, err)

	stats, err := env.notifSvc.Stats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, stats, 2)
}
