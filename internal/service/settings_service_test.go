package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/thread-graph/internal/model"
)

func TestGetSettingsLazyDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)

	settings, err := env.settingsSvc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AudienceEveryone, settings.Privacy.WhoCanFollowMe)
	assert.Equal(t, model.AudienceEveryone, settings.Privacy.WhoCanSeeMyPosts)
	assert.True(t, settings.InApp.Mention)
	assert.True(t, settings.InApp.ContentValidated)
	assert.Equal(t, "fr", settings.Display.Language)
	assert.Equal(t, "light", settings.Display.Theme)

	// 第二次读取返回同一条
	again, err := env.settingsSvc.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, again.ID)
}

func TestUpdatePrivacySyncsLegacyFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)

	followers := model.AudienceFollowers
	_, err := env.settingsSvc.UpdatePrivacy(ctx, alice.ID, PrivacyPatch{WhoCanSeeMyPosts: &followers})
	require.NoError(t, err)
	u, _ := env.userRepo.ByID(ctx, alice.ID)
	assert.True(t, u.IsPrivate)

	everyone := model.AudienceEveryone
	_, err = env.settingsSvc.UpdatePrivacy(ctx, alice.ID, PrivacyPatch{WhoCanSeeMyPosts: &everyone})
	require.NoError(t, err)
	u, _ = env.userRepo.ByID(ctx, alice.ID)
	assert.False(t, u.IsPrivate)
}

func TestUpdateNotificationsPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)

	off := false
	settings, err := env.settingsSvc.UpdateNotifications(ctx, alice.ID, NotificationPatch{
		InApp: &InAppPrefsPatch{
			NotificationPrefsPatch: NotificationPrefsPatch{ThreadLike: &off},
			ContentFlagged:         &off,
		},
	})
	require.NoError(t, err)
	assert.False(t, settings.InApp.ThreadLike)
	assert.False(t, settings.InApp.ContentFlagged)
	// 未触及的字段保持默认
	assert.True(t, settings.InApp.Mention)
	assert.True(t, settings.Email.ThreadLike)
}

func TestUpdateDisplaySyncsLanguage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)

	lang := "ar"
	_, err := env.settingsSvc.UpdateDisplay(ctx, alice.ID, DisplayPatch{Language: &lang})
	require.NoError(t, err)
	u, _ := env.userRepo.ByID(ctx, alice.ID)
	assert.Equal(t, "ar", u.Language)
}

func TestCanViewContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	carol := env.mkUser(t, "carol", false)

	// everyone：任意 viewer 放行，包括匿名
	assert.True(t, env.settingsSvc.CanViewContent(ctx, "", bob.ID))

	followers := model.AudienceFollowers
	_, err := env.settingsSvc.UpdatePrivacy(ctx, bob.ID, PrivacyPatch{WhoCanSeeMyPosts: &followers})
	require.NoError(t, err)

	assert.True(t, env.settingsSvc.CanViewContent(ctx, bob.ID, bob.ID))
	assert.False(t, env.settingsSvc.CanViewContent(ctx, alice.ID, bob.ID))

	_, err = env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.followSvc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, env.settingsSvc.CanViewContent(ctx, alice.ID, bob.ID))

	onlyMe := model.AudienceOnlyMe
	_, err = env.settingsSvc.UpdatePrivacy(ctx, bob.ID, PrivacyPatch{WhoCanSeeMyPosts: &onlyMe})
	require.NoError(t, err)
	assert.False(t, env.settingsSvc.CanViewContent(ctx, alice.ID, bob.ID))
	assert.False(t, env.settingsSvc.CanViewContent(ctx, carol.ID, bob.ID))
	assert.True(t, env.settingsSvc.CanViewContent(ctx, bob.ID, bob.ID))
}

func TestCanMentionUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	assert.True(t, env.settingsSvc.CanMentionUser(ctx, alice.ID, bob.ID))

	nobody := model.AudienceNobody
	_, err := env.settingsSvc.UpdatePrivacy(ctx, bob.ID, PrivacyPatch{WhoCanMentionMe: &nobody})
	require.NoError(t, err)
	assert.False(t, env.settingsSvc.CanMentionUser(ctx, alice.ID, bob.ID))

	followers := model.AudienceFollowers
	_, err = env.settingsSvc.UpdatePrivacy(ctx, bob.ID, PrivacyPatch{WhoCanMentionMe: &followers})
	require.NoError(t, err)
	assert.False(t, env.settingsSvc.CanMentionUser(ctx, alice.ID, bob.ID))

	_, err = env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, env.settingsSvc.CanMentionUser(ctx, alice.ID, bob.ID))
}

func TestCanReceiveNotificationChannels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.mkUser(t, "bob", false)

	off := false
	_, err := env.settingsSvc.UpdateNotifications(ctx, bob.ID, NotificationPatch{
		Push: &NotificationPrefsPatch{Mention: &off},
	})
	require.NoError(t, err)

	// 渠道相互独立
	assert.False(t, env.settingsSvc.CanReceiveNotification(ctx, bob.ID, model.NotifyMention, ChannelPush))
	assert.True(t, env.settingsSvc.CanReceiveNotification(ctx, bob.ID, model.NotifyMention, ChannelInApp))
	assert.True(t, env.settingsSvc.CanReceiveNotification(ctx, bob.ID, model.NotifyMention, ChannelEmail))

	// 未知类型放行
	assert.True(t, env.settingsSvc.CanReceiveNotification(ctx, bob.ID, "unknown_type", ChannelInApp))
}

func TestPermissionChecksFailOpenOnStorageError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// 存储层故障时三个检查一律放行
	assert.True(t, env.settingsSvc.CanViewContent(ctx, alice.ID, bob.ID))
	assert.True(t, env.settingsSvc.CanMentionUser(ctx, alice.ID, bob.ID))
	assert.True(t, env.settingsSvc.CanReceiveNotification(ctx, bob.ID, model.NotifyMention, ChannelInApp))
}

func TestResetToDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)

	dark := "dark"
	_, err := env.settingsSvc.UpdateDisplay(ctx, alice.ID, DisplayPatch{Theme: &dark})
	require.NoError(t, err)

	settings, err := env.settingsSvc.ResetToDefault(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "light", settings.Display.Theme)
}
