package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

func TestFlagThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	th := env.mkThread(t, alice.ID, "questionable")

	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, th.ID, bob.ID, "spam"))

	fresh, _ := env.threadRepo.ByID(ctx, th.ID)
	assert.True(t, fresh.IsFlagged)

	flags, err := env.flagRepo.ListByContent(ctx, th.ID, model.ContentKindThread)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, bob.ID, flags[0].ReporterID)

	// 作者收到 content_flagged 通知
	count, _ := env.notifRepo.CountUnread(ctx, alice.ID)
	assert.Equal(t, int64(1), count)
}

func TestFlagOwnContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	th := env.mkThread(t, alice.ID, "mine")

	err := env.modSvc.FlagContent(ctx, model.ContentKindThread, th.ID, alice.ID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestValidateClearsFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)
	th := env.mkThread(t, alice.ID, "fine actually")

	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, th.ID, bob.ID, ""))
	require.NoError(t, env.modSvc.Validate(ctx, model.ContentKindThread, th.ID, mod.ID))

	fresh, _ := env.threadRepo.ByID(ctx, th.ID)
	assert.False(t, fresh.IsFlagged)
	assert.True(t, fresh.IsValidated)
	assert.Equal(t, mod.ID, fresh.ValidatedBy)
	require.NotNil(t, fresh.ValidatedAt)
}

func TestModerateRemoveReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)
	th := env.mkThread(t, alice.ID, "discuss")

	rp, err := env.threadSvc.AddReply(ctx, th.ID, bob.ID, "rude reply")
	require.NoError(t, err)

	require.NoError(t, env.modSvc.Moderate(ctx, model.ContentKindReply, rp.ID, mod.ID, ActionRemove))

	_, err = env.replyRepo.ByID(ctx, rp.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	fresh, _ := env.threadRepo.ByID(ctx, th.ID)
	assert.Zero(t, fresh.RepliesCount)
}

func TestModerateRemoveThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)
	th := env.mkThread(t, alice.ID, "over the line")

	rp, err := env.threadSvc.AddReply(ctx, th.ID, bob.ID, "me too")
	require.NoError(t, err)
	_, err = env.threadSvc.Like(ctx, th.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, env.modSvc.Moderate(ctx, model.ContentKindThread, th.ID, mod.ID, ActionRemove))

	_, err = env.threadRepo.ByID(ctx, th.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	_, err = env.replyRepo.ByID(ctx, rp.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	liked, err := env.likeRepo.Exists(ctx, bob.ID, th.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestValidateReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)
	th := env.mkThread(t, alice.ID, "topic")

	rp, err := env.threadSvc.AddReply(ctx, th.ID, bob.ID, "fine actually")
	require.NoError(t, err)

	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindReply, rp.ID, alice.ID, ""))
	require.NoError(t, env.modSvc.Validate(ctx, model.ContentKindReply, rp.ID, mod.ID))

	fresh, err := env.replyRepo.ByID(ctx, rp.ID)
	require.NoError(t, err)
	assert.False(t, fresh.IsFlagged)
	assert.True(t, fresh.IsValidated)
	assert.Equal(t, mod.ID, fresh.ValidatedBy)
}

func TestModerateIgnore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)
	th := env.mkThread(t, alice.ID, "borderline")

	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, th.ID, bob.ID, ""))
	require.NoError(t, env.modSvc.Moderate(ctx, model.ContentKindThread, th.ID, mod.ID, ActionIgnore))

	fresh, _ := env.threadRepo.ByID(ctx, th.ID)
	assert.False(t, fresh.IsFlagged)
	assert.False(t, fresh.IsValidated)
}

func TestModerateUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mkUser(t, "alice", false)
	th := env.mkThread(t, alice.ID, "x")

	err := env.modSvc.Moderate(context.Background(), model.ContentKindThread, th.ID, alice.ID, "obliterate")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	err = env.modSvc.Moderate(context.Background(), "poll", th.ID, alice.ID, ActionApprove)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestScanContent(t *testing.T) {
	cases := []struct {
		text string
		rule string
	}{
		{"a perfectly normal message", ""},
		{"buy now, total SPAM offer", "banned_word"},
		{"THIS IS ALL SHOUTING TEXT", "all_caps"},
		{"what?!?!?!", "punctuation_run"},
		{"loooooool", "repeated_characters"},
		{"ok!!", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rule, scanContent(tc.text), "text=%q", tc.text)
	}
}

func TestAutoValidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	mod := env.mkUser(t, "moderator", false)

	clean := env.mkThread(t, alice.ID, "nothing wrong here")
	dirty := env.mkThread(t, alice.ID, "glorious spam content")
	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, clean.ID, bob.ID, ""))
	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, dirty.ID, bob.ID, ""))

	passed, rule, err := env.modSvc.AutoValidate(ctx, model.ContentKindThread, clean.ID, mod.ID)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Empty(t, rule)
	fresh, _ := env.threadRepo.ByID(ctx, clean.ID)
	assert.True(t, fresh.IsValidated)

	passed, rule, err = env.modSvc.AutoValidate(ctx, model.ContentKindThread, dirty.ID, mod.ID)
	require.NoError(t, err)
	assert.False(t, passed)
	assert.Equal(t, "banned_word", rule)
	fresh, _ = env.threadRepo.ByID(ctx, dirty.ID)
	assert.True(t, fresh.IsFlagged)
}

func TestFlaggedQueueAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	th := env.mkThread(t, alice.ID, "thread content")
	rp, err := env.threadSvc.AddReply(ctx, th.ID, bob.ID, "reply content")
	require.NoError(t, err)

	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindThread, th.ID, bob.ID, "r1"))
	require.NoError(t, env.modSvc.FlagContent(ctx, model.ContentKindReply, rp.ID, alice.ID, "r2"))

	queue, err := env.modSvc.FlaggedContent(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, queue.Threads, 1)
	require.Len(t, queue.Replies, 1)
	assert.Equal(t, th.ID, queue.Threads[0].ID)
	assert.Equal(t, rp.ID, queue.Replies[0].ID)
	assert.Len(t, queue.Threads[0].Flags, 1)

	stats, err := env.modSvc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FlaggedThreads)
	assert.Equal(t, int64(1), stats.FlaggedReplies)
}
