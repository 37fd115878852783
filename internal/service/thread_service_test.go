package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

func threadIDs(list []FeedThread) []string {
	ids := make([]string, len(list))
	for i, t := range list {
		ids[i] = t.ID
	}
	return ids
}

func TestCreateThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	view, err := env.threadSvc.Create(ctx, alice.ID, "hello @bob", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Author.Username)

	a, _ := env.userRepo.ByID(ctx, alice.ID)
	assert.Equal(t, int64(1), a.ThreadsCount)

	// @bob 收到提及通知
	count, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	assert.Equal(t, int64(1), count)
}

func TestCreateThreadValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.mkUser(t, "alice", false)

	_, err := env.threadSvc.Create(context.Background(), alice.ID, "   ", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, err = env.threadSvc.Create(context.Background(), alice.ID, string(long), "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestExploreFeedAnonymousExcludesPrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", true)
	pub := env.mkThread(t, alice.ID, "public thread")
	env.mkThread(t, bob.ID, "private thread")

	list, p, err := env.threadSvc.ExploreFeed(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{pub.ID}, threadIDs(list))
	assert.Equal(t, int64(1), p.Total)
}

func TestExploreFeedViewerSeesOwnAndFollowedPrivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", true)
	bob := env.mkUser(t, "bob", true)
	carol := env.mkUser(t, "carol", true)
	own := env.mkThread(t, alice.ID, "my own")
	followed := env.mkThread(t, bob.ID, "followed private")
	env.mkThread(t, carol.ID, "stranger private")

	_, err := env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.followSvc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	list, _, err := env.threadSvc.ExploreFeed(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{own.ID, followed.ID}, threadIDs(list))
}

func TestHomeFeedIncludesOwnThreads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", true)
	bob := env.mkUser(t, "bob", true)
	carol := env.mkUser(t, "carol", true)
	own := env.mkThread(t, alice.ID, "my own")
	followed := env.mkThread(t, bob.ID, "followed private")
	env.mkThread(t, carol.ID, "stranger private")

	_, err := env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.followSvc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	list, _, err := env.threadSvc.HomeFeed(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{own.ID, followed.ID}, threadIDs(list))

	// 匿名视角退化为 explore：私密作者全部不可见
	list, _, err = env.threadSvc.HomeFeed(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFeedEnrichment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	th := env.mkThread(t, bob.ID, "likeable")

	_, err := env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.threadSvc.Like(ctx, th.ID, alice.ID)
	require.NoError(t, err)

	list, _, err := env.threadSvc.ExploreFeed(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsLiked)
	assert.True(t, list[0].Author.IsFollowing)
	assert.Equal(t, model.FollowStatusAccepted, list[0].Author.FollowStatus)
	assert.Equal(t, int64(1), list[0].LikesCount)
}

func TestSearchUsesLooserPredicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", true)
	env.mkThread(t, bob.ID, "secret topic")

	_, err := env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.followSvc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// feed 放行已接受关注的私密作者
	feed, _, err := env.threadSvc.ExploreFeed(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	// 搜索的可见性谓词更严：不放行已关注的私密作者
	found, _, err := env.threadSvc.Search(ctx, "secret", alice.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, found)

	// 作者本人能搜到
	found, _, err = env.threadSvc.Search(ctx, "SECRET", bob.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestGetThreadPrivacyGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", true)
	th := env.mkThread(t, bob.ID, "followers only")

	_, err := env.threadSvc.Get(ctx, th.ID, alice.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	_, err = env.followSvc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.followSvc.AcceptRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	detail, err := env.threadSvc.Get(ctx, th.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, th.ID, detail.ID)
}

func TestLikeUnlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	th := env.mkThread(t, bob.ID, "likeable")

	count, err := env.threadSvc.Like(ctx, th.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// 作者收到 thread_like 通知
	unread, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	assert.Equal(t, int64(1), unread)

	// 重复点赞由唯一索引裁决
	_, err = env.threadSvc.Like(ctx, th.ID, alice.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyExists))

	count, err = env.threadSvc.Unlike(ctx, th.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = env.threadSvc.Unlike(ctx, th.ID, alice.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLikeOwnThreadNoNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	th := env.mkThread(t, alice.ID, "self like")

	_, err := env.threadSvc.Like(ctx, th.ID, alice.ID)
	require.NoError(t, err)
	count, _ := env.notifRepo.CountUnread(ctx, alice.ID)
	assert.Zero(t, count)
}

func TestUpdateThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	carol := env.mkUser(t, "carol", false)
	th := env.mkThread(t, alice.ID, "original")

	// 非作者不可编辑
	newContent := "edited @bob"
	_, err := env.threadSvc.Update(ctx, th.ID, carol.ID, &newContent, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	view, err := env.threadSvc.Update(ctx, th.ID, alice.ID, &newContent, nil)
	require.NoError(t, err)
	assert.Equal(t, newContent, view.Content)

	// 内容变化触发提及解析
	count, _ := env.notifRepo.CountUnread(ctx, bob.ID)
	assert.Equal(t, int64(1), count)
}

func TestDeleteThreadCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)

	view, err := env.threadSvc.Create(ctx, alice.ID, "to delete", "")
	require.NoError(t, err)
	_, err = env.threadSvc.Like(ctx, view.ID, bob.ID)
	require.NoError(t, err)
	_, err = env.threadSvc.AddReply(ctx, view.ID, bob.ID, "a reply")
	require.NoError(t, err)

	require.NoError(t, env.threadSvc.Delete(ctx, view.ID, alice.ID))

	a, _ := env.userRepo.ByID(ctx, alice.ID)
	assert.Zero(t, a.ThreadsCount)
	replies, _ := env.replyRepo.ListByThread(ctx, view.ID)
	assert.Empty(t, replies)
	liked, _ := env.likeRepo.Exists(ctx, bob.ID, view.ID)
	assert.False(t, liked)
}

func TestAddReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", false)
	th := env.mkThread(t, alice.ID, "discuss")

	rp, err := env.threadSvc.AddReply(ctx, th.ID, bob.ID, "nice one")
	require.NoError(t, err)
	assert.Equal(t, "bob", rp.Author.Username)

	fresh, _ := env.threadRepo.ByID(ctx, th.ID)
	assert.Equal(t, int64(1), fresh.RepliesCount)

	// 作者收到 thread_reply 通知
	count, _ := env.notifRepo.CountUnread(ctx, alice.ID)
	assert.Equal(t, int64(1), count)

	// 删除回复回收计数
	require.NoError(t, env.threadSvc.DeleteReply(ctx, rp.ID, bob.ID))
	fresh, _ = env.threadRepo.ByID(ctx, th.ID)
	assert.Zero(t, fresh.RepliesCount)
}

func TestUserThreadsPrivacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	bob := env.mkUser(t, "bob", true)
	env.mkThread(t, bob.ID, "mine")

	_, _, err := env.threadSvc.UserThreads(ctx, bob.ID, alice.ID, 1, 20)
	assert.True(t, apperr.IsKind(err, apperr.KindPermissionDenied))

	list, p, err := env.threadSvc.UserThreads(ctx, bob.ID, bob.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(1), p.Total)
}

func TestFeedPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.mkUser(t, "alice", false)
	for i := 0; i < 5; i++ {
		env.mkThread(t, alice.ID, "thread")
	}

	list, p, err := env.threadSvc.ExploreFeed(ctx, "", 1, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(5), p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasMore)

	list, p, err = env.threadSvc.ExploreFeed(ctx, "", 3, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.False(t, p.HasMore)
}
