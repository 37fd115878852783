package service

import (
	"context"
	"strings"
	"time"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

const maxContentLen = 500

// FeedAuthor 每条 feed 记录冗余的作者信息，附 viewer 视角的关注状态
type FeedAuthor struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsVerified     bool   `json:"isVerified"`
	IsPrivate      bool   `json:"isPrivate"`
	IsFollowing    bool   `json:"isFollowing"`
	FollowStatus   string `json:"followStatus,omitempty"`
}

// FeedThread viewer 视角的 thread 视图
type FeedThread struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Media        string     `json:"media,omitempty"`
	Author       FeedAuthor `json:"author"`
	LikesCount   int64      `json:"likesCount"`
	RepliesCount int64      `json:"repliesCount"`
	IsLiked      bool       `json:"isLiked"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ReplyView thread 详情里的回复
type ReplyView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Author    FeedAuthor `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ThreadDetail 单条 thread 详情
type ThreadDetail struct {
	FeedThread
	Replies []ReplyView `json:"replies"`
}

// ThreadService 组装按 viewer 过滤的 thread 列表，并承载 thread 生命周期。
// 可见性结论来自关注图与隐私偏好；分页 skip=(page-1)*limit。
type ThreadService interface {
	Create(ctx context.Context, authorID, content, media string) (*FeedThread, error)
	// ExploreFeed 匿名只见公开作者；登录用户另见自己与已接受关注的私密作者
	ExploreFeed(ctx context.Context, viewerID string, page, limit int) ([]FeedThread, Pagination, error)
	// HomeFeed 登录用户 = 关注作者 ∪ 自己 ∪ 全部公开作者；匿名退化为 explore
	HomeFeed(ctx context.Context, viewerID string, page, limit int) ([]FeedThread, Pagination, error)
	// Search 大小写不敏感子串匹配；可见性谓词比 canViewContent 更宽松：
	// 只认"作者公开或作者是 viewer"，不放行已关注的 followers-only 作者
	Search(ctx context.Context, query, viewerID string, page, limit int) ([]FeedThread, Pagination, error)
	Get(ctx context.Context, threadID, viewerID string) (*ThreadDetail, error)
	UserThreads(ctx context.Context, userID, viewerID string, page, limit int) ([]FeedThread, Pagination, error)
	Update(ctx context.Context, threadID, userID string, content, media *string) (*FeedThread, error)
	Delete(ctx context.Context, threadID, userID string) error
	Like(ctx context.Context, threadID, userID string) (int64, error)
	Unlike(ctx context.Context, threadID, userID string) (int64, error)
	AddReply(ctx context.Context, threadID, authorID, content string) (*ReplyView, error)
	DeleteReply(ctx context.Context, replyID, userID string) error
}

type threadService struct {
	threadRepo  repository.ThreadRepository
	likeRepo    repository.LikeRepository
	replyRepo   repository.ReplyRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	settingsSvc SettingsService
	notifSvc    NotificationService
}

func NewThreadService(threadRepo repository.ThreadRepository, likeRepo repository.LikeRepository, replyRepo repository.ReplyRepository, userRepo repository.UserRepository, followRepo repository.FollowRepository, settingsSvc SettingsService, notifSvc NotificationService) ThreadService {
	return &threadService{
		threadRepo:  threadRepo,
		likeRepo:    likeRepo,
		replyRepo:   replyRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		settingsSvc: settingsSvc,
		notifSvc:    notifSvc,
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.InvalidArgument("content cannot be empty")
	}
	if len([]rune(content)) > maxContentLen {
		return apperr.InvalidArgument("content cannot exceed 500 characters")
	}
	return nil
}

func (s *threadService) Create(ctx context.Context, authorID, content, media string) (*FeedThread, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	t := &model.Thread{AuthorID: authorID, Content: content, Media: media}
	if err := s.threadRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	if err := s.userRepo.IncrCounter(ctx, authorID, repository.CounterThreads, 1); err != nil {
		return nil, err
	}
	if err := s.notifSvc.CreateMentionNotifications(ctx, content, authorID, t.ID); err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, []*model.Thread{t}, authorID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// feedVisibility 计算一次 feed 查询的可见作者集合；
// includeFollowed 控制是否放行 viewer 已接受关注的作者（search 不放行）
func (s *threadService) feedVisibility(ctx context.Context, viewerID string, includeFollowed bool) (repository.FeedVisibility, error) {
	privateIDs, err := s.userRepo.PrivateIDs(ctx)
	if err != nil {
		return repository.FeedVisibility{}, err
	}
	vis := repository.FeedVisibility{ViewerID: viewerID, PrivateAuthorIDs: privateIDs}
	if viewerID != "" && includeFollowed {
		followed, err := s.followRepo.AcceptedFollowingIDs(ctx, viewerID)
		if err != nil {
			return repository.FeedVisibility{}, err
		}
		vis.IncludeAuthorIDs = followed
	}
	return vis, nil
}

func (s *threadService) ExploreFeed(ctx context.Context, viewerID string, page, limit int) ([]FeedThread, Pagination, error) {
	page, limit, offset := normalizePage(page, limit)

	vis, err := s.feedVisibility(ctx, viewerID, true)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := s.threadRepo.ListVisible(ctx, vis, offset, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.threadRepo.CountVisible(ctx, vis)
	if err != nil {
		return nil, Pagination{}, err
	}
	views, err := s.enrich(ctx, rows, viewerID)
	if err != nil {
		return nil, Pagination{}, err
	}
	return views, newPagination(page, limit, len(rows), total), nil
}

func (s *threadService) HomeFeed(ctx context.Context, viewerID string, page, limit int) ([]FeedThread, Pagination, error) {
	// 匿名视角没有关注集合，退化为 explore
	return s.ExploreFeed(ctx, viewerID, page, limit)
}

func (s *threadService) Search(ctx context.Context, query, viewerID string, page, limit int) ([]FeedThread, Pagination, error) {
	page, limit, offset := normalizePage(page, limit)

	vis, err := s.feedVisibility(ctx, viewerID, false)
	if err != nil {
		return nil, Pagination{}, err
	}
	rows, err := s.threadRepo.Search(ctx, query, vis, offset, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	views, err := s.enrich(ctx, rows, viewerID)
	if err != nil {
		return nil, Pagination{}, err
	}
	// 搜索不做 count，是否还有下一页以整页为判据
	p := Pagination{CurrentPage: page, HasMore: len(rows) == limit}
	return views, p, nil
}

func (s *threadService) Get(ctx context.Context, threadID, viewerID string) (*ThreadDetail, error) {
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if viewerID != t.AuthorID && !s.settingsSvc.CanViewContent(ctx, viewerID, t.AuthorID) {
		return nil, apperr.PermissionDenied("this thread is private")
	}

	views, err := s.enrich(ctx, []*model.Thread{t}, viewerID)
	if err != nil {
		return nil, err
	}
	detail := &ThreadDetail{FeedThread: views[0]}

	replies, err := s.replyRepo.ListByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]string, len(replies))
	for i, rp := range replies {
		authorIDs[i] = rp.AuthorID
	}
	authors, err := s.authorsByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	detail.Replies = make([]ReplyView, 0, len(replies))
	for _, rp := range replies {
		detail.Replies = append(detail.Replies, ReplyView{
			ID:        rp.ID,
			Content:   rp.Content,
			Author:    authors[rp.AuthorID],
			CreatedAt: rp.CreatedAt,
		})
	}
	return detail, nil
}

func (s *threadService) UserThreads(ctx context.Context, userID, viewerID string, page, limit int) ([]FeedThread, Pagination, error) {
	if _, err := s.userRepo.ByID(ctx, userID); err != nil {
		return nil, Pagination{}, err
	}
	if viewerID != userID && !s.settingsSvc.CanViewContent(ctx, viewerID, userID) {
		return nil, Pagination{}, apperr.PermissionDenied("this account is private")
	}

	page, limit, offset := normalizePage(page, limit)
	rows, err := s.threadRepo.ListByAuthor(ctx, userID, offset, limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.threadRepo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}
	views, err := s.enrich(ctx, rows, viewerID)
	if err != nil {
		return nil, Pagination{}, err
	}
	return views, newPagination(page, limit, len(rows), total), nil
}

func (s *threadService) Update(ctx context.Context, threadID, userID string, content, media *string) (*FeedThread, error) {
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t.AuthorID != userID {
		return nil, apperr.PermissionDenied("not allowed to edit this thread")
	}

	contentChanged := false
	if content != nil {
		if err := validateContent(*content); err != nil {
			return nil, err
		}
		contentChanged = *content != t.Content
		t.Content = *content
	}
	if media != nil {
		t.Media = *media
	}
	if err := s.threadRepo.Save(ctx, t); err != nil {
		return nil, err
	}

	if contentChanged {
		if err := s.notifSvc.CreateMentionNotifications(ctx, t.Content, userID, t.ID); err != nil {
			return nil, err
		}
	}

	views, err := s.enrich(ctx, []*model.Thread{t}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *threadService) Delete(ctx context.Context, threadID, userID string) error {
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return err
	}
	if t.AuthorID != userID {
		return apperr.PermissionDenied("not allowed to delete this thread")
	}
	if _, err := s.threadRepo.Delete(ctx, threadID); err != nil {
		return err
	}
	if _, err := s.likeRepo.DeleteByThread(ctx, threadID); err != nil {
		return err
	}
	if _, err := s.replyRepo.DeleteByThread(ctx, threadID); err != nil {
		return err
	}
	return s.userRepo.IncrCounter(ctx, userID, repository.CounterThreads, -1)
}

func (s *threadService) Like(ctx context.Context, threadID, userID string) (int64, error) {
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return 0, err
	}
	// (user, thread) 唯一性由 idx_like_pair 裁决
	if err := s.likeRepo.Create(ctx, userID, threadID); err != nil {
		return 0, err
	}
	if err := s.threadRepo.IncrCounter(ctx, threadID, "likes_count", 1); err != nil {
		return 0, err
	}
	if t.AuthorID != userID {
		if _, err := s.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: t.AuthorID,
			SenderID:    userID,
			Type:        model.NotifyThreadLike,
			ThreadID:    threadID,
		}); err != nil {
			return 0, err
		}
	}
	return t.LikesCount + 1, nil
}

func (s *threadService) Unlike(ctx context.Context, threadID, userID string) (int64, error) {
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return 0, err
	}
	ok, err := s.likeRepo.Delete(ctx, userID, threadID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("like not found")
	}
	if err := s.threadRepo.IncrCounter(ctx, threadID, "likes_count", -1); err != nil {
		return 0, err
	}
	return t.LikesCount - 1, nil
}

func (s *threadService) AddReply(ctx context.Context, threadID, authorID, content string) (*ReplyView, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	t, err := s.threadRepo.ByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if authorID != t.AuthorID && !s.settingsSvc.CanViewContent(ctx, authorID, t.AuthorID) {
		return nil, apperr.PermissionDenied("this thread is private")
	}

	rp := &model.Reply{ThreadID: threadID, AuthorID: authorID, Content: content}
	if err := s.replyRepo.Create(ctx, rp); err != nil {
		return nil, err
	}
	if err := s.threadRepo.IncrCounter(ctx, threadID, "replies_count", 1); err != nil {
		return nil, err
	}
	if authorID != t.AuthorID {
		if _, err := s.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: t.AuthorID,
			SenderID:    authorID,
			Type:        model.NotifyThreadReply,
			ThreadID:    threadID,
		}); err != nil {
			return nil, err
		}
	}
	if err := s.notifSvc.CreateMentionNotifications(ctx, content, authorID, threadID); err != nil {
		return nil, err
	}

	authors, err := s.authorsByID(ctx, []string{authorID})
	if err != nil {
		return nil, err
	}
	return &ReplyView{ID: rp.ID, Content: rp.Content, Author: authors[authorID], CreatedAt: rp.CreatedAt}, nil
}

func (s *threadService) DeleteReply(ctx context.Context, replyID, userID string) error {
	rp, err := s.replyRepo.ByID(ctx, replyID)
	if err != nil {
		return err
	}
	if rp.AuthorID != userID {
		return apperr.PermissionDenied("not allowed to delete this reply")
	}
	if _, err := s.replyRepo.Delete(ctx, replyID); err != nil {
		return err
	}
	return s.threadRepo.IncrCounter(ctx, rp.ThreadID, "replies_count", -1)
}

// enrich 用一次预加载的关注状态表和点赞集合填充 viewer 视角字段，
// 避免逐条回查
func (s *threadService) enrich(ctx context.Context, rows []*model.Thread, viewerID string) ([]FeedThread, error) {
	authorIDs := make([]string, 0, len(rows))
	threadIDs := make([]string, 0, len(rows))
	for _, t := range rows {
		authorIDs = append(authorIDs, t.AuthorID)
		threadIDs = append(threadIDs, t.ID)
	}

	authors, err := s.authorsByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	var statusMap map[string]string
	likedSet := map[string]bool{}
	if viewerID != "" {
		statusMap, err = s.followRepo.StatusMap(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		likedSet, err = s.likeRepo.LikedSet(ctx, viewerID, threadIDs)
		if err != nil {
			return nil, err
		}
	}

	views := make([]FeedThread, 0, len(rows))
	for _, t := range rows {
		author := authors[t.AuthorID]
		if status, ok := statusMap[t.AuthorID]; ok {
			author.IsFollowing = true
			author.FollowStatus = status
		}
		views = append(views, FeedThread{
			ID:           t.ID,
			Content:      t.Content,
			Media:        t.Media,
			Author:       author,
			LikesCount:   t.LikesCount,
			RepliesCount: t.RepliesCount,
			IsLiked:      likedSet[t.ID],
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		})
	}
	return views, nil
}

func (s *threadService) authorsByID(ctx context.Context, ids []string) (map[string]FeedAuthor, error) {
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	m := make(map[string]FeedAuthor, len(users))
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = u.Username
		}
		m[u.ID] = FeedAuthor{
			ID:             u.ID,
			Username:       u.Username,
			Name:           name,
			ProfilePicture: u.ProfilePicture,
			IsVerified:     u.IsVerified,
			IsPrivate:      u.IsPrivate,
		}
	}
	return m, nil
}
