package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

// 审核动作
const (
	ActionApprove = "approve"
	ActionRemove  = "remove"
	ActionIgnore  = "ignore"
)

// autoValidate 的启发式阈值
const (
	capsRatioLimit = 0.7
	capsMinLetters = 10
	punctRunLimit  = 5
	repeatRunLimit = 6
)

// bannedWords 命中即拒。小写比较。
var bannedWords = []string{"spam", "scam", "phishing"}

// FlaggedItem 审核队列条目，按 Kind 区分 thread/reply
type FlaggedItem struct {
	Kind      string        `json:"kind"`
	ID        string        `json:"id"`
	AuthorID  string        `json:"authorId"`
	Content   string        `json:"content"`
	ThreadID  string        `json:"threadId,omitempty"` // reply 所属 thread
	Flags     []*model.Flag `json:"flags,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// FlaggedQueue 两类待审内容各自分页
type FlaggedQueue struct {
	Threads      []FlaggedItem `json:"threads"`
	Replies      []FlaggedItem `json:"replies"`
	ThreadsTotal int64         `json:"threadsTotal"`
	RepliesTotal int64         `json:"repliesTotal"`
}

// ModerationStats 审核侧统计
type ModerationStats struct {
	FlaggedThreads int64 `json:"flaggedThreads"`
	FlaggedReplies int64 `json:"flaggedReplies"`
}

// ModerationService 内容审核：举报、人工裁决、启发式自动校验。
// 每类内容在构造时注册一套 contentStore，操作按标签取实现分派。
type ModerationService interface {
	// FlagContent 记录举报并将内容标记待审，通知作者
	FlagContent(ctx context.Context, kind, contentID, reporterID, reason string) error
	// Validate 人工通过，清除待审标记并通知作者
	Validate(ctx context.Context, kind, contentID, moderatorID string) error
	// Moderate 裁决 approve/remove/ignore
	Moderate(ctx context.Context, kind, contentID, moderatorID, action string) error
	// AutoValidate 对已标记内容跑启发式：干净则通过，否则维持待审。
	// 返回是否通过与命中的规则名。
	AutoValidate(ctx context.Context, kind, contentID, moderatorID string) (bool, string, error)
	FlaggedContent(ctx context.Context, page, limit int) (*FlaggedQueue, error)
	Stats(ctx context.Context) (*ModerationStats, error)
}

type moderationService struct {
	stores     map[string]contentStore
	threadRepo repository.ThreadRepository
	replyRepo  repository.ReplyRepository
	flagRepo   repository.FlagRepository
	notifSvc   NotificationService
}

func NewModerationService(threadRepo repository.ThreadRepository, replyRepo repository.ReplyRepository, likeRepo repository.LikeRepository, flagRepo repository.FlagRepository, notifSvc NotificationService) ModerationService {
	return &moderationService{
		stores: map[string]contentStore{
			model.ContentKindThread: &threadStore{threads: threadRepo, likes: likeRepo, replies: replyRepo},
			model.ContentKindReply:  &replyStore{threads: threadRepo, replies: replyRepo},
		},
		threadRepo: threadRepo,
		replyRepo:  replyRepo,
		flagRepo:   flagRepo,
		notifSvc:   notifSvc,
	}
}

// content 被审内容的公共字段
type content struct {
	kind     string
	id       string
	authorID string
	text     string
	threadID string // 通知关联的 thread：thread 本身，或 reply 的父 thread
}

// contentStore 每类内容各自实现一遍审核能力；
// 新增内容类别时实现此接口并在构造函数里注册
type contentStore interface {
	load(ctx context.Context, id string) (*content, error)
	setFlagged(ctx context.Context, id string, flagged bool) error
	setValidated(ctx context.Context, id, moderatorID string, at time.Time) error
	remove(ctx context.Context, c *content) error
}

type threadStore struct {
	threads repository.ThreadRepository
	likes   repository.LikeRepository
	replies repository.ReplyRepository
}

func (st *threadStore) load(ctx context.Context, id string) (*content, error) {
	t, err := st.threads.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &content{kind: model.ContentKindThread, id: id, authorID: t.AuthorID, text: t.Content, threadID: t.ID}, nil
}

func (st *threadStore) setFlagged(ctx context.Context, id string, flagged bool) error {
	return st.threads.SetFlagged(ctx, id, flagged)
}

func (st *threadStore) setValidated(ctx context.Context, id, moderatorID string, at time.Time) error {
	return st.threads.SetValidated(ctx, id, moderatorID, at)
}

// remove 连带清掉点赞与回复
func (st *threadStore) remove(ctx context.Context, c *content) error {
	if _, err := st.threads.Delete(ctx, c.id); err != nil {
		return err
	}
	if _, err := st.likes.DeleteByThread(ctx, c.id); err != nil {
		return err
	}
	_, err := st.replies.DeleteByThread(ctx, c.id)
	return err
}

type replyStore struct {
	threads repository.ThreadRepository
	replies repository.ReplyRepository
}

func (st *replyStore) load(ctx context.Context, id string) (*content, error) {
	rp, err := st.replies.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &content{kind: model.ContentKindReply, id: id, authorID: rp.AuthorID, text: rp.Content, threadID: rp.ThreadID}, nil
}

func (st *replyStore) setFlagged(ctx context.Context, id string, flagged bool) error {
	return st.replies.SetFlagged(ctx, id, flagged)
}

func (st *replyStore) setValidated(ctx context.Context, id, moderatorID string, at time.Time) error {
	return st.replies.SetValidated(ctx, id, moderatorID, at)
}

// remove 回写父 thread 的回复计数
func (st *replyStore) remove(ctx context.Context, c *content) error {
	if _, err := st.replies.Delete(ctx, c.id); err != nil {
		return err
	}
	return st.threads.IncrCounter(ctx, c.threadID, "replies_count", -1)
}

func (s *moderationService) store(kind string) (contentStore, error) {
	st, ok := s.stores[kind]
	if !ok {
		return nil, apperr.InvalidArgument("unknown content kind")
	}
	return st, nil
}

func (s *moderationService) FlagContent(ctx context.Context, kind, contentID, reporterID, reason string) error {
	st, err := s.store(kind)
	if err != nil {
		return err
	}
	c, err := st.load(ctx, contentID)
	if err != nil {
		return err
	}
	if c.authorID == reporterID {
		return apperr.InvalidArgument("cannot flag own content")
	}
	if err := s.flagRepo.Create(ctx, &model.Flag{
		ContentID:   contentID,
		ContentKind: kind,
		ReporterID:  reporterID,
		Reason:      reason,
	}); err != nil {
		return err
	}
	if err := st.setFlagged(ctx, contentID, true); err != nil {
		return err
	}
	_, err = s.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: c.authorID,
		SenderID:    reporterID,
		Type:        model.NotifyContentFlagged,
		ThreadID:    c.threadID,
	})
	return err
}

func (s *moderationService) Validate(ctx context.Context, kind, contentID, moderatorID string) error {
	st, err := s.store(kind)
	if err != nil {
		return err
	}
	c, err := st.load(ctx, contentID)
	if err != nil {
		return err
	}
	if err := st.setValidated(ctx, contentID, moderatorID, time.Now()); err != nil {
		return err
	}
	_, err = s.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: c.authorID,
		SenderID:    moderatorID,
		Type:        model.NotifyContentValidated,
		ThreadID:    c.threadID,
	})
	return err
}

func (s *moderationService) Moderate(ctx context.Context, kind, contentID, moderatorID, action string) error {
	switch action {
	case ActionApprove:
		return s.Validate(ctx, kind, contentID, moderatorID)
	case ActionRemove:
		st, err := s.store(kind)
		if err != nil {
			return err
		}
		c, err := st.load(ctx, contentID)
		if err != nil {
			return err
		}
		return st.remove(ctx, c)
	case ActionIgnore:
		st, err := s.store(kind)
		if err != nil {
			return err
		}
		if _, err := st.load(ctx, contentID); err != nil {
			return err
		}
		return st.setFlagged(ctx, contentID, false)
	default:
		return apperr.InvalidArgument("unknown moderation action")
	}
}

func (s *moderationService) AutoValidate(ctx context.Context, kind, contentID, moderatorID string) (bool, string, error) {
	st, err := s.store(kind)
	if err != nil {
		return false, "", err
	}
	c, err := st.load(ctx, contentID)
	if err != nil {
		return false, "", err
	}
	if rule := scanContent(c.text); rule != "" {
		return false, rule, nil
	}
	if err := s.Validate(ctx, kind, contentID, moderatorID); err != nil {
		return false, "", err
	}
	return true, "", nil
}

// scanContent 返回命中的第一条规则名，干净返回空串
func scanContent(text string) string {
	lower := strings.ToLower(text)
	for _, w := range bannedWords {
		if strings.Contains(lower, w) {
			return "banned_word"
		}
	}

	var letters, uppers int
	punctRun, repeatRun := 0, 1
	var prev rune
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
		if unicode.IsPunct(r) {
			punctRun++
			if punctRun >= punctRunLimit {
				return "punctuation_run"
			}
		} else {
			punctRun = 0
		}
		if r == prev && !unicode.IsSpace(r) {
			repeatRun++
			if repeatRun >= repeatRunLimit {
				return "repeated_characters"
			}
		} else {
			repeatRun = 1
		}
		prev = r
	}
	if letters >= capsMinLetters && float64(uppers)/float64(letters) > capsRatioLimit {
		return "all_caps"
	}
	return ""
}

func (s *moderationService) FlaggedContent(ctx context.Context, page, limit int) (*FlaggedQueue, error) {
	_, limit, offset := normalizePage(page, limit)

	threads, err := s.threadRepo.ListFlagged(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	replies, err := s.replyRepo.ListFlagged(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	threadsTotal, err := s.threadRepo.CountFlagged(ctx)
	if err != nil {
		return nil, err
	}
	repliesTotal, err := s.replyRepo.CountFlagged(ctx)
	if err != nil {
		return nil, err
	}

	q := &FlaggedQueue{ThreadsTotal: threadsTotal, RepliesTotal: repliesTotal}
	for _, t := range threads {
		flags, err := s.flagRepo.ListByContent(ctx, t.ID, model.ContentKindThread)
		if err != nil {
			return nil, err
		}
		q.Threads = append(q.Threads, FlaggedItem{
			Kind:      model.ContentKindThread,
			ID:        t.ID,
			AuthorID:  t.AuthorID,
			Content:   t.Content,
			ThreadID:  t.ID,
			Flags:     flags,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, rp := range replies {
		flags, err := s.flagRepo.ListByContent(ctx, rp.ID, model.ContentKindReply)
		if err != nil {
			return nil, err
		}
		q.Replies = append(q.Replies, FlaggedItem{
			Kind:      model.ContentKindReply,
			ID:        rp.ID,
			AuthorID:  rp.AuthorID,
			Content:   rp.Content,
			ThreadID:  rp.ThreadID,
			Flags:     flags,
			CreatedAt: rp.CreatedAt,
		})
	}
	return q, nil
}

func (s *moderationService) Stats(ctx context.Context) (*ModerationStats, error) {
	flaggedThreads, err := s.threadRepo.CountFlagged(ctx)
	if err != nil {
		return nil, err
	}
	flaggedReplies, err := s.replyRepo.CountFlagged(ctx)
	if err != nil {
		return nil, err
	}
	return &ModerationStats{FlaggedThreads: flaggedThreads, FlaggedReplies: flaggedReplies}, nil
}
