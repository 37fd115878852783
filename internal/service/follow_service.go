package service

import (
	"context"

	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/pkg/apperr"
)

var ErrFollowSelf = apperr.InvalidArgument("cannot follow self")

// FollowService 关注边生命周期：
// (none) → pending → {accepted | 删除}，或 (none) → accepted。
// 计数器为独立的原子点式更新，不与边写入同事务。
type FollowService interface {
	Follow(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	AcceptRequest(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	RejectRequest(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	RemoveFollower(ctx context.Context, userID, followerID string) error
	Followers(ctx context.Context, userID, viewerID string) ([]model.PublicProfile, error)
	Following(ctx context.Context, userID, viewerID string) ([]model.PublicProfile, error)
	PendingRequests(ctx context.Context, userID string) ([]model.PublicProfile, error)
}

type followService struct {
	followRepo  repository.FollowRepository
	userRepo    repository.UserRepository
	settingsSvc SettingsService
	notifSvc    NotificationService
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, settingsSvc SettingsService, notifSvc NotificationService) FollowService {
	return &followService{followRepo: followRepo, userRepo: userRepo, settingsSvc: settingsSvc, notifSvc: notifSvc}
}

// Follow 结果状态由目标方的 whoCanFollowMe 决定：
// nobody → 拒绝；friends_of_friends → 一律 pending；
// everyone → 目标非私密直接 accepted，否则 pending。
func (s *followService) Follow(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	if followerID == followingID {
		return nil, ErrFollowSelf
	}

	existing, err := s.followRepo.Get(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == model.FollowStatusPending {
			return nil, apperr.AlreadyExists("follow request already sent")
		}
		return nil, apperr.AlreadyExists("already following this user")
	}

	target, err := s.userRepo.ByID(ctx, followingID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsSvc.Get(ctx, followingID)
	if err != nil {
		return nil, err
	}

	status := model.FollowStatusAccepted
	switch settings.Privacy.WhoCanFollowMe {
	case model.AudienceNobody:
		return nil, apperr.PermissionDenied("this user does not accept new followers")
	case model.AudienceFriendsOfFriends:
		// 共同好友图尚未求值，统一走审批
		status = model.FollowStatusPending
	default:
		if target.IsPrivate {
			status = model.FollowStatusPending
		}
	}

	// 并发下同对重复创建由存储层唯一索引裁决
	follow, err := s.followRepo.Create(ctx, followerID, followingID, status)
	if err != nil {
		return nil, err
	}

	if status == model.FollowStatusAccepted {
		if err := s.userRepo.IncrCounter(ctx, followerID, repository.CounterFollowing, 1); err != nil {
			return nil, err
		}
		if err := s.userRepo.IncrCounter(ctx, followingID, repository.CounterFollowers, 1); err != nil {
			return nil, err
		}
		if _, err := s.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: followingID,
			SenderID:    followerID,
			Type:        model.NotifyNewFollower,
		}); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: followingID,
			SenderID:    followerID,
			Type:        model.NotifyFollowRequest,
		}); err != nil {
			return nil, err
		}
	}

	return follow, nil
}

// AcceptRequest 仅对 pending 边有效
func (s *followService) AcceptRequest(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	ok, err := s.followRepo.AcceptPending(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		existing, err := s.followRepo.Get(ctx, followerID, followingID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.NotFound("follow request not found")
		}
		return nil, apperr.InvalidTransition("follow request already handled")
	}

	if err := s.userRepo.IncrCounter(ctx, followerID, repository.CounterFollowing, 1); err != nil {
		return nil, err
	}
	if err := s.userRepo.IncrCounter(ctx, followingID, repository.CounterFollowers, 1); err != nil {
		return nil, err
	}

	if _, err := s.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: followerID,
		SenderID:    followingID,
		Type:        model.NotifyFollowAccepted,
	}); err != nil {
		return nil, err
	}

	return s.followRepo.Get(ctx, followerID, followingID)
}

// RejectRequest 仅删除 pending 边
func (s *followService) RejectRequest(ctx context.Context, followerID, followingID string) error {
	ok, err := s.followRepo.DeletePending(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !ok {
		existing, err := s.followRepo.Get(ctx, followerID, followingID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound("follow request not found")
		}
		return apperr.InvalidTransition("follow request already handled")
	}
	return nil
}

// Unfollow 无条件删除边并递减双方计数器。
// 注意：pending 边从未计数，此处仍会递减，保持上游语义。
func (s *followService) Unfollow(ctx context.Context, followerID, followingID string) error {
	ok, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("not following this user")
	}
	if err := s.userRepo.IncrCounter(ctx, followerID, repository.CounterFollowing, -1); err != nil {
		return err
	}
	return s.userRepo.IncrCounter(ctx, followingID, repository.CounterFollowers, -1)
}

// RemoveFollower 被关注方移除某个粉丝
func (s *followService) RemoveFollower(ctx context.Context, userID, followerID string) error {
	existing, err := s.followRepo.Get(ctx, followerID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("this user does not follow you")
	}
	if _, err := s.followRepo.Delete(ctx, followerID, userID); err != nil {
		return err
	}
	if err := s.userRepo.IncrCounter(ctx, userID, repository.CounterFollowers, -1); err != nil {
		return err
	}
	return s.userRepo.IncrCounter(ctx, followerID, repository.CounterFollowing, -1)
}

// guardPrivateList 私密账号的关注/粉丝列表仅本人或已接受的关注者可见
func (s *followService) guardPrivateList(ctx context.Context, userID, viewerID string) error {
	target, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if !target.IsPrivate || viewerID == userID {
		return nil
	}
	ok, err := s.followRepo.ExistsAccepted(ctx, viewerID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("this profile is private")
	}
	return nil
}

func (s *followService) Followers(ctx context.Context, userID, viewerID string) ([]model.PublicProfile, error) {
	if err := s.guardPrivateList(ctx, userID, viewerID); err != nil {
		return nil, err
	}
	edges, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowerID
	}
	return s.profilesInOrder(ctx, ids)
}

func (s *followService) Following(ctx context.Context, userID, viewerID string) ([]model.PublicProfile, error) {
	if err := s.guardPrivateList(ctx, userID, viewerID); err != nil {
		return nil, err
	}
	edges, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowingID
	}
	return s.profilesInOrder(ctx, ids)
}

func (s *followService) PendingRequests(ctx context.Context, userID string) ([]model.PublicProfile, error) {
	edges, err := s.followRepo.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowerID
	}
	return s.profilesInOrder(ctx, ids)
}

// profilesInOrder 批量取用户并保持 ids 的顺序
func (s *followService) profilesInOrder(ctx context.Context, ids []string) ([]model.PublicProfile, error) {
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	res := make([]model.PublicProfile, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			res = append(res, u.PublicProfile())
		}
	}
	return res, nil
}
