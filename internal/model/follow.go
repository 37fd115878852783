package model

import (
	"time"
)

// 关注边状态。blocked 为保留值，当前流程不会产生。
const (
	FollowStatusPending  = "pending"
	FollowStatusAccepted = "accepted"
	FollowStatusRejected = "rejected"
	FollowStatusBlocked  = "blocked"
)

// Follow 关注关系（A 关注 B），带审批状态
type Follow struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID  string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FollowingID string `gorm:"type:varchar(36);index:idx_follow_following;not null;index:idx_follow_pair,unique"`
	// 复合唯一键，同一有序对至多一条边
	// idx_follow_pair = (follower_id, following_id)
	Status    string `gorm:"type:varchar(16);not null;default:pending;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
