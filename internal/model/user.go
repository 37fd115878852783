package model

import "time"

// User 用户主体，含冗余计数器。
// IsPrivate 为旧版隐私开关，由 settings 的 whoCanSeeMyPosts 同步维护。
type User struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Username       string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Email          string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Name           string `gorm:"type:varchar(64)"`
	Password       string `gorm:"type:varchar(128)" json:"-"`
	Bio            string `gorm:"type:varchar(256)"`
	ProfilePicture string `gorm:"type:varchar(256)"`
	Language       string `gorm:"type:varchar(8);default:fr"`
	IsVerified     bool   `gorm:"default:false"`
	IsPrivate      bool   `gorm:"default:false;index"`
	FollowersCount int64  `gorm:"default:0"`
	FollowingCount int64  `gorm:"default:0"`
	ThreadsCount   int64  `gorm:"default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (User) TableName() string { return "users" }

// PublicProfile 对外暴露的用户信息（不含敏感字段）
type PublicProfile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsVerified     bool   `json:"isVerified"`
	IsPrivate      bool   `json:"isPrivate"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	ThreadsCount   int64  `json:"threadsCount"`
	IsFollowing    bool   `json:"isFollowing"`
	FollowStatus   string `json:"followStatus,omitempty"`
}

func (u *User) PublicProfile() PublicProfile {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		Name:           name,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		IsVerified:     u.IsVerified,
		IsPrivate:      u.IsPrivate,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		ThreadsCount:   u.ThreadsCount,
	}
}
