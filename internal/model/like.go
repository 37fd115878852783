package model

import "time"

// Like 点赞（user, thread）
type Like struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	UserID   string `gorm:"type:varchar(36);index:idx_like_pair,unique;not null"`
	ThreadID string `gorm:"type:varchar(36);index:idx_like_thread;not null;index:idx_like_pair,unique"`
	// 复合唯一键，同一用户对同一 thread 至多一个赞
	// idx_like_pair = (user_id, thread_id)
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
