package model

import "time"

// Thread 内容主体。likes/replies 计数冗余，审核字段见 moderation service。
type Thread struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID     string `gorm:"type:varchar(36);index:idx_thread_author;not null"`
	Content      string `gorm:"type:varchar(500);not null"`
	Media        string `gorm:"type:varchar(256)"`
	LikesCount   int64  `gorm:"default:0"`
	RepliesCount int64  `gorm:"default:0"`
	IsFlagged    bool   `gorm:"default:false;index"`
	IsValidated  bool   `gorm:"default:false"`
	ValidatedBy  string `gorm:"type:varchar(36)"`
	ValidatedAt  *time.Time
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (Thread) TableName() string { return "threads" }
