package model

import "time"

// Reply 对 thread 的回复
type Reply struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	ThreadID    string `gorm:"type:varchar(36);index:idx_reply_thread;not null"`
	AuthorID    string `gorm:"type:varchar(36);index;not null"`
	Content     string `gorm:"type:varchar(500);not null"`
	IsFlagged   bool   `gorm:"default:false;index"`
	IsValidated bool   `gorm:"default:false"`
	ValidatedBy string `gorm:"type:varchar(36)"`
	ValidatedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Reply) TableName() string { return "replies" }
