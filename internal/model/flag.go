package model

import "time"

// 可审核内容的变体标签
const (
	ContentKindThread = "thread"
	ContentKindReply  = "reply"
)

// Flag 内容举报记录
type Flag struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	ContentID   string `gorm:"type:varchar(36);index:idx_flag_content;not null"`
	ContentKind string `gorm:"type:varchar(16);index:idx_flag_content;not null"`
	ReporterID  string `gorm:"type:varchar(36);not null"`
	Reason      string `gorm:"type:varchar(256)"`
	CreatedAt   time.Time
}

func (Flag) TableName() string { return "flags" }
