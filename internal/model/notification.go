package model

import "time"

// 通知类型
const (
	NotifyNewFollower      = "new_follower"
	NotifyFollowRequest    = "follow_request"
	NotifyFollowAccepted   = "follow_accepted"
	NotifyThreadLike       = "thread_like"
	NotifyThreadReply      = "thread_reply"
	NotifyMention          = "mention"
	NotifyContentValidated = "content_validated"
	NotifyContentFlagged   = "content_flagged"
)

// Notification 站内通知。去重键 = (recipient, sender, type, thread)，
// 窗口 60 秒，见 notification service。
type Notification struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Type        string `gorm:"type:varchar(32);not null;index"`
	RecipientID string `gorm:"type:varchar(36);not null;index:idx_notif_recipient"`
	SenderID    string `gorm:"type:varchar(36);not null;index"`
	ThreadID    string `gorm:"type:varchar(36);index"` // 可为空
	IsRead      bool   `gorm:"default:false;index"`
	CreatedAt   time.Time `gorm:"index:idx_notif_recipient"`
}

func (Notification) TableName() string { return "notifications" }
