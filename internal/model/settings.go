package model

import "time"

// 隐私枚举值
const (
	AudienceEveryone         = "everyone"
	AudienceFollowers        = "followers"
	AudienceOnlyMe           = "only_me"
	AudienceNobody           = "nobody"
	AudienceFriendsOfFriends = "friends_of_friends"
	AudiencePeopleIFollow    = "people_i_follow"
)

// NotificationPrefs 单渠道的事件开关
type NotificationPrefs struct {
	NewFollower    bool `gorm:"default:true" json:"newFollower"`
	FollowRequest  bool `gorm:"default:true" json:"followRequest"`
	FollowAccepted bool `gorm:"default:true" json:"followAccepted"`
	ThreadLike     bool `gorm:"default:true" json:"threadLike"`
	ThreadReply    bool `gorm:"default:true" json:"threadReply"`
	Mention        bool `gorm:"default:true" json:"mention"`
}

// InAppPrefs 站内渠道额外携带内容审核事件
type InAppPrefs struct {
	NotificationPrefs
	ContentValidated bool `gorm:"default:true" json:"contentValidated"`
	ContentFlagged   bool `gorm:"default:true" json:"contentFlagged"`
}

// PrivacyPrefs 隐私偏好
type PrivacyPrefs struct {
	WhoCanFollowMe      string `gorm:"type:varchar(32);default:everyone" json:"whoCanFollowMe"`
	WhoCanSeeMyPosts    string `gorm:"type:varchar(32);default:everyone" json:"whoCanSeeMyPosts"`
	WhoCanMentionMe     string `gorm:"type:varchar(32);default:everyone" json:"whoCanMentionMe"`
	ShowOnlineStatus    bool   `gorm:"default:true" json:"showOnlineStatus"`
	ShowActivityStatus  bool   `gorm:"default:true" json:"showActivityStatus"`
	AllowDirectMessages string `gorm:"type:varchar(32);default:everyone" json:"allowDirectMessages"`
}

// DisplayPrefs 显示偏好
type DisplayPrefs struct {
	Theme                string `gorm:"type:varchar(16);default:light" json:"theme"`
	Language             string `gorm:"type:varchar(8);default:fr" json:"language"`
	FontSize             string `gorm:"type:varchar(16);default:medium" json:"fontSize"`
	ShowSensitiveContent bool   `gorm:"default:false" json:"showSensitiveContent"`
}

// ContentPrefs 内容偏好
type ContentPrefs struct {
	AutoplayVideos    bool `gorm:"default:true" json:"autoplayVideos"`
	ShowMediaPreviews bool `gorm:"default:true" json:"showMediaPreviews"`
	EnableMentions    bool `gorm:"default:true" json:"enableMentions"`
}

// Settings 每个用户恰好一条。所有字段在建表/构造时即有确定默认值，
// 不存在读取时的缺省补全。
type Settings struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);uniqueIndex;not null"`

	Email   NotificationPrefs `gorm:"embedded;embeddedPrefix:notif_email_" json:"email"`
	Push    NotificationPrefs `gorm:"embedded;embeddedPrefix:notif_push_" json:"push"`
	InApp   InAppPrefs        `gorm:"embedded;embeddedPrefix:notif_inapp_" json:"inApp"`
	Privacy PrivacyPrefs      `gorm:"embedded;embeddedPrefix:privacy_" json:"privacy"`
	Display DisplayPrefs      `gorm:"embedded;embeddedPrefix:display_" json:"display"`
	Content ContentPrefs      `gorm:"embedded;embeddedPrefix:content_" json:"content"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Settings) TableName() string { return "settings" }

func defaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{
		NewFollower:    true,
		FollowRequest:  true,
		FollowAccepted: true,
		ThreadLike:     true,
		ThreadReply:    true,
		Mention:        true,
	}
}

// DefaultSettings 构造完整默认配置树
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID: userID,
		Email:  defaultNotificationPrefs(),
		Push:   defaultNotificationPrefs(),
		InApp: InAppPrefs{
			NotificationPrefs: defaultNotificationPrefs(),
			ContentValidated:  true,
			ContentFlagged:    true,
		},
		Privacy: PrivacyPrefs{
			WhoCanFollowMe:      AudienceEveryone,
			WhoCanSeeMyPosts:    AudienceEveryone,
			WhoCanMentionMe:     AudienceEveryone,
			ShowOnlineStatus:    true,
			ShowActivityStatus:  true,
			AllowDirectMessages: AudienceEveryone,
		},
		Display: DisplayPrefs{
			Theme:    "light",
			Language: "fr",
			FontSize: "medium",
		},
		Content: ContentPrefs{
			AutoplayVideos:    true,
			ShowMediaPreviews: true,
			EnableMentions:    true,
		},
	}
}
