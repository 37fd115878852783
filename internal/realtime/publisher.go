package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/thread-graph/pkg/logger"
)

// 事件种类
const (
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
)

// Envelope 推送事件外层结构
type Envelope struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// ChannelFor 收件人维度的 pub/sub 频道名
func ChannelFor(userID string) string { return "user:" + userID + ":events" }

// Publisher 基于 redis pub/sub 的实时推送通道
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

// PushNotification 推送一条通知载荷到收件人频道
func (p *Publisher) PushNotification(ctx context.Context, userID string, payload interface{}) error {
	return p.publish(ctx, userID, Envelope{Kind: EventNotification, Data: payload})
}

// PushUnreadCount 推送未读数变更
func (p *Publisher) PushUnreadCount(ctx context.Context, userID string, count int64) error {
	return p.publish(ctx, userID, Envelope{Kind: EventUnreadCount, Data: map[string]int64{"unreadCount": count}})
}

func (p *Publisher) publish(ctx context.Context, userID string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, ChannelFor(userID), body).Err(); err != nil {
		logger.Warn("realtime publish failed", zap.String("user", userID), zap.String("kind", env.Kind), zap.Error(err))
		return err
	}
	return nil
}
