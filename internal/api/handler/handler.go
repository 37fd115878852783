package handler

import (
	"time"

	"github.com/d60-Lab/thread-graph/internal/service"
)

// Handler 聚合全部业务服务，供路由注册
type Handler struct {
	userSvc     service.UserService
	followSvc   service.FollowService
	threadSvc   service.ThreadService
	notifSvc    service.NotificationService
	settingsSvc service.SettingsService
	modSvc      service.ModerationService

	jwtSecret string
	jwtExpire time.Duration
}

func New(userSvc service.UserService, followSvc service.FollowService, threadSvc service.ThreadService, notifSvc service.NotificationService, settingsSvc service.SettingsService, modSvc service.ModerationService, jwtSecret string, jwtExpireHrs int) *Handler {
	return &Handler{
		userSvc:     userSvc,
		followSvc:   followSvc,
		threadSvc:   threadSvc,
		notifSvc:    notifSvc,
		settingsSvc: settingsSvc,
		modSvc:      modSvc,
		jwtSecret:   jwtSecret,
		jwtExpire:   time.Duration(jwtExpireHrs) * time.Hour,
	}
}
