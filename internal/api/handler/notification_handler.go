package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

// UnreadNotifications 未读通知列表
// @Summary 未读通知
// @Tags 通知
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread [get]
func (h *Handler) UnreadNotifications(c *gin.Context) {
	page, limit := pageParams(c)
	list, pagination, err := h.notifSvc.Unread(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"notifications": list, "pagination": pagination})
}

// UnreadCount 未读数
// @Summary 未读数
// @Tags 通知
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread/count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.notifSvc.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// MarkNotificationRead 标记单条已读
// @Summary 标记已读
// @Tags 通知
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/notifications/{id}/read [put]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.notifSvc.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllNotificationsRead 全部标记已读
// @Summary 全部已读
// @Tags 通知
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/read-all [put]
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notifSvc.MarkAllRead(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

// NotificationStats 按类型的通知统计
// @Summary 通知统计
// @Tags 通知
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/stats [get]
func (h *Handler) NotificationStats(c *gin.Context) {
	stats, err := h.notifSvc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}
