package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/internal/service"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

// GetSettings 本人设置（缺失时自动建默认树）
// @Summary 查看设置
// @Tags 设置
// @Success 200 {object} response.Response
// @Router /api/v1/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settingsSvc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdateNotificationSettings 更新通知偏好（三渠道部分更新）
// @Summary 更新通知偏好
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body service.NotificationPatch true "偏好字段"
// @Success 200 {object} response.Response
// @Router /api/v1/settings/notifications [put]
func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var patch service.NotificationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.settingsSvc.UpdateNotifications(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdatePrivacySettings 更新隐私偏好（同步旧版 isPrivate）
// @Summary 更新隐私偏好
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body service.PrivacyPatch true "偏好字段"
// @Success 200 {object} response.Response
// @Router /api/v1/settings/privacy [put]
func (h *Handler) UpdatePrivacySettings(c *gin.Context) {
	var patch service.PrivacyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.settingsSvc.UpdatePrivacy(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdateDisplaySettings 更新显示偏好
// @Summary 更新显示偏好
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body service.DisplayPatch true "偏好字段"
// @Success 200 {object} response.Response
// @Router /api/v1/settings/display [put]
func (h *Handler) UpdateDisplaySettings(c *gin.Context) {
	var patch service.DisplayPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.settingsSvc.UpdateDisplay(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// UpdateContentSettings 更新内容偏好
// @Summary 更新内容偏好
// @Tags 设置
// @Accept json
// @Produce json
// @Param request body service.ContentPatch true "偏好字段"
// @Success 200 {object} response.Response
// @Router /api/v1/settings/content [put]
func (h *Handler) UpdateContentSettings(c *gin.Context) {
	var patch service.ContentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings, err := h.settingsSvc.UpdateContent(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// ResetSettings 重置为默认
// @Summary 重置设置
// @Tags 设置
// @Success 200 {object} response.Response
// @Router /api/v1/settings/reset [post]
func (h *Handler) ResetSettings(c *gin.Context) {
	settings, err := h.settingsSvc.ResetToDefault(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}
