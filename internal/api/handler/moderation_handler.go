package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

type flagContentRequest struct {
	Kind      string `json:"kind" binding:"required,oneof=thread reply"`
	ContentID string `json:"contentId" binding:"required"`
	Reason    string `json:"reason" binding:"omitempty,max=256"`
}

type moderateRequest struct {
	Action string `json:"action" binding:"required,oneof=approve remove ignore"`
}

// FlagContent 举报内容
// @Summary 举报内容
// @Tags 审核
// @Accept json
// @Produce json
// @Param request body flagContentRequest true "举报信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/moderation/flags [post]
func (h *Handler) FlagContent(c *gin.Context) {
	var req flagContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.modSvc.FlagContent(c.Request.Context(), req.Kind, req.ContentID, middleware.UserID(c), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ValidateContent 人工通过
// @Summary 通过内容
// @Tags 审核
// @Param kind path string true "内容类型 thread|reply"
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/moderation/{kind}/{id}/validate [post]
func (h *Handler) ValidateContent(c *gin.Context) {
	if err := h.modSvc.Validate(c.Request.Context(), c.Param("kind"), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ModerateContent 裁决 approve/remove/ignore
// @Summary 裁决内容
// @Tags 审核
// @Accept json
// @Produce json
// @Param kind path string true "内容类型 thread|reply"
// @Param id path string true "内容ID"
// @Param request body moderateRequest true "裁决动作"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/moderation/{kind}/{id}/moderate [post]
func (h *Handler) ModerateContent(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.modSvc.Moderate(c.Request.Context(), c.Param("kind"), c.Param("id"), middleware.UserID(c), req.Action); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AutoValidateContent 启发式自动校验
// @Summary 自动校验
// @Tags 审核
// @Param kind path string true "内容类型 thread|reply"
// @Param id path string true "内容ID"
// @Success 200 {object} response.Response
// @Router /api/v1/moderation/{kind}/{id}/auto-validate [post]
func (h *Handler) AutoValidateContent(c *gin.Context) {
	passed, rule, err := h.modSvc.AutoValidate(c.Request.Context(), c.Param("kind"), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"passed": passed, "rule": rule})
}

// FlaggedContentQueue 待审内容队列
// @Summary 待审内容
// @Tags 审核
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/moderation/flagged [get]
func (h *Handler) FlaggedContentQueue(c *gin.Context) {
	page, limit := pageParams(c)
	queue, err := h.modSvc.FlaggedContent(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, queue)
}

// ModerationStats 审核统计
// @Summary 审核统计
// @Tags 审核
// @Success 200 {object} response.Response
// @Router /api/v1/moderation/stats [get]
func (h *Handler) ModerationStats(c *gin.Context) {
	stats, err := h.modSvc.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
