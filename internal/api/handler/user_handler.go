package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/internal/service"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

// Profile 查看用户资料（附 viewer 的关注状态）
// @Summary 用户资料
// @Tags 用户
// @Param username path string true "用户名"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{username} [get]
func (h *Handler) Profile(c *gin.Context) {
	p, err := h.userSvc.Profile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// UpdateProfile 更新本人资料
// @Summary 更新资料
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body service.ProfilePatch true "资料字段"
// @Success 200 {object} response.Response
// @Router /api/v1/users/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch service.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userSvc.UpdateProfile(c.Request.Context(), middleware.UserID(c), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	p := u.PublicProfile()
	response.Success(c, p)
}

// SearchUsers 按用户名/昵称搜索
// @Summary 搜索用户
// @Tags 用户
// @Param q query string true "关键词"
// @Param limit query int false "数量上限" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "query is required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.userSvc.Search(c.Request.Context(), q, middleware.UserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"users": list})
}

// SuggestedUsers 推荐关注
// @Summary 推荐用户
// @Tags 用户
// @Param limit query int false "数量上限" default(5)
// @Success 200 {object} response.Response
// @Router /api/v1/users/suggested [get]
func (h *Handler) SuggestedUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	list, err := h.userSvc.Suggested(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"users": list})
}

// CheckUsername 用户名可用性
// @Summary 用户名可用性
// @Tags 用户
// @Param username query string true "用户名"
// @Success 200 {object} response.Response
// @Router /api/v1/users/check-username [get]
func (h *Handler) CheckUsername(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		response.BadRequest(c, "username is required")
		return
	}
	available, err := h.userSvc.UsernameAvailable(c.Request.Context(), username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"available": available})
}

// CheckEmail 邮箱可用性
// @Summary 邮箱可用性
// @Tags 用户
// @Param email query string true "邮箱"
// @Success 200 {object} response.Response
// @Router /api/v1/users/check-email [get]
func (h *Handler) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email is required")
		return
	}
	available, err := h.userSvc.EmailAvailable(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"available": available})
}

// MyStats 本人统计
// @Summary 用户统计
// @Tags 用户
// @Success 200 {object} response.Response
// @Router /api/v1/users/me/stats [get]
func (h *Handler) MyStats(c *gin.Context) {
	stats, err := h.userSvc.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount 删除账号（级联清理全部关联数据）
// @Summary 删除账号
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body deleteAccountRequest true "密码确认"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/me [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.userSvc.DeleteAccount(c.Request.Context(), middleware.UserID(c), req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UserThreads 某用户的 thread 列表（受隐私偏好约束）
// @Summary 用户 thread 列表
// @Tags 用户
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{username}/threads [get]
func (h *Handler) UserThreads(c *gin.Context) {
	p, err := h.userSvc.Profile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, pagination, err := h.threadSvc.UserThreads(c.Request.Context(), p.ID, middleware.UserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"threads": list, "pagination": pagination})
}

// UserFollowers 粉丝列表
// @Summary 粉丝列表
// @Tags 用户
// @Param username path string true "用户名"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{username}/followers [get]
func (h *Handler) UserFollowers(c *gin.Context) {
	p, err := h.userSvc.Profile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.followSvc.Followers(c.Request.Context(), p.ID, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"followers": list})
}

// UserFollowing 关注列表
// @Summary 关注列表
// @Tags 用户
// @Param username path string true "用户名"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/{username}/following [get]
func (h *Handler) UserFollowing(c *gin.Context) {
	p, err := h.userSvc.Profile(c.Request.Context(), c.Param("username"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.followSvc.Following(c.Request.Context(), p.ID, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"following": list})
}
