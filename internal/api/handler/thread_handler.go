package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

type createThreadRequest struct {
	Content string `json:"content" binding:"required,max=500"`
	Media   string `json:"media" binding:"omitempty,max=256"`
}

type updateThreadRequest struct {
	Content *string `json:"content" binding:"omitempty,max=500"`
	Media   *string `json:"media" binding:"omitempty,max=256"`
}

type replyRequest struct {
	Content string `json:"content" binding:"required,max=500"`
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// CreateThread 发布 thread（解析 @提及 并发通知）
// @Summary 发布 thread
// @Tags Thread
// @Accept json
// @Produce json
// @Param request body createThreadRequest true "内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/threads [post]
func (h *Handler) CreateThread(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.threadSvc.Create(c.Request.Context(), middleware.UserID(c), req.Content, req.Media)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// ExploreFeed 发现页：匿名只见公开作者，登录用户另见已关注的私密作者
// @Summary 发现 feed
// @Tags Thread
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/threads/feed [get]
func (h *Handler) ExploreFeed(c *gin.Context) {
	page, limit := pageParams(c)
	list, pagination, err := h.threadSvc.ExploreFeed(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"threads": list, "pagination": pagination})
}

// HomeFeed 首页 feed（匿名退化为发现页）
// @Summary 首页 feed
// @Tags Thread
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/threads/home [get]
func (h *Handler) HomeFeed(c *gin.Context) {
	page, limit := pageParams(c)
	list, pagination, err := h.threadSvc.HomeFeed(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"threads": list, "pagination": pagination})
}

// SearchThreads 内容搜索
// @Summary 搜索 thread
// @Tags Thread
// @Param q query string true "关键词"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/threads/search [get]
func (h *Handler) SearchThreads(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "query is required")
		return
	}
	page, limit := pageParams(c)
	list, pagination, err := h.threadSvc.Search(c.Request.Context(), q, middleware.UserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"threads": list, "pagination": pagination})
}

// GetThread thread 详情（含回复）
// @Summary thread 详情
// @Tags Thread
// @Param id path string true "thread ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id} [get]
func (h *Handler) GetThread(c *gin.Context) {
	detail, err := h.threadSvc.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// UpdateThread 编辑本人 thread
// @Summary 编辑 thread
// @Tags Thread
// @Accept json
// @Produce json
// @Param id path string true "thread ID"
// @Param request body updateThreadRequest true "修改内容"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/threads/{id} [put]
func (h *Handler) UpdateThread(c *gin.Context) {
	var req updateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	t, err := h.threadSvc.Update(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content, req.Media)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, t)
}

// DeleteThread 删除本人 thread（级联点赞与回复）
// @Summary 删除 thread
// @Tags Thread
// @Param id path string true "thread ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/threads/{id} [delete]
func (h *Handler) DeleteThread(c *gin.Context) {
	if err := h.threadSvc.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// LikeThread 点赞
// @Summary 点赞
// @Tags Thread
// @Param id path string true "thread ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/threads/{id}/like [post]
func (h *Handler) LikeThread(c *gin.Context) {
	count, err := h.threadSvc.Like(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"likesCount": count})
}

// UnlikeThread 取消点赞
// @Summary 取消点赞
// @Tags Thread
// @Param id path string true "thread ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id}/like [delete]
func (h *Handler) UnlikeThread(c *gin.Context) {
	count, err := h.threadSvc.Unlike(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"likesCount": count})
}

// AddReply 回复 thread
// @Summary 回复
// @Tags Thread
// @Accept json
// @Produce json
// @Param id path string true "thread ID"
// @Param request body replyRequest true "回复内容"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/threads/{id}/replies [post]
func (h *Handler) AddReply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rp, err := h.threadSvc.AddReply(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rp)
}

// DeleteReply 删除本人回复
// @Summary 删除回复
// @Tags Thread
// @Param id path string true "回复ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/replies/{id} [delete]
func (h *Handler) DeleteReply(c *gin.Context) {
	if err := h.threadSvc.DeleteReply(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
