package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

// Follow 关注用户；结果状态由对方隐私偏好决定（accepted 或 pending）
// @Summary 关注用户
// @Tags 关系链
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follows/{user_id} [post]
func (h *Handler) Follow(c *gin.Context) {
	follow, err := h.followSvc.Follow(c.Request.Context(), middleware.UserID(c), c.Param("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": follow.Status})
}

// Unfollow 取消关注（pending 请求也会被撤回）
// @Summary 取消关注
// @Tags 关系链
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/{user_id} [delete]
func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.followSvc.Unfollow(c.Request.Context(), middleware.UserID(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AcceptFollow 接受关注请求
// @Summary 接受关注请求
// @Tags 关系链
// @Param user_id path string true "请求方用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follows/{user_id}/accept [post]
func (h *Handler) AcceptFollow(c *gin.Context) {
	follow, err := h.followSvc.AcceptRequest(c.Request.Context(), c.Param("user_id"), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": follow.Status})
}

// RejectFollow 拒绝关注请求
// @Summary 拒绝关注请求
// @Tags 关系链
// @Param user_id path string true "请求方用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/follows/{user_id}/reject [post]
func (h *Handler) RejectFollow(c *gin.Context) {
	if err := h.followSvc.RejectRequest(c.Request.Context(), c.Param("user_id"), middleware.UserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveFollower 移除某个粉丝
// @Summary 移除粉丝
// @Tags 关系链
// @Param user_id path string true "粉丝用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/follows/followers/{user_id} [delete]
func (h *Handler) RemoveFollower(c *gin.Context) {
	if err := h.followSvc.RemoveFollower(c.Request.Context(), middleware.UserID(c), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// PendingFollowRequests 待处理的关注请求
// @Summary 待处理关注请求
// @Tags 关系链
// @Success 200 {object} response.Response
// @Router /api/v1/follows/requests [get]
func (h *Handler) PendingFollowRequests(c *gin.Context) {
	list, err := h.followSvc.PendingRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"requests": list})
}
