package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"omitempty,max=64"`
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户并签发 token
// @Summary 注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := middleware.GenerateToken(h.jwtSecret, u.ID, h.jwtExpire)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	p := u.PublicProfile()
	response.Success(c, gin.H{"user": p, "token": token})
}

// Login 用户名或邮箱登录
// @Summary 登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.userSvc.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	token, err := middleware.GenerateToken(h.jwtSecret, u.ID, h.jwtExpire)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	p := u.PublicProfile()
	response.Success(c, gin.H{"user": p, "token": token})
}
