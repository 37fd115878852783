package api

import (
	"regexp"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/thread-graph/config"
	_ "github.com/d60-Lab/thread-graph/docs"
	"github.com/d60-Lab/thread-graph/internal/api/handler"
	"github.com/d60-Lab/thread-graph/internal/api/middleware"
	"github.com/d60-Lab/thread-graph/pkg/response"
)

var usernameRe = regexp.MustCompile(`^\w{2,32}$`)

// registerValidators 挂接自定义绑定校验
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	}
}

// NewRouter 注册全部路由。
// feed 与公开资料挂 OptionalAuth：匿名可访问，登录后可见性随之变化。
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidators()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Trace.Enabled {
		r.Use(otelgin.Middleware("thread-graph"))
	}
	r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	secret := cfg.JWT.Secret
	auth := middleware.Auth(secret)
	optional := middleware.OptionalAuth(secret)

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	users := v1.Group("/users")
	{
		users.GET("/search", optional, h.SearchUsers)
		users.GET("/suggested", auth, h.SuggestedUsers)
		users.GET("/check-username", h.CheckUsername)
		users.GET("/check-email", h.CheckEmail)
		users.GET("/me/stats", auth, h.MyStats)
		users.PUT("/me", auth, h.UpdateProfile)
		users.DELETE("/me", auth, h.DeleteAccount)
		users.GET("/:username", optional, h.Profile)
		users.GET("/:username/threads", optional, h.UserThreads)
		users.GET("/:username/followers", optional, h.UserFollowers)
		users.GET("/:username/following", optional, h.UserFollowing)
	}

	follows := v1.Group("/follows", auth)
	{
		follows.GET("/requests", h.PendingFollowRequests)
		follows.DELETE("/followers/:user_id", h.RemoveFollower)
		follows.POST("/:user_id", h.Follow)
		follows.DELETE("/:user_id", h.Unfollow)
		follows.POST("/:user_id/accept", h.AcceptFollow)
		follows.POST("/:user_id/reject", h.RejectFollow)
	}

	threads := v1.Group("/threads")
	{
		threads.GET("/feed", optional, h.ExploreFeed)
		threads.GET("/home", optional, h.HomeFeed)
		threads.GET("/search", optional, h.SearchThreads)
		threads.POST("", auth, h.CreateThread)
		threads.GET("/:id", optional, h.GetThread)
		threads.PUT("/:id", auth, h.UpdateThread)
		threads.DELETE("/:id", auth, h.DeleteThread)
		threads.POST("/:id/like", auth, h.LikeThread)
		threads.DELETE("/:id/like", auth, h.UnlikeThread)
		threads.POST("/:id/replies", auth, h.AddReply)
	}

	v1.DELETE("/replies/:id", auth, h.DeleteReply)

	notifications := v1.Group("/notifications", auth)
	{
		notifications.GET("/unread", h.UnreadNotifications)
		notifications.GET("/unread/count", h.UnreadCount)
		notifications.PUT("/read-all", h.MarkAllNotificationsRead)
		notifications.PUT("/:id/read", h.MarkNotificationRead)
		notifications.GET("/stats", h.NotificationStats)
	}

	settings := v1.Group("/settings", auth)
	{
		settings.GET("", h.GetSettings)
		settings.PUT("/notifications", h.UpdateNotificationSettings)
		settings.PUT("/privacy", h.UpdatePrivacySettings)
		settings.PUT("/display", h.UpdateDisplaySettings)
		settings.PUT("/content", h.UpdateContentSettings)
		settings.POST("/reset", h.ResetSettings)
	}

	moderation := v1.Group("/moderation", auth)
	{
		moderation.POST("/flags", h.FlagContent)
		moderation.GET("/flagged", h.FlaggedContentQueue)
		moderation.GET("/stats", h.ModerationStats)
		moderation.POST("/:kind/:id/validate", h.ValidateContent)
		moderation.POST("/:kind/:id/moderate", h.ModerateContent)
		moderation.POST("/:kind/:id/auto-validate", h.AutoValidateContent)
	}

	return r
}
