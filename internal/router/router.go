package router

import (
	"net/http"
	"time"

	"FluxTube/internal/handler"
	"FluxTube/internal/middleware"
	"FluxTube/internal/model"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	User         handler.UserHandler
	Video        handler.VideoHandler
	Vote         handler.VoteHandler
	Comment      handler.CommentHandler
	Subscription handler.SubscriptionHandler
	Admin        handler.AdminHandler
	Event        handler.EventHandler
}

type Options struct {
	JWTSecret      string
	RequestTimeout time.Duration
	// 按能力拦截的路由用它读取用户最新的角色
	Users middleware.RoleSource
	// 可以为nil，表示不限流
	RateLimiter *middleware.RateLimiter
}

func SetupRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pang",
		})
	})

	apiV1 := r.Group("/api/v1")

	// SSE长连接不能挂请求超时
	events := apiV1.Group("/")
	{
		events.GET("/events", h.Event.FeedEvents)
		events.GET("/videos/:video_id/events", h.Event.VideoEvents)
	}

	api := apiV1.Group("/")
	api.Use(middleware.RequestTimeout(opts.RequestTimeout))
	{
		public := api.Group("/")
		public.Use(middleware.OptionalAuth(opts.JWTSecret))
		{
			public.GET("/feed", h.Video.GetFeed)
			public.GET("/videos/:video_id", h.Video.GetVideoByID)
			public.GET("/videos/:video_id/comments", h.Comment.GetComments)
			public.POST("/videos/:video_id/view", h.Video.RecordView)
			public.GET("/channels/:user_id", h.User.GetChannel)
		}

		userGroup := api.Group("/users")
		{
			userGroup.POST("/register", h.User.Register)
			userGroup.POST("/login", h.User.Login)
		}

		authorized := api.Group("/")
		authorized.Use(middleware.AuthMiddleware(opts.JWTSecret), opts.RateLimiter.Middleware())
		{
			authorized.GET("/profile", h.User.GetProfile)
			authorized.PUT("/profile/avatar", h.User.UpdateAvatar)

			authorized.POST("/videos", middleware.RequireCapability(opts.Users, model.CapUpload), h.Video.CreateVideo)
			authorized.DELETE("/videos/:video_id", h.Video.DeleteVideo)

			authorized.POST("/videos/:video_id/vote", middleware.RequireCapability(opts.Users, model.CapVote), h.Vote.CastVote)
			authorized.POST("/videos/:video_id/comments", middleware.RequireCapability(opts.Users, model.CapComment), h.Comment.CreateComment)

			authorized.POST("/channels/:user_id/subscribe", h.Subscription.ToggleSubscription)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.RequireCapability(opts.Users, model.CapModerate))
		{
			admin.POST("/users/:user_id/block", h.Admin.BlockUser)
			admin.POST("/users/:user_id/bonus-subscribers", h.Admin.GrantBonusSubscribers)
			admin.PUT("/users/:user_id/role", h.Admin.SetRole)
			admin.PUT("/videos/:video_id/adult", h.Admin.SetAdultFlag)
		}
	}

	return r
}
