package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FluxTube/internal/bootstrap"
	"FluxTube/internal/config"
	"FluxTube/internal/handler"
	"FluxTube/internal/middleware"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/internal/router"
	"FluxTube/internal/service"
	"FluxTube/pkg/database"
	"FluxTube/pkg/logger"
	"FluxTube/pkg/rabbitmq"
	"FluxTube/pkg/redis"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("配置加载失败: %v", err)
	}
	// 初始化logger
	logger.InitLogger(cfg.Log.Level, cfg.Log.File)
	if cfg.JWT.Secret == "" {
		logger.Log.Fatal("JWT密钥未配置，请设置FLUXTUBE_JWT_SECRET或JWT_SECRET_KEY")
	}
	gin.SetMode(cfg.Server.Mode)

	// 设置信号处理，用于优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	rootCtx, stopAll := context.WithCancel(context.Background())
	defer stopAll()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.WithField("driver", cfg.Database.Driver).Info("数据库连接成功")
	// 没有这个表就创建,没有属性列则创建列,没有约束则增加约束;不会主动删除和修改
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	// Redis不可用时降级：没有缓存、没有播放标记、不限流、事件只在本进程内广播
	hub := realtime.NewHub()
	var broker realtime.Broker = hub
	var markers repository.ViewMarkerStore
	redisClient, err := redis.InitRedis(cfg.Redis)
	if err != nil {
		logger.Log.WithError(err).Warn("无法连接到Redis，以降级模式运行")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Log.Info("Redis连接成功")
		markers = repository.NewViewMarkerStore(redisClient)
		redisBroker := realtime.NewRedisBroker(redisClient, hub)
		broker = redisBroker
		// 转发断开时自动重连，断开期间事件退回本进程内广播
		go redisBroker.Serve(rootCtx)
	}

	// RabbitMQ不可用时封禁后同步清理
	var jobs service.JobPublisher
	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Log.WithError(err).Warn("无法连接到RabbitMQ，用户清理将同步执行")
	} else {
		defer rabbitMQConn.Close() // 确保程序退出时关闭连接
		publisher, err := rabbitmq.NewPublisher(rabbitMQConn, rabbitmq.QueueUserPurge)
		if err != nil {
			logger.Log.WithError(err).Warn("清理队列声明失败，用户清理将同步执行")
		} else {
			jobs = publisher
			logger.Log.Info("RabbitMQ连接成功")
		}
	}

	repos := bootstrap.NewRepositories(db, redisClient)
	svc := bootstrap.NewServices(repos, bootstrap.Options{
		JWTSecret: cfg.JWT.Secret,
		TokenTTL:  cfg.JWT.TTL,
		MarkerTTL: cfg.View.MarkerTTL,
		Markers:   markers,
		Jobs:      jobs,
		Broker:    broker,
	})

	r := router.SetupRouter(router.Handlers{
		User:         handler.NewUserHandler(svc.User),
		Video:        handler.NewVideoHandler(svc.Video, svc.View, cfg.View.MarkerTTL),
		Vote:         handler.NewVoteHandler(svc.Vote),
		Comment:      handler.NewCommentHandler(svc.Comment),
		Subscription: handler.NewSubscriptionHandler(svc.Subscription),
		Admin:        handler.NewAdminHandler(svc.Moderation),
		Event:        handler.NewEventHandler(broker, svc.Video, 0),
	}, router.Options{
		JWTSecret:      cfg.JWT.Secret,
		RequestTimeout: cfg.Server.RequestTimeout,
		Users:          repos.User,
		RateLimiter:    middleware.NewRateLimiter(redisClient, cfg.RateLimit.PerMinute),
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
		// SSE长连接跟着rootCtx走，关闭时先断开它们，Shutdown才不会一直等
		BaseContext: func(net.Listener) context.Context { return rootCtx },
	}

	// 在goroutine中启动服务器
	go func() {
		logger.Log.WithField("addr", cfg.Server.Addr).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	<-quit
	logger.Log.Info("服务器正在关闭...")
	stopAll()

	// 给进行中的请求5秒时间完成
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("服务器被强制关闭")
	}
	logger.Log.Info("服务器已退出")
}
