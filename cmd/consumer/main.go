package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FluxTube/internal/config"
	"FluxTube/pkg/database"
	"FluxTube/pkg/logger"
	"FluxTube/pkg/rabbitmq"
	"FluxTube/pkg/redis"

	"github.com/streadway/amqp"
)

// 消费者进程：连接数据库和RabbitMQ，执行封禁之后排队的用户数据清理
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(cfg.Log.Level, cfg.Log.File)

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	rabbitMQConn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close()
	if err := rabbitmq.DeclareQueue(rabbitMQConn, rabbitmq.QueueUserPurge); err != nil {
		logger.Log.Fatalf("清理队列声明失败: %v", err)
	}

	redisClient, err := redis.InitRedis(cfg.Redis)
	if err != nil {
		logger.Log.WithError(err).Warn("无法连接到Redis，清理后视频缓存要等自然过期")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}
	purger := newPurger(db, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Log.Info("消费者正在退出...")
		cancel()
	}()

	consumePurges(ctx, rabbitMQConn, purger)
}

// 清理消息消费者：1、通过mq的TCP连接创建channel 2、注册消费者，手动确认 3、逐条处理，按结果ack/nack
func consumePurges(ctx context.Context, conn *amqp.Connection, purger Purger) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}
	defer ch.Close()

	// 一次只拿一条，清理是重操作，不要堆在本地
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Log.Fatalf("设置Qos失败: %v", err)
	}
	msgs, err := ch.Consume(
		rabbitmq.QueueUserPurge, // queue
		"",                      // consumer
		false,                   // auto-ack: 处理完再手动确认
		false,                   // exclusive
		false,                   // no-local
		false,                   // no-wait
		nil,                     // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册清理消费者: %v", err)
	}

	logger.Log.Info(" [*] 等待用户清理消息中. 按 CTRL+C 退出")
	for {
		select {
		case <-ctx.Done():
			return
		// msgs不是切片，而是通道channel，如果通道为空会“阻塞”
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Warn("消息通道已关闭")
				return
			}
			logCtx := logger.Log.WithField("body", string(d.Body)).WithField("redelivered", d.Redelivered)
			logCtx.Info("收到一条用户清理消息")

			switch handlePurge(ctx, purger, d.Body, logCtx) {
			case outcomeAck:
				_ = d.Ack(false)
			case outcomeDrop:
				// 坏消息重试也没用，直接丢弃
				_ = d.Nack(false, false)
			case outcomeRetry:
				_ = d.Nack(false, true)
			}
		}
	}
}
