package main

import (
	"context"
	"encoding/json"

	"FluxTube/internal/bootstrap"
	"FluxTube/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRetry
)

// Purger 是消费者需要的那部分管理服务
type Purger interface {
	PurgeUser(ctx context.Context, userID uint64) error
}

// 清理要和server共用同一个Redis，被删视频的缓存才能一起失效；rdb为nil时只清数据库
// 消费者不推送实时事件
func newPurger(db *gorm.DB, rdb *redis.Client) Purger {
	repos := bootstrap.NewRepositories(db, rdb)
	return bootstrap.NewServices(repos, bootstrap.Options{}).Moderation
}

// 处理一条清理消息，返回应当如何确认
func handlePurge(ctx context.Context, purger Purger, body []byte, logCtx *logrus.Entry) outcome {
	var msg service.PurgeMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.UserID == 0 {
		logCtx.WithError(err).Error("消息JSON解析失败")
		return outcomeDrop
	}
	logCtx = logCtx.WithField("user_id", msg.UserID)

	err := purger.PurgeUser(ctx, msg.UserID)
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, service.ErrUserNotFound):
		logCtx.WithError(err).Warn("用户不存在，消息将被确认")
		return outcomeAck
	case isDuplicateKey(err):
		logCtx.WithError(err).Warn("处理消息时出现重复键错误，可能是一次重复消费，消息将被确认为成功。")
		return outcomeAck
	default:
		// 其他类型错误，才要求重试
		logCtx.WithError(err).Error("处理消息失败，将进行重试")
		return outcomeRetry
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	// 错误号 1062 就是 "Duplicate entry"
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
