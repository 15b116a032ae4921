package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"FluxTube/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	channelPrefix = "fluxtube:events:"

	minRelayBackoff = time.Second
	maxRelayBackoff = 30 * time.Second
)

// RedisBroker 通过Redis的发布订阅在多个服务实例之间转发事件
// 发布写到Redis频道，Run把所有频道的消息转进本地Hub，订阅只挂在本地Hub上
// 转发没有在跑的时候发布直接落到本地Hub，至少本实例的订阅者还能收到
type RedisBroker struct {
	rdb      *redis.Client
	local    *Hub
	relaying atomic.Bool
}

func NewRedisBroker(rdb *redis.Client, local *Hub) *RedisBroker {
	return &RedisBroker{rdb: rdb, local: local}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, ev Event) error {
	if !b.relaying.Load() {
		return b.local.Publish(ctx, topic, ev)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelPrefix+topic, payload).Err()
}

func (b *RedisBroker) Subscribe(topic string) *Subscription {
	return b.local.Subscribe(topic)
}

// Run 阻塞运行，直到ctx被取消
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	// 等订阅确认，保证Run返回前的发布不会丢
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	b.relaying.Store(true)
	defer b.relaying.Store(false)
	logger.Log.Info("实时事件转发已启动")

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Log.WithError(err).WithField("channel", msg.Channel).Warn("实时事件解析失败，已丢弃")
				continue
			}
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			_ = b.local.Publish(ctx, topic, ev)
		}
	}
}

// Serve 反复运行Run，失败后指数退避重连，直到ctx被取消
func (b *RedisBroker) Serve(ctx context.Context) {
	backoff := minRelayBackoff
	for {
		started := time.Now()
		err := b.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		// 跑稳过一段时间再断的，从最短间隔重新开始
		if time.Since(started) > maxRelayBackoff {
			backoff = minRelayBackoff
		}
		logger.Log.WithError(err).WithField("retry_in", backoff.String()).Warn("实时事件转发中断，稍后重连")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxRelayBackoff {
			backoff = maxRelayBackoff
		}
	}
}
