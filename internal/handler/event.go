package handler

import (
	"net/http"
	"time"

	"FluxTube/internal/realtime"
	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

const defaultPingInterval = 25 * time.Second

type EventHandler interface {
	FeedEvents(c *gin.Context)
	VideoEvents(c *gin.Context)
}

type eventHandler struct {
	broker       realtime.Broker
	VideoService service.VideoService
	pingInterval time.Duration
}

func NewEventHandler(broker realtime.Broker, videoService service.VideoService, pingInterval time.Duration) EventHandler {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &eventHandler{
		broker:       broker,
		VideoService: videoService,
		pingInterval: pingInterval,
	}
}

// 首页只收new_video
func (h *eventHandler) FeedEvents(c *gin.Context) {
	h.stream(c, realtime.TopicFeed)
}

// 播放页只收这个视频自己的事件
func (h *eventHandler) VideoEvents(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	if _, err := h.VideoService.GetVideoByID(c.Request.Context(), videoID); err != nil {
		handleServiceError(c, logger.Log.WithField("video_id", videoID), err, "订阅视频事件失败")
		return
	}
	h.stream(c, realtime.VideoTopic(videoID))
}

// SSE长连接：每条事件一个event块，定时发ping防止代理断开空闲连接，客户端断开就退出
func (h *eventHandler) stream(c *gin.Context, topic string) {
	sub := h.broker.Subscribe(topic)
	defer sub.Close()

	logCtx := logger.Log.WithField("topic", topic).WithField("ip", c.ClientIP())
	logCtx.Debug("实时事件连接建立")
	defer logCtx.Debug("实时事件连接断开")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent(ev.Type, ev.Data)
		case now := <-ticker.C:
			c.SSEvent("ping", now.Unix())
		}
		c.Writer.Flush()
	}
}
