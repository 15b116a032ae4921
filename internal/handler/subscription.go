package handler

import (
	"net/http"

	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler interface {
	ToggleSubscription(c *gin.Context)
}

type subscriptionHandler struct {
	SubscriptionService service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService) SubscriptionHandler {
	return &subscriptionHandler{SubscriptionService: subscriptionService}
}

func (h *subscriptionHandler) ToggleSubscription(c *gin.Context) {
	channelID, ok := parseIDParam(c, "user_id", "无效的频道ID")
	if !ok {
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", caller.UserID).WithField("channel_id", channelID)
	logCtx.Info("开始处理订阅请求")

	result, err := h.SubscriptionService.ToggleSubscription(c.Request.Context(), caller.UserID, channelID)
	if err != nil {
		handleServiceError(c, logCtx, err, "订阅失败")
		return
	}
	logCtx.WithField("subscribed", result.IsSubscribed).Info("订阅状态已切换")
	c.JSON(http.StatusOK, gin.H{"data": result})
}
