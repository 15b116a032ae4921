package handler

import (
	"net/http"

	"FluxTube/internal/model"
	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AdminHandler interface {
	BlockUser(c *gin.Context)
	GrantBonusSubscribers(c *gin.Context)
	SetAdultFlag(c *gin.Context)
	SetRole(c *gin.Context)
}

type adminHandler struct {
	ModerationService service.ModerationService
}

func NewAdminHandler(moderationService service.ModerationService) AdminHandler {
	return &adminHandler{ModerationService: moderationService}
}

type GrantBonusRequest struct {
	Count uint64 `json:"count" binding:"required"`
}

type SetAdultFlagRequest struct {
	// 用指针区分“没传”和false
	IsAdult *bool `json:"is_adult" binding:"required"`
}

type SetRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

func (h *adminHandler) BlockUser(c *gin.Context) {
	targetID, ok := parseIDParam(c, "user_id", "无效的用户ID")
	if !ok {
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("moderator_id", caller.UserID).WithField("user_id", targetID)
	logCtx.Info("开始封禁用户")

	if err := h.ModerationService.BlockUser(c.Request.Context(), caller, targetID); err != nil {
		handleServiceError(c, logCtx, err, "封禁用户失败")
		return
	}
	logCtx.Info("用户已封禁")
	c.JSON(http.StatusOK, gin.H{"message": "用户已封禁"})
}

func (h *adminHandler) GrantBonusSubscribers(c *gin.Context) {
	channelID, ok := parseIDParam(c, "user_id", "无效的频道ID")
	if !ok {
		return
	}
	var req GrantBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("moderator_id", caller.UserID).WithField("channel_id", channelID)
	logCtx.WithField("count", req.Count).Info("开始赠送订阅数")

	shown, err := h.ModerationService.GrantBonusSubscribers(c.Request.Context(), caller, channelID, req.Count)
	if err != nil {
		handleServiceError(c, logCtx, err, "赠送订阅数失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "赠送成功",
		"data": gin.H{
			"channel_id":       channelID,
			"subscriber_count": shown,
		},
	})
}

func (h *adminHandler) SetAdultFlag(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req SetAdultFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("moderator_id", caller.UserID).WithField("video_id", videoID)

	if err := h.ModerationService.SetAdultFlag(c.Request.Context(), caller, videoID, *req.IsAdult); err != nil {
		handleServiceError(c, logCtx, err, "修改18+标记失败")
		return
	}
	logCtx.WithField("is_adult", *req.IsAdult).Info("18+标记已更新")
	c.JSON(http.StatusOK, gin.H{
		"message": "18+标记已更新",
		"data": gin.H{
			"video_id": videoID,
			"is_adult": *req.IsAdult,
		},
	})
}

func (h *adminHandler) SetRole(c *gin.Context) {
	targetID, ok := parseIDParam(c, "user_id", "无效的用户ID")
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("moderator_id", caller.UserID).WithField("user_id", targetID)

	if err := h.ModerationService.SetRole(c.Request.Context(), caller, targetID, req.Role); err != nil {
		handleServiceError(c, logCtx, err, "修改角色失败")
		return
	}
	logCtx.WithField("role", req.Role).Info("角色已修改")
	c.JSON(http.StatusOK, gin.H{"message": "角色已修改"})
}
