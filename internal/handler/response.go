package handler

import (
	"context"
	"net/http"
	"strconv"

	"FluxTube/internal/middleware"
	"FluxTube/internal/model"
	"FluxTube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorResponse 定义了标准的API错误响应结构
type ErrorResponse struct {
	Error string `json:"error"`
}

// sendErrorResponse 是一个辅助函数，用于发送标准格式的错误响应
func sendErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// 业务错误到HTTP状态码的映射，没列出来的一律500
var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrInvalidArgument, http.StatusBadRequest},
	{service.ErrInvalidVoteType, http.StatusBadRequest},
	{service.ErrEmptyComment, http.StatusBadRequest},
	{service.ErrCommentTooLong, http.StatusBadRequest},
	{service.ErrParentMismatch, http.StatusBadRequest},
	{service.ErrReplyDepth, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrUserBlocked, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrVideoNotFound, http.StatusNotFound},
	{service.ErrCommentNotFound, http.StatusNotFound},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrSelfSubscription, http.StatusConflict},
	{service.ErrVoteConflict, http.StatusConflict},
}

// handleServiceError 把service层的错误翻译成响应：已知业务错误直接把文案给用户，超时返回503，其他只给通用提示
func handleServiceError(c *gin.Context, logCtx *logrus.Entry, err error, fallback string) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			logCtx.WithError(err).Warn(fallback)
			sendErrorResponse(c, m.code, m.err.Error())
			return
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logCtx.WithError(err).Warn("请求超时")
		sendErrorResponse(c, http.StatusServiceUnavailable, "服务繁忙，请稍后重试")
		return
	}
	logCtx.WithError(err).Error(fallback)
	sendErrorResponse(c, http.StatusInternalServerError, fallback)
}

// 利用strconv.ParseUint将路径参数转化为uint64
func parseIDParam(c *gin.Context, name, message string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		sendErrorResponse(c, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}

// 取出认证后的Caller，路由没挂认证中间件时返回401
func requireCaller(c *gin.Context) (model.Caller, bool) {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证")
		return model.Caller{}, false
	}
	return caller, true
}

// 访客返回0
func viewerID(c *gin.Context) uint64 {
	if caller, ok := middleware.CurrentCaller(c); ok {
		return caller.UserID
	}
	return 0
}
