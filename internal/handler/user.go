package handler

import (
	"net/http"

	"FluxTube/internal/dto"
	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	GetProfile(c *gin.Context)
	UpdateAvatar(c *gin.Context)
	GetChannel(c *gin.Context)
}

// 对Service进行封装
type userHandler struct {
	UserService service.UserService
}

// 封装函数
func NewUserHandler(userService service.UserService) UserHandler {
	return &userHandler{UserService: userService}
}

// 用处：接收http发来的全部注册信息，用户名+密码，头像可选
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

// 注册：1、Body解析为注册请求结构体 2、service层注册 3、返回注册成功后的User
func (h *userHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// c.ShouldBindJSON，绑定和校验，如果context中不包含req的“required”字段，则会返回错误
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("请求参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	logCtx := logger.Log.WithField("username", req.Username)
	logCtx.Info("开始处理用户注册请求")

	user, err := h.UserService.Register(c.Request.Context(), req.Username, req.Password, req.Avatar)
	if err != nil {
		handleServiceError(c, logCtx, err, "注册失败")
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户注册成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功",
		"data":    dto.ToProfileResponse(user),
	})
}

// 登录：1、Body解析为登录结构体 2、Username和Password传给service层 3、成功则返回token和用户信息
func (h *userHandler) Login(c *gin.Context) {
	var login LoginRequest
	if err := c.ShouldBindJSON(&login); err != nil {
		logger.Log.WithError(err).Error("登录请求参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	logCtx := logger.Log.WithField("username", login.Username)
	logCtx.Info("开始处理用户登录请求")

	token, user, err := h.UserService.Login(c.Request.Context(), login.Username, login.Password)
	if err != nil {
		handleServiceError(c, logCtx, err, "登录失败")
		return
	}

	logCtx.WithField("user_id", user.ID).Info("用户登录成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "登录成功",
		"data": gin.H{
			"token": token,
			"user":  dto.ToProfileResponse(user),
		},
	})
}

// 获取用户个人信息：token里只有ID，其余字段以数据库为准
func (h *userHandler) GetProfile(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", caller.UserID)

	user, err := h.UserService.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		handleServiceError(c, logCtx, err, "获取用户信息失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取用户信息",
		"data":    dto.ToProfileResponse(user),
	})
}

func (h *userHandler) UpdateAvatar(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	var req UpdateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	logCtx := logger.Log.WithField("user_id", caller.UserID)
	logCtx.Info("开始更新头像")

	user, err := h.UserService.UpdateAvatar(c.Request.Context(), caller.UserID, req.Avatar)
	if err != nil {
		handleServiceError(c, logCtx, err, "更新头像失败")
		return
	}
	logCtx.Info("头像更新成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "头像更新成功",
		"data":    dto.ToProfileResponse(user),
	})
}

// 频道页，公开接口，登录用户额外带上是否已订阅
func (h *userHandler) GetChannel(c *gin.Context) {
	channelID, ok := parseIDParam(c, "user_id", "无效的频道ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("channel_id", channelID)

	channel, err := h.UserService.GetChannel(c.Request.Context(), channelID, viewerID(c))
	if err != nil {
		handleServiceError(c, logCtx, err, "获取频道失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": channel})
}
