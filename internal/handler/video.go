package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"FluxTube/internal/dto"
	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type VideoHandler interface {
	CreateVideo(c *gin.Context)
	DeleteVideo(c *gin.Context)

	GetVideoByID(c *gin.Context)
	GetFeed(c *gin.Context)
	RecordView(c *gin.Context)
}

type videoHandler struct {
	VideoService service.VideoService
	ViewService  service.ViewService
	markerTTL    time.Duration
}

func NewVideoHandler(videoService service.VideoService, viewService service.ViewService, markerTTL time.Duration) VideoHandler {
	return &videoHandler{
		VideoService: videoService,
		ViewService:  viewService,
		markerTTL:    markerTTL,
	}
}

// 媒体文件由外部存储负责上传，这里只收它们的地址
type CreateVideoRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	VideoURL     string `json:"video_url" binding:"required"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsAdult      bool   `json:"is_adult"`
}

// 创建视频：1、提取Body和context中的Caller 2、service层发布视频 3、将返回的视频结构通过dto传回
func (h *videoHandler) CreateVideo(c *gin.Context) {
	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("发布视频参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	// 蛇形命名法（日志聚合平台ELK、前端JavaScript）
	logCtx := logger.Log.WithField("author_id", caller.UserID)
	logCtx.Info("开始处理发布视频请求")

	video, err := h.VideoService.CreateVideo(c.Request.Context(), caller.UserID, service.CreateVideoInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		IsAdult:      req.IsAdult,
	})
	if err != nil {
		handleServiceError(c, logCtx, err, "发布视频失败")
		return
	}
	// 没有赋值，临时追加上下文，避免污染后续其他日志
	logCtx.WithField("video_id", video.ID).Info("视频发布成功")

	c.JSON(http.StatusCreated, gin.H{ // 使用201 Created状态码，更符合RESTful规范
		"message": "视频发布成功",
		"data":    dto.ToVideoResponse(video),
	})
}

// 播放页数据：视频、赞踩数、订阅数，登录用户还有自己的投票和订阅状态
func (h *videoHandler) GetVideoByID(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID)
	logCtx.Info("开始处理查找视频请求")

	detail, err := h.VideoService.GetVideoDetail(c.Request.Context(), videoID, viewerID(c))
	if err != nil {
		handleServiceError(c, logCtx, err, "查找视频失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": detail})
}

// 可以无限向下滑动、不断出现新内容的主界面，就是最典型的Feed流
// 获取视频Feed流：1、将请求附上用户IP，进行问题溯源 2、通过service层请求Feed流 3、dto层转换
func (h *videoHandler) GetFeed(c *gin.Context) {
	// 攻击溯源，用户分析，问题排查
	logCtx := logger.Log.WithField("ip", c.ClientIP())
	logCtx.Info("开始处理获取Feed流请求")

	// 非法的limit交给service层兜底成默认值
	limit, _ := strconv.Atoi(c.Query("limit"))
	videos, err := h.VideoService.GetFeed(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, logCtx, err, "获取视频流失败")
		return
	}

	response := dto.ToVideoResponses(videos)
	logCtx.WithField("count", len(response)).Info("成功获取Feed流")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取视频流",
		"data":    response,
	})
}

func (h *videoHandler) DeleteVideo(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", caller.UserID).WithField("video_id", videoID)
	logCtx.Info("开始删除视频")

	if err := h.VideoService.DeleteVideo(c.Request.Context(), caller, videoID); err != nil {
		handleServiceError(c, logCtx, err, "删除视频失败")
		return
	}
	logCtx.Info("视频删除成功")
	c.JSON(http.StatusOK, gin.H{"message": "视频已删除"})
}

func viewCookieName(videoID uint64) string {
	return fmt.Sprintf("fx_viewed_%d", videoID)
}

// 记录播放：标记放在每个视频自己的cookie里，有效期内刷新页面不会重复计数
func (h *videoHandler) RecordView(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID)

	marker, _ := c.Cookie(viewCookieName(videoID))
	result, err := h.ViewService.RecordView(c.Request.Context(), videoID, marker)
	if err != nil {
		handleServiceError(c, logCtx, err, "记录播放失败")
		return
	}
	if result.Counted && result.Marker != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(viewCookieName(videoID), result.Marker, int(h.markerTTL/time.Second), "/", "", false, true)
	}
	logCtx.WithField("counted", result.Counted).Debug("播放记录完成")
	c.JSON(http.StatusOK, gin.H{"data": result})
}
