package handler

import (
	"net/http"
	"strconv"

	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	CreateComment(c *gin.Context)
	GetComments(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) CommentHandler {
	return &commentHandler{CommentService: commentService}
}

// ParentID为空是一级评论，否则是对这条一级评论的回复
type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *uint64 `json:"parent_id"`
}

// 视频评论：1、解析路径里的videoID 2、解析Body 3、获取context中的Caller 4、创建评论并返回
func (h *commentHandler) CreateComment(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	// 正式进入业务前，将logger格式整理好
	logCtx := logger.Log.WithField("user_id", caller.UserID).WithField("video_id", videoID)
	if req.ParentID != nil {
		logCtx = logCtx.WithField("parent_id", *req.ParentID)
	}
	logCtx.Info("开始创建评论")

	comment, err := h.CommentService.AddComment(c.Request.Context(), caller.UserID, videoID, req.Content, req.ParentID)
	if err != nil {
		handleServiceError(c, logCtx, err, "评论失败")
		return
	}
	logCtx.WithField("comment_id", comment.ID).Info("评论成功")
	c.JSON(http.StatusCreated, gin.H{
		"message": "评论成功",
		"data":    comment,
	})
}

// 获取评论树：page从1开始，page_size不传表示全部
func (h *commentHandler) GetComments(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	logCtx := logger.Log.WithField("video_id", videoID)

	comments, err := h.CommentService.ListComments(c.Request.Context(), videoID, page, pageSize)
	if err != nil {
		handleServiceError(c, logCtx, err, "获取评论失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comments})
}
