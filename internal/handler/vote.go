package handler

import (
	"net/http"

	"FluxTube/internal/model"
	"FluxTube/internal/service"
	"FluxTube/pkg/logger"

	"github.com/gin-gonic/gin"
)

type VoteHandler interface {
	CastVote(c *gin.Context)
}

type voteHandler struct {
	VoteService service.VoteService
}

func NewVoteHandler(voteService service.VoteService) VoteHandler {
	return &voteHandler{VoteService: voteService}
}

type CastVoteRequest struct {
	Type model.VoteType `json:"type" binding:"required"`
}

// 投票：同一种票再投一次就是撤销，返回值里的my_vote只给投票者自己看
func (h *voteHandler) CastVote(c *gin.Context) {
	videoID, ok := parseIDParam(c, "video_id", "无效的视频ID")
	if !ok {
		return
	}
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", caller.UserID).WithField("video_id", videoID)
	logCtx.WithField("type", req.Type).Info("开始处理投票请求")

	result, err := h.VoteService.CastVote(c.Request.Context(), caller.UserID, videoID, req.Type)
	if err != nil {
		handleServiceError(c, logCtx, err, "投票失败")
		return
	}
	logCtx.WithField("my_vote", result.MyVote).Info("投票成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "投票成功",
		"data":    result,
	})
}
