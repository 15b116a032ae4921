package dto

import (
	"time"

	"FluxTube/internal/model"
)

// UserInfo 是在DTO中使用的、简化的用户信息
type UserInfo struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func ToUserInfo(user *model.User) UserInfo {
	return UserInfo{ID: user.ID, Username: user.Username, Avatar: user.Avatar}
}

// CommentResponse 一级评论带着Replies，二级评论带着ParentID和ReplyTo
type CommentResponse struct {
	ID        uint64            `json:"id"`
	VideoID   uint64            `json:"video_id"`
	ParentID  *uint64           `json:"parent_id"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Author    UserInfo          `json:"author"`
	ReplyTo   *UserInfo         `json:"reply_to,omitempty"` // 回复给了谁
	Replies   []CommentResponse `json:"replies"`          // 一级评论没有回复时也是[]
}

// NewCommentEvent 是new_comment事件的负载
type NewCommentEvent struct {
	VideoID uint64          `json:"video_id"`
	Comment CommentResponse `json:"comment"`
}

// ToCommentResponse 把单条评论转换成响应，作者和被回复者只在被preload过时才填
func ToCommentResponse(comment *model.Comment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		ParentID:  comment.ParentID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		Author:    UserInfo{ID: comment.UserID},
	}
	if comment.User.ID != 0 {
		resp.Author = ToUserInfo(&comment.User)
	}
	if comment.ReplyToUser.ID != 0 {
		replyTo := ToUserInfo(&comment.ReplyToUser)
		resp.ReplyTo = &replyTo
	}
	return resp
}

// ToCommentResponses 接收“一级评论”列表和按父评论ID分好组的“二级评论”，拼成评论树
// 一级评论的顺序和二级评论的顺序都保持调用方给的顺序
func ToCommentResponses(parentComments []model.Comment, groupReplies map[uint64][]*model.Comment) []CommentResponse {
	response := make([]CommentResponse, 0, len(parentComments))
	for i := range parentComments {
		commentResp := ToCommentResponse(&parentComments[i])
		commentResp.Replies = []CommentResponse{}
		for _, r := range groupReplies[parentComments[i].ID] {
			commentResp.Replies = append(commentResp.Replies, ToCommentResponse(r))
		}
		response = append(response, commentResp)
	}
	return response
}
