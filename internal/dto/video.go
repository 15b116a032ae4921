package dto

import (
	"time"

	"FluxTube/internal/model"
)

type VideoResponse struct {
	ID           uint64    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Views        uint64    `json:"views"`
	IsAdult      bool      `json:"is_adult"`
	Author       UserInfo  `json:"author"`
}

// ToVideoResponse 把DB模型转换为API响应模型，Author没有preload时只返回作者ID
func ToVideoResponse(video *model.Video) VideoResponse {
	resp := VideoResponse{
		ID:           video.ID,
		CreatedAt:    video.CreatedAt,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Views:        video.Views,
		IsAdult:      video.IsAdult,
		Author:       UserInfo{ID: video.AuthorID},
	}
	if video.Author.ID != 0 {
		resp.Author = ToUserInfo(&video.Author)
	}
	return resp
}

func ToVideoResponses(videos []model.Video) []VideoResponse {
	response := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		response = append(response, ToVideoResponse(&videos[i]))
	}
	return response
}

// VideoDetailResponse 是播放页需要的全部数据，计数都是现算的
type VideoDetailResponse struct {
	Video           VideoResponse  `json:"video"`
	Likes           uint64         `json:"likes"`
	Dislikes        uint64         `json:"dislikes"`
	SubscriberCount uint64         `json:"subscriber_count"`
	IsSubscribed    bool           `json:"is_subscribed"`
	MyVote          model.VoteType `json:"my_vote"`
}

// VoteResponse 只回给投票的人，让前端高亮正确的按钮
type VoteResponse struct {
	VideoID  uint64         `json:"video_id"`
	Likes    uint64         `json:"likes"`
	Dislikes uint64         `json:"dislikes"`
	MyVote   model.VoteType `json:"my_vote"`
}
