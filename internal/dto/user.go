package dto

import (
	"time"

	"FluxTube/internal/model"
)

type ProfileResponse struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Avatar    string     `json:"avatar"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToProfileResponse(user *model.User) ProfileResponse {
	return ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Avatar:    user.Avatar,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ChannelResponse 频道页：频道主信息、订阅数（含赠送）、当前访问者是否已订阅、视频列表
type ChannelResponse struct {
	Channel         UserInfo        `json:"channel"`
	SubscriberCount uint64          `json:"subscriber_count"`
	IsSubscribed    bool            `json:"is_subscribed"`
	Videos          []VideoResponse `json:"videos"`
}

type SubscriptionResponse struct {
	ChannelID       uint64 `json:"channel_id"`
	IsSubscribed    bool   `json:"is_subscribed"`
	SubscriberCount uint64 `json:"subscriber_count"`
}
