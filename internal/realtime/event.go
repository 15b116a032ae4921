package realtime

import "fmt"

// 事件类型，也是SSE里的event名
const (
	EventNewVideo        = "new_video"
	EventVoteUpdate      = "vote_update"
	EventNewComment      = "new_comment"
	EventViewCountUpdate = "view_count_update"
	EventAdultFlagUpdate = "adult_flag_update"
)

// TopicFeed 是首页的主题，只有新视频发布会推到这里
const TopicFeed = "feed"

// VideoTopic 单个视频的主题，只有正在看这个视频的连接会收到
func VideoTopic(videoID uint64) string {
	return fmt.Sprintf("video:%d", videoID)
}

// Event 是推给客户端的一条消息，Data会原样序列化成JSON
type Event struct {
	Type    string      `json:"type"`
	VideoID uint64      `json:"video_id,omitempty"`
	Data    interface{} `json:"data"`
}

type VoteUpdate struct {
	VideoID  uint64 `json:"video_id"`
	Likes    uint64 `json:"likes"`
	Dislikes uint64 `json:"dislikes"`
}

type ViewCountUpdate struct {
	VideoID uint64 `json:"video_id"`
	Views   uint64 `json:"views"`
}

type AdultFlagUpdate struct {
	VideoID uint64 `json:"video_id"`
	IsAdult bool   `json:"is_adult"`
}
