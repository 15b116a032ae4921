package model

import "time"

type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
	// VoteNone 只出现在返回值里，表示用户没有态度，数据库里不会存
	VoteNone VoteType = "none"
)

func (t VoteType) Valid() bool {
	return t == VoteLike || t == VoteDislike
}

// 用户对视频的态度，联合主键保证一个用户对一个视频最多一行
// 不用BaseModel：软删除会让“取消再点”撞上联合主键
type Vote struct {
	UserID    uint64   `gorm:"primaryKey;autoIncrement:false"`
	VideoID   uint64   `gorm:"primaryKey;autoIncrement:false;index"`
	Type      VoteType `gorm:"size:8;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Vote) TableName() string {
	return "votes"
}
