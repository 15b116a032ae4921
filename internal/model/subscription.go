package model

import "time"

// 订阅关系：subscriber关注channel，存在即订阅，删除即取关
type Subscription struct {
	SubscriberID uint64 `gorm:"primaryKey;autoIncrement:false"`
	ChannelID    uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt    time.Time
}

func (Subscription) TableName() string {
	return "subscriptions"
}
