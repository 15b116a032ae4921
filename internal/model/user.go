package model

const DefaultAvatar = "/img/default_avatar.svg"

// 用户同时也是“频道”，订阅关系里的channel_id就是被订阅用户的ID
type User struct {
	BaseModel
	Username string `gorm:"size:32;unique;not null"`
	Password string `gorm:"not null" json:"-"`
	Avatar   string `gorm:"size:255;not null;default:'/img/default_avatar.svg'"`
	Role     Role   `gorm:"size:16;not null;default:'creator'"`
	Blocked  bool   `gorm:"not null;default:false;index"`
	// 管理员赠送的订阅数，单独一列，不往subscriptions里塞假数据
	BonusSubscribers uint64 `gorm:"not null;default:0"`
}
