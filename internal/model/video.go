package model

type Video struct {
	BaseModel
	AuthorID    uint64 `gorm:"not null;index"` // 作者ID，用于关联用户
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	Views       uint64 `gorm:"not null;default:0"`
	IsAdult     bool   `gorm:"not null;default:false"` // 18+标记，由管理员切换

	// 媒体文件由外部存储负责，这里只存不透明的地址
	VideoURL     string `gorm:"size:512;not null"`
	ThumbnailURL string `gorm:"size:512;not null"`

	// 外键AuthorID和User表的ID
	Author User `gorm:"foreignKey:AuthorID;references:ID"`
}
