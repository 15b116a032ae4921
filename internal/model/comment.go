package model

type Comment struct {
	BaseModel
	VideoID uint64 `gorm:"not null;index"` // index索引，加速基于该列的查询、过滤和排序
	UserID  uint64 `gorm:"not null;index"`
	Content string `gorm:"type:text;not null"`
	// 指针*uint64的零值是nil，这样就可以区分是一级评论还是二级评论
	ParentID      *uint64 `gorm:"index"`
	ReplyToUserID *uint64

	User        User `gorm:"foreignKey:UserID"`
	ReplyToUser User `gorm:"foreignKey:ReplyToUserID"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}
