package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"FluxTube/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB 为每个测试打开一个独立的内存SQLite库并完成迁移
// 连接池只留一个连接：内存库跟着连接走，而且可以避开共享缓存下的表锁
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.User{}, &model.Video{}, &model.Vote{}, &model.Comment{}, &model.Subscription{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser 直接落一行用户数据，密码不是真正的哈希，只用于不走登录的测试
func CreateUser(t testing.TB, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Username: username, Password: "x", Avatar: model.DefaultAvatar, Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func CreateVideo(t testing.TB, db *gorm.DB, authorID uint64, title string) *model.Video {
	t.Helper()
	video := &model.Video{
		AuthorID:     authorID,
		Title:        title,
		VideoURL:     "/uploads/" + title + ".mp4",
		ThumbnailURL: "/uploads/" + title + ".jpg",
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("create video %s: %v", title, err)
	}
	return video
}
