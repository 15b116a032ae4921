// cmd/seeder/main.go

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"FluxTube/internal/config"
	"FluxTube/internal/model"
	"FluxTube/pkg/database"

	"github.com/go-faker/faker/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	userCount := flag.Int("users", 100, "用户数量")
	videoCount := flag.Int("videos", 500, "视频数量")
	voteCount := flag.Int("votes", 3000, "投票数量")
	commentCount := flag.Int("comments", 2000, "一级评论数量")
	reset := flag.Bool("reset", false, "填充前删除并重建全部表")
	flag.Parse()

	fmt.Println("🚀 开始填充测试数据...")

	// --- 1. 连接数据库，和server读同一份配置 ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("❌ 无法连接到数据库: %v", err)
	}
	fmt.Println("✅ 数据库连接成功!")

	// --- 2. 清理旧数据 (可选) ---
	if *reset {
		fmt.Println("🧹 正在清理旧数据...")
		// 注意：这将删除所有数据！
		if err := db.Migrator().DropTable(&model.Subscription{}, &model.Comment{}, &model.Vote{}, &model.Video{}, &model.User{}); err != nil {
			log.Fatalf("❌ 删除旧表失败: %v", err)
		}
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ 数据库迁移失败: %v", err)
	}
	fmt.Println("✅ 数据库迁移成功!")

	users := seedUsers(db, *userCount)
	videos := seedVideos(db, users, *videoCount)
	seedVotes(db, users, videos, *voteCount)
	seedComments(db, users, videos, *commentCount)
	seedSubscriptions(db, users)

	fmt.Println("🎉🎉🎉 所有测试数据填充完毕! 🎉🎉🎉")
}

// --- 3. 创建用户，第一个用户是管理员 ---
func seedUsers(db *gorm.DB, n int) []model.User {
	fmt.Println("👥 正在创建用户...")
	// 所有用户共用一个密码 "password"，哈希只算一次
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ 密码加密失败: %v", err)
	}

	users := make([]model.User, 0, n)
	for i := 0; i < n; i++ {
		role := model.RoleCreator
		switch {
		case i == 0:
			role = model.RoleModerator
		case i%3 == 0:
			role = model.RoleViewer
		}
		users = append(users, model.User{
			// 加上序号，避免faker生成重名撞上唯一索引
			Username: fmt.Sprintf("%.24s_%d", faker.Username(), i),
			Password: string(hashedPassword),
			Avatar:   model.DefaultAvatar,
			Role:     role,
		})
	}
	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		log.Fatalf("❌ 创建用户失败: %v", err)
	}
	fmt.Printf("✅ 成功创建 %d 个用户! 管理员: %s / password\n", len(users), users[0].Username)
	return users
}

// --- 4. 创建视频，作者只从有上传权限的用户里挑 ---
func seedVideos(db *gorm.DB, users []model.User, n int) []model.Video {
	fmt.Println("🎬 正在创建视频...")
	var authors []model.User
	for _, u := range users {
		if u.Role.Can(model.CapUpload) {
			authors = append(authors, u)
		}
	}
	if len(authors) == 0 || n == 0 {
		return nil
	}

	videos := make([]model.Video, 0, n)
	for i := 0; i < n; i++ {
		author := authors[rand.Intn(len(authors))]
		videos = append(videos, model.Video{
			AuthorID:     author.ID,
			Title:        fmt.Sprintf("%.200s", faker.Sentence()), // 生成一个随机的句子作为标题
			Description:  faker.Paragraph(),                       // 生成一个随机的段落作为简介
			VideoURL:     fmt.Sprintf("https://media.fluxtube.test/videos/%d.mp4", i),
			ThumbnailURL: fmt.Sprintf("https://media.fluxtube.test/thumbs/%d.jpg", i),
			Views:        uint64(rand.Intn(10000)),
			IsAdult:      rand.Intn(20) == 0,
		})
	}
	if err := db.CreateInBatches(&videos, 100).Error; err != nil {
		log.Fatalf("❌ 创建视频失败: %v", err)
	}
	fmt.Printf("✅ 成功创建 %d 个视频!\n", len(videos))
	return videos
}

// --- 5. 随机投票，计数永远是现数的，这里不需要同步任何计数列 ---
func seedVotes(db *gorm.DB, users []model.User, videos []model.Video, n int) {
	if len(videos) == 0 {
		return
	}
	fmt.Println("👍 正在创建随机投票...")
	for i := 0; i < n; i++ {
		voteType := model.VoteLike
		if rand.Intn(4) == 0 {
			voteType = model.VoteDislike
		}
		vote := model.Vote{
			UserID:  users[rand.Intn(len(users))].ID,
			VideoID: videos[rand.Intn(len(videos))].ID,
			Type:    voteType,
		}
		// 联合主键冲突就什么都不做，保证一人一视频最多一票
		db.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
	}
	fmt.Printf("✅ 成功创建(或尝试创建) %d 个随机投票!\n", n)
}

// --- 6. 一级评论，其中一部分带一条回复 ---
func seedComments(db *gorm.DB, users []model.User, videos []model.Video, n int) {
	if len(videos) == 0 {
		return
	}
	fmt.Println("💬 正在创建评论...")
	replies := 0
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		root := model.Comment{
			UserID:  author.ID,
			VideoID: videos[rand.Intn(len(videos))].ID,
			Content: faker.Sentence(),
		}
		if err := db.Create(&root).Error; err != nil {
			log.Fatalf("❌ 创建评论失败: %v", err)
		}
		if rand.Intn(3) != 0 {
			continue
		}
		reply := model.Comment{
			UserID:        users[rand.Intn(len(users))].ID,
			VideoID:       root.VideoID,
			Content:       faker.Sentence(),
			ParentID:      &root.ID,
			ReplyToUserID: &author.ID,
		}
		if err := db.Create(&reply).Error; err != nil {
			log.Fatalf("❌ 创建回复失败: %v", err)
		}
		replies++
	}
	fmt.Printf("✅ 成功创建 %d 条评论和 %d 条回复!\n", n, replies)
}

// --- 7. 订阅关系：每个用户随机订阅几个别的频道 ---
func seedSubscriptions(db *gorm.DB, users []model.User) {
	if len(users) < 2 {
		return
	}
	fmt.Println("🔔 正在创建订阅关系...")
	count := 0
	for _, u := range users {
		n := rand.Intn(6)
		for j := 0; j < n; j++ {
			channel := users[rand.Intn(len(users))]
			if channel.ID == u.ID {
				continue
			}
			sub := model.Subscription{SubscriberID: u.ID, ChannelID: channel.ID}
			if db.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).RowsAffected > 0 {
				count++
			}
		}
	}
	fmt.Printf("✅ 成功创建 %d 条订阅关系!\n", count)
}
