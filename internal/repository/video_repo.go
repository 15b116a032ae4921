package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"FluxTube/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	FindLatest(ctx context.Context, limit int) ([]model.Video, error)
	FindByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error)
	FindIDsByAuthor(ctx context.Context, authorID uint64) ([]uint64, error)
	FindByID(ctx context.Context, videoID uint64) (*model.Video, error)
	// 带锁的查找
	FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error)
	Exists(ctx context.Context, videoID uint64) (bool, error)

	IncrementViews(ctx context.Context, videoID uint64) (uint64, error)
	SetAdult(ctx context.Context, videoID uint64, adult bool) error
	DeleteByIDs(ctx context.Context, videoIDs []uint64) error

	GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error)
	SetVideoCache(ctx context.Context, video *model.Video) error
	DeleteVideoCache(ctx context.Context, videoIDs ...uint64) error

	WithTx(tx *gorm.DB) VideoRepository
}

type videoRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// rdb可以为nil，此时缓存相关的方法全部退化为空操作
func NewVideoRepository(db *gorm.DB, rdb *redis.Client) VideoRepository {
	return &videoRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个新的、使用事务的实例，事务中不操作Redis
func (r *videoRepository) WithTx(tx *gorm.DB) VideoRepository {
	return &videoRepository{
		db: tx,
	}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// 按时间倒序查询最新的视频列表，预加载作者
func (r *videoRepository) FindLatest(ctx context.Context, limit int) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).Preload("Author").Order("created_at desc, id desc").Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// 频道页：某个作者的全部视频，时间倒序
func (r *videoRepository) FindByAuthor(ctx context.Context, authorID uint64) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at desc, id desc").Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepository) FindIDsByAuthor(ctx context.Context, authorID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&model.Video{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error
	return ids, err
}

// 利用videoID找视频，preload其中的Author结构；缓存由service层负责
func (r *videoRepository) FindByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	if err := r.db.WithContext(ctx).Preload("Author").First(&video, videoID).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	// SELECT * FROM `videos` WHERE `id` = ? LIMIT 1 FOR UPDATE;
	// FOR UPDATE锁的生命周期和事务绑定，SQLite不支持行锁，驱动会直接忽略这个子句
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) Exists(ctx context.Context, videoID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).Count(&count).Error
	return count > 0, err
}

// 播放量+1并返回最新值：UPDATE `videos` SET `views` = `views` + 1 WHERE id = ?
// 自增本身是原子的，读回来的值在并发下可能已经被别人再加过，广播时无所谓
func (r *videoRepository) IncrementViews(ctx context.Context, videoID uint64) (uint64, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.Video{}).Where("id = ?", videoID).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var views []uint64
	if err := db.Model(&model.Video{}).Where("id = ?", videoID).Pluck("views", &views).Error; err != nil {
		return 0, err
	}
	if len(views) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return views[0], nil
}

func (r *videoRepository) SetAdult(ctx context.Context, videoID uint64, adult bool) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.Video{}).Where("id = ?", videoID).UpdateColumn("is_adult", adult)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 值没变化时MySQL也返回0，确认一下是不是真的不存在
		exists, err := r.Exists(ctx, videoID)
		if err != nil {
			return err
		}
		if !exists {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// 软删除，BaseModel里的DeletedAt会被填上
func (r *videoRepository) DeleteByIDs(ctx context.Context, videoIDs []uint64) error {
	if len(videoIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", videoIDs).Delete(&model.Video{}).Error
}

// 返回存储单个视频信息的字符串Key
func (r *videoRepository) keyVideoInfo(videoID uint64) string {
	return fmt.Sprintf("fluxtube:video:info:%d", videoID)
}

// 从Redis缓存中获取单个Video信息：缓存不存在返回(nil, nil)，Redis本身出错才返回error
func (r *videoRepository) GetVideoCache(ctx context.Context, videoID uint64) (*model.Video, error) {
	if r.rdb == nil {
		return nil, nil
	}
	videoJSON, err := r.rdb.Get(ctx, r.keyVideoInfo(videoID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var video model.Video
	if err := json.Unmarshal([]byte(videoJSON), &video); err != nil {
		return nil, err // JSON反序列化失败
	}
	return &video, nil
}

// 将单个视频信息存入Redis缓存
func (r *videoRepository) SetVideoCache(ctx context.Context, video *model.Video) error {
	if r.rdb == nil {
		return nil
	}
	videoJSON, err := json.Marshal(video)
	if err != nil {
		return err
	}
	// 设置过期时间，再加上随机性防止缓存雪崩
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(ctx, r.keyVideoInfo(video.ID), videoJSON, expiration).Err()
}

// 播放量、18+标记变化或视频被删除后让缓存失效，下次读再回源
func (r *videoRepository) DeleteVideoCache(ctx context.Context, videoIDs ...uint64) error {
	if r.rdb == nil || len(videoIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		keys = append(keys, r.keyVideoInfo(id))
	}
	return r.rdb.Del(ctx, keys...).Err()
}
