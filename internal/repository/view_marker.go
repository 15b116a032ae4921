package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ViewMarkerStore 保存“这个视频已经被这个客户端计过数”的短期标记
type ViewMarkerStore interface {
	Seen(ctx context.Context, videoID uint64, marker string) (bool, error)
	Issue(ctx context.Context, videoID uint64, ttl time.Duration) (string, error)
}

type redisViewMarkerStore struct {
	rdb *redis.Client
}

func NewViewMarkerStore(rdb *redis.Client) ViewMarkerStore {
	return &redisViewMarkerStore{rdb: rdb}
}

// 标记只对单个视频有效：fluxtube:view:{videoID}:{marker}
func (s *redisViewMarkerStore) key(videoID uint64, marker string) string {
	return fmt.Sprintf("fluxtube:view:%d:%s", videoID, marker)
}

func (s *redisViewMarkerStore) Seen(ctx context.Context, videoID uint64, marker string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(videoID, marker)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// 生成新的随机标记并设置过期时间，过期后同一客户端再看会重新计数
func (s *redisViewMarkerStore) Issue(ctx context.Context, videoID uint64, ttl time.Duration) (string, error) {
	marker := uuid.NewString()
	if err := s.rdb.SetNX(ctx, s.key(videoID, marker), 1, ttl).Err(); err != nil {
		return "", err
	}
	return marker, nil
}
