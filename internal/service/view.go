package service

import (
	"context"
	"time"

	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/pkg/logger"
)

type ViewResult struct {
	VideoID uint64 `json:"video_id"`
	Views   uint64 `json:"views"`
	// Counted为false说明客户端带着有效标记，这次不计数
	Counted bool   `json:"counted"`
	Marker  string `json:"-"`
}

type ViewService interface {
	RecordView(ctx context.Context, videoID uint64, marker string) (*ViewResult, error)
}

type viewService struct {
	videoRepo repository.VideoRepository
	markers   repository.ViewMarkerStore
	markerTTL time.Duration
	broker    realtime.Broker
}

// markers可以为nil，这时每次请求都计数，也不发标记
func NewViewService(videoRepo repository.VideoRepository, markers repository.ViewMarkerStore, markerTTL time.Duration, broker realtime.Broker) ViewService {
	return &viewService{
		videoRepo: videoRepo,
		markers:   markers,
		markerTTL: markerTTL,
		broker:    broker,
	}
}

// 记录一次播放：1、带着这个视频的有效标记就不计数 2、否则原子+1 3、发新标记 4、缓存失效并推送新的播放量
// 这只是防F5刷新的粗粒度手段，清掉标记就能绕过
func (s *viewService) RecordView(ctx context.Context, videoID uint64, marker string) (*ViewResult, error) {
	logCtx := logger.Log.WithField("video_id", videoID)

	if marker != "" && s.markers != nil {
		seen, err := s.markers.Seen(ctx, videoID, marker)
		if err != nil {
			logCtx.WithError(err).Warn("查询播放标记失败，按新播放处理")
		} else if seen {
			video, err := s.videoRepo.FindByID(ctx, videoID)
			if err != nil {
				return nil, notFound(err, ErrVideoNotFound, "查询视频失败")
			}
			return &ViewResult{VideoID: videoID, Views: video.Views, Counted: false, Marker: marker}, nil
		}
	}

	views, err := s.videoRepo.IncrementViews(ctx, videoID)
	if err != nil {
		return nil, notFound(err, ErrVideoNotFound, "播放量更新失败")
	}

	result := &ViewResult{VideoID: videoID, Views: views, Counted: true}
	if s.markers != nil {
		newMarker, err := s.markers.Issue(ctx, videoID, s.markerTTL)
		if err != nil {
			logCtx.WithError(err).Warn("播放标记生成失败")
		} else {
			result.Marker = newMarker
		}
	}

	if err := s.videoRepo.DeleteVideoCache(ctx, videoID); err != nil {
		logCtx.WithError(err).Warn("视频缓存失效失败")
	}
	publish(ctx, s.broker, realtime.VideoTopic(videoID), realtime.Event{
		Type:    realtime.EventViewCountUpdate,
		VideoID: videoID,
		Data:    realtime.ViewCountUpdate{VideoID: videoID, Views: views},
	})
	return result, nil
}
