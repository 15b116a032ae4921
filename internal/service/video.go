package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"FluxTube/internal/data"
	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/pkg/logger"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 200
	defaultFeedLimit = 20
	maxFeedLimit     = 100

	DefaultThumbnail = "/img/default_thumbnail.svg"
)

type CreateVideoInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	IsAdult      bool
}

type VideoService interface {
	CreateVideo(ctx context.Context, authorID uint64, in CreateVideoInput) (*model.Video, error)
	GetFeed(ctx context.Context, limit int) ([]model.Video, error)

	GetVideoByID(ctx context.Context, videoID uint64) (*model.Video, error)
	// viewerID为0表示未登录访客
	GetVideoDetail(ctx context.Context, videoID, viewerID uint64) (*dto.VideoDetailResponse, error)
	DeleteVideo(ctx context.Context, caller model.Caller, videoID uint64) error
}

type videoService struct {
	sf singleflight.Group

	userRepo  repository.UserRepository
	videoRepo repository.VideoRepository
	voteRepo  repository.VoteRepository
	subs      SubscriptionService
	uow       data.UnitOfWork
	broker    realtime.Broker
}

func NewVideoService(userRepo repository.UserRepository, videoRepo repository.VideoRepository, voteRepo repository.VoteRepository, subs SubscriptionService, uow data.UnitOfWork, broker realtime.Broker) VideoService {
	return &videoService{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		voteRepo:  voteRepo,
		subs:      subs,
		uow:       uow,
		broker:    broker,
	}
}

// 上传视频：1、作者要有upload权限 2、标题和媒体地址必填 3、落库 4、往feed推送new_video
func (s *videoService) CreateVideo(ctx context.Context, authorID uint64, in CreateVideoInput) (*model.Video, error) {
	title := strings.TrimSpace(in.Title)
	mediaURL := strings.TrimSpace(in.VideoURL)
	if title == "" || mediaURL == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, ErrInvalidArgument
	}
	author, err := activeUser(ctx, s.userRepo, authorID, model.CapUpload)
	if err != nil {
		return nil, err
	}
	thumbnail := strings.TrimSpace(in.ThumbnailURL)
	if thumbnail == "" {
		thumbnail = DefaultThumbnail
	}

	newVideo := &model.Video{
		AuthorID:     author.ID,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		VideoURL:     mediaURL,
		ThumbnailURL: thumbnail,
		IsAdult:      in.IsAdult,
	}
	if err := s.videoRepo.Create(ctx, newVideo); err != nil {
		return nil, errors.Wrap(err, "视频写入失败")
	}
	newVideo.Author = *author

	publish(ctx, s.broker, realtime.TopicFeed, realtime.Event{
		Type:    realtime.EventNewVideo,
		VideoID: newVideo.ID,
		Data:    dto.ToVideoResponse(newVideo),
	})
	return newVideo, nil
}

// 获取视频Feed流
func (s *videoService) GetFeed(ctx context.Context, limit int) ([]model.Video, error) {
	// 限制limit长度
	if limit <= 0 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	videos, err := s.videoRepo.FindLatest(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "查询视频列表失败")
	}
	return videos, nil
}

// 根据videoID查找视频：1、查找Redis缓存 2、通过SingleFlight进行数据库查找
func (s *videoService) GetVideoByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	logCtx := logger.Log.WithField("video_id", videoID)

	video, err := s.videoRepo.GetVideoCache(ctx, videoID)
	if err == nil && video != nil {
		logCtx.Debug("视频缓存命中")
		return video, nil
	}
	// Redis本身出错了，记日志后回源数据库
	if err != nil {
		logCtx.WithError(err).Warn("读取视频缓存失败")
	}
	// 缓存未命中，通过SingleFlight查找，同一时间同一个视频只有一个请求打到数据库
	key := fmt.Sprintf("get_video_%d", videoID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		dbVideo, dbErr := s.videoRepo.FindByID(ctx, videoID)
		if dbErr != nil {
			return nil, dbErr
		}
		// 查询成功后，将返回的dbVideo写回缓存
		if cacheErr := s.videoRepo.SetVideoCache(ctx, dbVideo); cacheErr != nil {
			logCtx.WithError(cacheErr).Warn("写入视频缓存失败")
		}
		return dbVideo, nil
	})
	if err != nil {
		return nil, notFound(err, ErrVideoNotFound, "查询视频失败")
	}
	// 返回值是interface{}结构，需要断言
	return result.(*model.Video), nil
}

// 播放页：视频本身走缓存，赞踩数和订阅数每次现算
func (s *videoService) GetVideoDetail(ctx context.Context, videoID, viewerID uint64) (*dto.VideoDetailResponse, error) {
	video, err := s.GetVideoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	tally, err := s.voteRepo.CountByVideo(ctx, videoID)
	if err != nil {
		return nil, errors.Wrap(err, "统计投票失败")
	}
	// 赠送订阅数可能刚被管理员改过，不用缓存里的作者
	author, err := s.userRepo.FindByID(ctx, video.AuthorID)
	if err != nil {
		return nil, notFound(err, ErrVideoNotFound, "查询视频作者失败")
	}
	subscriberCount, err := s.subs.DisplayedSubscriberCount(ctx, author)
	if err != nil {
		return nil, err
	}

	resp := &dto.VideoDetailResponse{
		Video:           dto.ToVideoResponse(video),
		Likes:           tally.Likes,
		Dislikes:        tally.Dislikes,
		SubscriberCount: subscriberCount,
		MyVote:          model.VoteNone,
	}
	resp.Video.Author = dto.ToUserInfo(author)
	if viewerID == 0 {
		return resp, nil
	}

	resp.IsSubscribed, err = s.subs.IsSubscribed(ctx, viewerID, author.ID)
	if err != nil {
		return nil, err
	}
	vote, err := s.voteRepo.Find(ctx, viewerID, videoID)
	switch {
	case err == nil:
		resp.MyVote = vote.Type
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "查询投票状态失败")
	}
	return resp, nil
}

// 删除视频：作者本人或者有moderate权限的人，投票、评论和视频在同一个事务里删掉
func (s *videoService) DeleteVideo(ctx context.Context, caller model.Caller, videoID uint64) error {
	actor, err := activeUser(ctx, s.userRepo, caller.UserID, "")
	if err != nil {
		return err
	}
	err = s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		video, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID)
		if err != nil {
			return notFound(err, ErrVideoNotFound, "查询视频失败")
		}
		if video.AuthorID != actor.ID && !actor.Role.Can(model.CapModerate) {
			return ErrForbidden
		}
		return deleteVideos(ctx, repos, []uint64{videoID})
	})
	if err != nil {
		return err
	}
	if err := s.videoRepo.DeleteVideoCache(ctx, videoID); err != nil {
		logger.Log.WithError(err).WithField("video_id", videoID).Warn("视频缓存失效失败")
	}
	return nil
}
