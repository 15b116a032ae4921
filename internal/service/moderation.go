package service

import (
	"context"

	"FluxTube/internal/data"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/pkg/logger"

	"github.com/pkg/errors"
)

// PurgeMessage 是投递到清理队列里的消息体
type PurgeMessage struct {
	UserID uint64 `json:"user_id"`
}

// JobPublisher 异步任务的投递方，生产环境是RabbitMQ
type JobPublisher interface {
	Publish(ctx context.Context, msg interface{}) error
}

type ModerationService interface {
	BlockUser(ctx context.Context, actor model.Caller, targetID uint64) error
	// 清理一个已封禁用户留下的全部数据，消费者和同步兜底都走这里
	PurgeUser(ctx context.Context, userID uint64) error
	GrantBonusSubscribers(ctx context.Context, actor model.Caller, channelID, n uint64) (uint64, error)
	SetAdultFlag(ctx context.Context, actor model.Caller, videoID uint64, adult bool) error
	SetRole(ctx context.Context, actor model.Caller, targetID uint64, role model.Role) error
}

type moderationService struct {
	userRepo  repository.UserRepository
	videoRepo repository.VideoRepository
	subs      SubscriptionService
	uow       data.UnitOfWork
	jobs      JobPublisher
	broker    realtime.Broker
}

// jobs为nil时封禁后直接同步清理
func NewModerationService(userRepo repository.UserRepository, videoRepo repository.VideoRepository, subs SubscriptionService, uow data.UnitOfWork, jobs JobPublisher, broker realtime.Broker) ModerationService {
	return &moderationService{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		subs:      subs,
		uow:       uow,
		jobs:      jobs,
		broker:    broker,
	}
}

func (s *moderationService) moderator(ctx context.Context, actor model.Caller) (*model.User, error) {
	return activeUser(ctx, s.userRepo, actor.UserID, model.CapModerate)
}

// 封禁用户：1、只有管理员能封，不能封自己 2、打上blocked标记，之后token里的身份也不再被接受 3、清理任务丢进队列，投递失败就地执行
func (s *moderationService) BlockUser(ctx context.Context, actor model.Caller, targetID uint64) error {
	mod, err := s.moderator(ctx, actor)
	if err != nil {
		return err
	}
	if mod.ID == targetID {
		return ErrForbidden
	}
	if err := s.userRepo.SetBlocked(ctx, targetID, true); err != nil {
		return notFound(err, ErrUserNotFound, "封禁用户失败")
	}

	logCtx := logger.Log.WithField("user_id", targetID).WithField("moderator_id", mod.ID)
	if s.jobs != nil {
		err := s.jobs.Publish(ctx, PurgeMessage{UserID: targetID})
		if err == nil {
			logCtx.Info("用户清理任务已投递")
			return nil
		}
		logCtx.WithError(err).Warn("清理任务投递失败，改为同步清理")
	}
	return s.PurgeUser(ctx, targetID)
}

// 清理用户：他的视频连同上面的投票评论、他自己的投票评论、别人对他评论的回复、他参与的全部订阅关系，一个事务做完
func (s *moderationService) PurgeUser(ctx context.Context, userID uint64) error {
	logCtx := logger.Log.WithField("user_id", userID)

	var videoIDs []uint64
	err := s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		user, err := repos.UserRepo.FindByID(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound, "查询用户失败")
		}
		// 排队期间被解封了就不再清理
		if !user.Blocked {
			logCtx.Info("用户未处于封禁状态，跳过清理")
			return nil
		}
		videoIDs, err = repos.VideoRepo.FindIDsByAuthor(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "查询用户视频失败")
		}
		if err := deleteVideos(ctx, repos, videoIDs); err != nil {
			return err
		}
		if err := repos.VoteRepo.DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "删除用户投票失败")
		}
		if err := repos.CommentRepo.DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "删除用户评论失败")
		}
		if err := repos.SubscriptionRepo.DeleteByUserID(ctx, userID); err != nil {
			return errors.Wrap(err, "删除订阅关系失败")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.videoRepo.DeleteVideoCache(ctx, videoIDs...); err != nil {
		logCtx.WithError(err).Warn("视频缓存失效失败")
	}
	logCtx.WithField("videos", len(videoIDs)).Info("用户数据清理完成")
	return nil
}

// 给频道加赠送订阅数，返回加完之后展示的订阅数
func (s *moderationService) GrantBonusSubscribers(ctx context.Context, actor model.Caller, channelID, n uint64) (uint64, error) {
	if n == 0 {
		return 0, ErrInvalidArgument
	}
	if _, err := s.moderator(ctx, actor); err != nil {
		return 0, err
	}
	if err := s.userRepo.AddBonusSubscribers(ctx, channelID, n); err != nil {
		return 0, notFound(err, ErrUserNotFound, "增加订阅数失败")
	}
	channel, err := s.userRepo.FindByID(ctx, channelID)
	if err != nil {
		return 0, notFound(err, ErrUserNotFound, "查询频道失败")
	}
	return s.subs.DisplayedSubscriberCount(ctx, channel)
}

func (s *moderationService) SetAdultFlag(ctx context.Context, actor model.Caller, videoID uint64, adult bool) error {
	if _, err := s.moderator(ctx, actor); err != nil {
		return err
	}
	if err := s.videoRepo.SetAdult(ctx, videoID, adult); err != nil {
		return notFound(err, ErrVideoNotFound, "更新18+标记失败")
	}
	if err := s.videoRepo.DeleteVideoCache(ctx, videoID); err != nil {
		logger.Log.WithError(err).WithField("video_id", videoID).Warn("视频缓存失效失败")
	}
	publish(ctx, s.broker, realtime.VideoTopic(videoID), realtime.Event{
		Type:    realtime.EventAdultFlagUpdate,
		VideoID: videoID,
		Data:    realtime.AdultFlagUpdate{VideoID: videoID, IsAdult: adult},
	})
	return nil
}

func (s *moderationService) SetRole(ctx context.Context, actor model.Caller, targetID uint64, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidArgument
	}
	mod, err := s.moderator(ctx, actor)
	if err != nil {
		return err
	}
	// 不允许管理员把自己降级，避免系统里一个管理员都没有
	if mod.ID == targetID && role != model.RoleModerator {
		return ErrForbidden
	}
	if err := s.userRepo.SetRole(ctx, targetID, role); err != nil {
		return notFound(err, ErrUserNotFound, "修改角色失败")
	}
	return nil
}
