package service

import (
	"context"

	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type SubscriptionService interface {
	// 订阅/取关切换
	ToggleSubscription(ctx context.Context, subscriberID, channelID uint64) (*dto.SubscriptionResponse, error)
	// 真实订阅数，只数subscriptions表的行
	SubscriberCount(ctx context.Context, channelID uint64) (uint64, error)
	// 展示用的订阅数：真实订阅数加上管理员赠送的数量
	DisplayedSubscriberCount(ctx context.Context, channel *model.User) (uint64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID uint64) (bool, error)
}

type subscriptionService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
}

func NewSubscriptionService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{userRepo: userRepo, subRepo: subRepo}
}

// 订阅切换：1、拒绝订阅自己 2、确认双方都存在且未被封禁 3、有就删，没有就插 4、返回新的状态和订阅数
func (s *subscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelID uint64) (*dto.SubscriptionResponse, error) {
	if subscriberID == channelID {
		return nil, ErrSelfSubscription
	}
	if _, err := activeUser(ctx, s.userRepo, subscriberID, ""); err != nil {
		return nil, err
	}
	channel, err := s.userRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "查询频道失败")
	}
	if channel.Blocked {
		return nil, ErrUserNotFound
	}

	subscribed, err := s.subRepo.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return nil, errors.Wrap(err, "查询订阅关系失败")
	}
	if subscribed {
		if err := s.subRepo.Delete(ctx, subscriberID, channelID); err != nil {
			return nil, errors.Wrap(err, "取消订阅失败")
		}
		subscribed = false
	} else {
		err := s.subRepo.Create(ctx, &model.Subscription{SubscriberID: subscriberID, ChannelID: channelID})
		// 并发的另一次请求已经插入了，结果一样是“已订阅”
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(err, "订阅失败")
		}
		subscribed = true
	}

	count, err := s.DisplayedSubscriberCount(ctx, channel)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{
		ChannelID:       channelID,
		IsSubscribed:    subscribed,
		SubscriberCount: count,
	}, nil
}

func (s *subscriptionService) SubscriberCount(ctx context.Context, channelID uint64) (uint64, error) {
	count, err := s.subRepo.CountByChannel(ctx, channelID)
	if err != nil {
		return 0, errors.Wrap(err, "统计订阅数失败")
	}
	return count, nil
}

func (s *subscriptionService) DisplayedSubscriberCount(ctx context.Context, channel *model.User) (uint64, error) {
	count, err := s.SubscriberCount(ctx, channel.ID)
	if err != nil {
		return 0, err
	}
	return count + channel.BonusSubscribers, nil
}

func (s *subscriptionService) IsSubscribed(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	if subscriberID == 0 || subscriberID == channelID {
		return false, nil
	}
	ok, err := s.subRepo.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return false, errors.Wrap(err, "查询订阅关系失败")
	}
	return ok, nil
}
