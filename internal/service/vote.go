package service

import (
	"context"

	"FluxTube/internal/data"
	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/pkg/logger"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type VoteService interface {
	// 赞/踩切换：没投过就投，投过同样的就撤销，投过另一种就改过来
	CastVote(ctx context.Context, userID, videoID uint64, voteType model.VoteType) (*dto.VoteResponse, error)
	GetTally(ctx context.Context, videoID uint64) (repository.VoteTally, error)
	// 没有投票返回model.VoteNone
	GetUserVote(ctx context.Context, userID, videoID uint64) (model.VoteType, error)
}

type voteService struct {
	userRepo repository.UserRepository
	voteRepo repository.VoteRepository
	uow      data.UnitOfWork
	broker   realtime.Broker
}

func NewVoteService(userRepo repository.UserRepository, voteRepo repository.VoteRepository, uow data.UnitOfWork, broker realtime.Broker) VoteService {
	return &voteService{
		userRepo: userRepo,
		voteRepo: voteRepo,
		uow:      uow,
		broker:   broker,
	}
}

// 投票：1、校验类型和用户 2、事务里锁住(user, video)这一行，插入/删除/改类型 3、提交后按行现数赞踩 4、推送给正在看这个视频的人
func (s *voteService) CastVote(ctx context.Context, userID, videoID uint64, voteType model.VoteType) (*dto.VoteResponse, error) {
	if !voteType.Valid() {
		return nil, ErrInvalidVoteType
	}
	if _, err := activeUser(ctx, s.userRepo, userID, model.CapVote); err != nil {
		return nil, err
	}

	myVote := model.VoteNone
	err := s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		// 锁住视频行，同一视频上的投票在这里排队
		if _, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID); err != nil {
			return notFound(err, ErrVideoNotFound, "查询视频失败")
		}
		existing, err := repos.VoteRepo.FindForUpdate(ctx, userID, videoID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			myVote = voteType
			return repos.VoteRepo.Create(ctx, &model.Vote{UserID: userID, VideoID: videoID, Type: voteType})
		case err != nil:
			return err
		case existing.Type == voteType:
			// 同样的票再投一次就是撤销，不是错误
			myVote = model.VoteNone
			return repos.VoteRepo.Delete(ctx, userID, videoID)
		default:
			myVote = voteType
			return repos.VoteRepo.UpdateType(ctx, userID, videoID, voteType)
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrVideoNotFound):
			return nil, err
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// 并发下两次插入撞上了联合主键
			return nil, ErrVoteConflict
		}
		return nil, errors.Wrap(err, "投票写入失败")
	}

	// 写入落定之后再数，计数永远来自votes表本身，不做增量维护
	tally, err := s.voteRepo.CountByVideo(ctx, videoID)
	if err != nil {
		return nil, errors.Wrap(err, "统计赞踩失败")
	}

	publish(ctx, s.broker, realtime.VideoTopic(videoID), realtime.Event{
		Type:    realtime.EventVoteUpdate,
		VideoID: videoID,
		Data:    realtime.VoteUpdate{VideoID: videoID, Likes: tally.Likes, Dislikes: tally.Dislikes},
	})
	logger.Log.WithField("user_id", userID).
		WithField("video_id", videoID).
		WithField("my_vote", myVote).
		Debug("投票已处理")

	return &dto.VoteResponse{
		VideoID:  videoID,
		Likes:    tally.Likes,
		Dislikes: tally.Dislikes,
		MyVote:   myVote,
	}, nil
}

func (s *voteService) GetTally(ctx context.Context, videoID uint64) (repository.VoteTally, error) {
	tally, err := s.voteRepo.CountByVideo(ctx, videoID)
	if err != nil {
		return repository.VoteTally{}, errors.Wrap(err, "统计赞踩失败")
	}
	return tally, nil
}

func (s *voteService) GetUserVote(ctx context.Context, userID, videoID uint64) (model.VoteType, error) {
	vote, err := s.voteRepo.Find(ctx, userID, videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.VoteNone, nil
	}
	if err != nil {
		return model.VoteNone, errors.Wrap(err, "查询投票失败")
	}
	return vote.Type, nil
}
