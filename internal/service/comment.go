package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"

	"github.com/pkg/errors"
)

const maxCommentLength = 2000

type CommentService interface {
	// 发表评论，parentID为nil是一级评论，否则是对一级评论的回复
	AddComment(ctx context.Context, userID, videoID uint64, content string, parentID *uint64) (*dto.CommentResponse, error)
	// 获取一个视频的评论树，pageSize<=0表示全部一级评论
	ListComments(ctx context.Context, videoID uint64, page, pageSize int) ([]dto.CommentResponse, error)
}

type commentService struct {
	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	commentRepo repository.CommentRepository
	broker      realtime.Broker
}

func NewCommentService(userRepo repository.UserRepository, videoRepo repository.VideoRepository, commentRepo repository.CommentRepository, broker realtime.Broker) CommentService {
	return &commentService{
		userRepo:    userRepo,
		videoRepo:   videoRepo,
		commentRepo: commentRepo,
		broker:      broker,
	}
}

// 发表评论：1、校验内容、用户和视频 2、有父评论时，父评论必须是同一视频下的一级评论 3、落库后带着作者信息再查出来 4、推送new_comment
func (s *commentService) AddComment(ctx context.Context, userID, videoID uint64, content string, parentID *uint64) (*dto.CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	if _, err := activeUser(ctx, s.userRepo, userID, model.CapComment); err != nil {
		return nil, err
	}
	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, errors.Wrap(err, "查询视频失败")
	}
	if !exists {
		return nil, ErrVideoNotFound
	}

	newComment := &model.Comment{
		UserID:  userID,
		VideoID: videoID,
		Content: content,
	}
	if parentID != nil {
		parent, err := s.commentRepo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, notFound(err, ErrCommentNotFound, "查询父评论失败")
		}
		if parent.VideoID != videoID {
			return nil, ErrParentMismatch
		}
		// 只支持一层回复，回复的回复直接拒绝
		if !parent.IsRoot() {
			return nil, ErrReplyDepth
		}
		newComment.ParentID = &parent.ID
		newComment.ReplyToUserID = &parent.UserID
	}

	if err := s.commentRepo.Create(ctx, newComment); err != nil {
		return nil, errors.Wrap(err, "评论写入失败")
	}
	// 创建成功后，立刻把它带着关联数据再查出来，作者名和头像不存进评论表
	comment, err := s.commentRepo.FindByID(ctx, newComment.ID)
	if err != nil {
		return nil, errors.Wrap(err, "查询新评论失败")
	}

	resp := dto.ToCommentResponse(comment)
	publish(ctx, s.broker, realtime.VideoTopic(videoID), realtime.Event{
		Type:    realtime.EventNewComment,
		VideoID: videoID,
		Data:    dto.NewCommentEvent{VideoID: videoID, Comment: resp},
	})
	return &resp, nil
}

// 获取视频的评论列表：1、计算分页参数 2、查询一级评论 3、一次性查出这些一级评论的全部回复 4、在内存里挂载成树
func (s *commentService) ListComments(ctx context.Context, videoID uint64, page, pageSize int) ([]dto.CommentResponse, error) {
	exists, err := s.videoRepo.Exists(ctx, videoID)
	if err != nil {
		return nil, errors.Wrap(err, "查询视频失败")
	}
	if !exists {
		return nil, ErrVideoNotFound
	}

	if page < 1 {
		page = 1
	}
	offset := 0
	if pageSize > 0 {
		// offset: “跳过”多少条记录，再开始取数据
		offset = (page - 1) * pageSize
	}
	parentComments, err := s.commentRepo.GetCommentsByVideoID(ctx, videoID, offset, pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "查询一级评论失败")
	}
	if len(parentComments) == 0 {
		return []dto.CommentResponse{}, nil
	}

	parentIDs := make([]uint64, 0, len(parentComments))
	for _, pc := range parentComments {
		parentIDs = append(parentIDs, pc.ID)
	}
	replies, err := s.commentRepo.GetRepliesByParentIDs(ctx, parentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "查询回复失败")
	}
	replyMap := make(map[uint64][]*model.Comment)
	for i := range replies {
		reply := &replies[i]
		if reply.ParentID != nil {
			replyMap[*reply.ParentID] = append(replyMap[*reply.ParentID], reply)
		}
	}
	return dto.ToCommentResponses(parentComments, replyMap), nil
}
