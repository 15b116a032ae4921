package service

import (
	"context"

	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/pkg/logger"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// 业务错误，handler层按errors.Is映射成HTTP状态码，Error()的内容可以直接展示给用户
var (
	ErrInvalidArgument    = errors.New("无效的参数")
	ErrForbidden          = errors.New("没有权限执行该操作")
	ErrUserBlocked        = errors.New("用户已被封禁")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrVideoNotFound      = errors.New("视频不存在")
	ErrCommentNotFound    = errors.New("评论不存在")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")

	ErrInvalidVoteType = errors.New("无效的投票类型")
	ErrVoteConflict    = errors.New("投票冲突，请重试")

	ErrEmptyComment   = errors.New("评论内容不能为空")
	ErrCommentTooLong = errors.New("评论内容过长")
	ErrParentMismatch = errors.New("回复的评论不属于该视频")
	ErrReplyDepth     = errors.New("不能对二级评论进行回复")

	ErrSelfSubscription = errors.New("不能订阅自己")
)

// 把gorm的“没找到”翻译成具体的业务错误，其他错误带上上下文往上抛
func notFound(err error, sentinel error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

// activeUser 取出一个可操作的用户：存在、未被封禁，并且(如果给了)拥有对应权限
// 角色以数据库为准，不信任token里可能已经过期的角色
func activeUser(ctx context.Context, userRepo repository.UserRepository, userID uint64, capability model.Capability) (*model.User, error) {
	user, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "查询用户失败")
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}
	if capability != "" && !user.Role.Can(capability) {
		return nil, ErrForbidden
	}
	return user, nil
}

// 广播是尽力而为的，失败只记日志，不影响已经成功的写操作
func publish(ctx context.Context, broker realtime.Broker, topic string, ev realtime.Event) {
	if broker == nil {
		return
	}
	if err := broker.Publish(ctx, topic, ev); err != nil {
		logger.Log.WithError(err).WithField("topic", topic).WithField("event", ev.Type).Warn("实时事件推送失败")
	}
}
