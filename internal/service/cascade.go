package service

import (
	"context"

	"FluxTube/internal/data"

	"github.com/pkg/errors"
)

// 删除一批视频以及挂在上面的投票和评论，必须在同一个事务里调用
func deleteVideos(ctx context.Context, repos *data.TransactionalRepositories, videoIDs []uint64) error {
	if len(videoIDs) == 0 {
		return nil
	}
	if err := repos.VoteRepo.DeleteByVideoIDs(ctx, videoIDs); err != nil {
		return errors.Wrap(err, "删除视频投票失败")
	}
	if err := repos.CommentRepo.DeleteByVideoIDs(ctx, videoIDs); err != nil {
		return errors.Wrap(err, "删除视频评论失败")
	}
	if err := repos.VideoRepo.DeleteByIDs(ctx, videoIDs); err != nil {
		return errors.Wrap(err, "删除视频失败")
	}
	return nil
}
