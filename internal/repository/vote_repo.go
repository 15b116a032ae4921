package repository

import (
	"context"

	"FluxTube/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteTally 是一个视频当前的赞/踩总数，永远由votes表现数现算
type VoteTally struct {
	Likes    uint64
	Dislikes uint64
}

type VoteRepository interface {
	Find(ctx context.Context, userID, videoID uint64) (*model.Vote, error)
	FindForUpdate(ctx context.Context, userID, videoID uint64) (*model.Vote, error)
	Create(ctx context.Context, vote *model.Vote) error
	UpdateType(ctx context.Context, userID, videoID uint64, voteType model.VoteType) error
	Delete(ctx context.Context, userID, videoID uint64) error

	CountByVideo(ctx context.Context, videoID uint64) (VoteTally, error)

	DeleteByVideoIDs(ctx context.Context, videoIDs []uint64) error
	DeleteByUserID(ctx context.Context, userID uint64) error

	WithTx(tx *gorm.DB) VoteRepository
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) WithTx(tx *gorm.DB) VoteRepository {
	return &voteRepository{db: tx}
}

// 没有投票返回gorm.ErrRecordNotFound
func (r *voteRepository) Find(ctx context.Context, userID, videoID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// 事务里先锁住这一行再决定插入/删除/改类型
func (r *voteRepository) FindForUpdate(ctx context.Context, userID, videoID uint64) (*model.Vote, error) {
	var vote model.Vote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// 联合主键冲突会被翻译成gorm.ErrDuplicatedKey
func (r *voteRepository) Create(ctx context.Context, vote *model.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *voteRepository) UpdateType(ctx context.Context, userID, videoID uint64, voteType model.VoteType) error {
	return r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Update("type", voteType).Error
}

// votes没有软删除字段，这里就是真正的DELETE
func (r *voteRepository) Delete(ctx context.Context, userID, videoID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Delete(&model.Vote{}).Error
}

// SELECT type, COUNT(*) AS total FROM votes WHERE video_id = ? GROUP BY type
func (r *voteRepository) CountByVideo(ctx context.Context, videoID uint64) (VoteTally, error) {
	var rows []struct {
		Type  model.VoteType
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("type, COUNT(*) AS total").
		Where("video_id = ?", videoID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return VoteTally{}, err
	}
	var tally VoteTally
	for _, row := range rows {
		switch row.Type {
		case model.VoteLike:
			tally.Likes = uint64(row.Total)
		case model.VoteDislike:
			tally.Dislikes = uint64(row.Total)
		}
	}
	return tally, nil
}

func (r *voteRepository) DeleteByVideoIDs(ctx context.Context, videoIDs []uint64) error {
	if len(videoIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("video_id IN ?", videoIDs).Delete(&model.Vote{}).Error
}

func (r *voteRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Vote{}).Error
}
