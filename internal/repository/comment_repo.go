package repository

import (
	"context"

	"FluxTube/internal/model"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, commentID uint64) (*model.Comment, error)

	// 分页获取视频的一级评论，limit<=0表示全部
	GetCommentsByVideoID(ctx context.Context, videoID uint64, offset, limit int) ([]model.Comment, error)
	// 根据父评论ID列表，获取二级评论
	GetRepliesByParentIDs(ctx context.Context, parentIDs []uint64) ([]model.Comment, error)

	DeleteByVideoIDs(ctx context.Context, videoIDs []uint64) error
	DeleteByUserID(ctx context.Context, userID uint64) error

	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// WithTx 返回一个新的、使用事务的 commentRepository 实例
func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// 利用commentID找comment，并顺便将结构体中的User和ReplyToUser给Preload进去
func (r *commentRepository) FindByID(ctx context.Context, commentID uint64) (*model.Comment, error) {
	var result model.Comment
	err := r.db.WithContext(ctx).Preload("User").Preload("ReplyToUser").First(&result, commentID).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// 一级评论新的在前，同一时刻创建的按ID倒序，保证顺序稳定
func (r *commentRepository) GetCommentsByVideoID(ctx context.Context, videoID uint64, offset, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	query := r.db.WithContext(ctx).
		Preload("User"). // 预加载评论的作者信息
		Where("video_id = ? AND parent_id IS NULL", videoID).
		Order("created_at desc, id desc")
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	err := query.Find(&comments).Error
	return comments, err
}

// 根据一批父评论ID，获取它们所有的二级评论，按时间正序
func (r *commentRepository) GetRepliesByParentIDs(ctx context.Context, parentIDs []uint64) ([]model.Comment, error) {
	var replies []model.Comment
	if len(parentIDs) == 0 {
		return replies, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("ReplyToUser").
		Where("parent_id IN ?", parentIDs).
		Order("created_at asc, id asc").
		Find(&replies).Error
	return replies, err
}

// 级联清理是物理删除，不留下引用已删除视频/用户的行
func (r *commentRepository) DeleteByVideoIDs(ctx context.Context, videoIDs []uint64) error {
	if len(videoIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().Where("video_id IN ?", videoIDs).Delete(&model.Comment{}).Error
}

// 删除用户的全部评论，以及别人对这些评论的回复
func (r *commentRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	// Unscoped之后拿到的是新实例，不加Session的话前一条语句的条件会带进下一条
	db := r.db.WithContext(ctx).Unscoped().Session(&gorm.Session{})
	var ids []uint64
	if err := db.Model(&model.Comment{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) > 0 {
		if err := db.Where("parent_id IN ?", ids).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
	}
	return db.Where("user_id = ?", userID).Delete(&model.Comment{}).Error
}
