package repository

import (
	"context"

	"FluxTube/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Exists(ctx context.Context, subscriberID, channelID uint64) (bool, error)
	Create(ctx context.Context, sub *model.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID uint64) error
	// 订阅数不落冗余列，每次按行数现算
	CountByChannel(ctx context.Context, channelID uint64) (uint64, error)
	// 用户作为订阅者和作为频道的两种行都删掉
	DeleteByUserID(ctx context.Context, userID uint64) error

	WithTx(tx *gorm.DB) SubscriptionRepository
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) Exists(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) Delete(ctx context.Context, subscriberID, channelID uint64) error {
	return r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&model.Subscription{}).Error
}

func (r *subscriptionRepository) CountByChannel(ctx context.Context, channelID uint64) (uint64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("channel_id = ?", channelID).Count(&count).Error
	return uint64(count), err
}

func (r *subscriptionRepository) DeleteByUserID(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("subscriber_id = ? OR channel_id = ?", userID, userID).
		Delete(&model.Subscription{}).Error
}
