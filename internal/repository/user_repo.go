package repository

import (
	"context"

	"FluxTube/internal/model"

	"gorm.io/gorm"
)

// 用户仓库接口：增、查，以及管理员用到的几个字段更新
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID uint64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error)

	UpdateAvatar(ctx context.Context, userID uint64, avatar string) error
	SetBlocked(ctx context.Context, userID uint64, blocked bool) error
	SetRole(ctx context.Context, userID uint64, role model.Role) error
	AddBonusSubscribers(ctx context.Context, userID uint64, n uint64) error

	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, userID uint64) (*model.User, error) {
	var result model.User
	if err := r.db.WithContext(ctx).First(&result, userID).Error; err != nil {
		return nil, err // 如果有错（包括没找到），直接返回
	}
	return &result, nil
}

// 根据用户名找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var result model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// 批量查用户，组装成map方便调用方按ID取
func (r *userRepository) FindByIDs(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error) {
	result := make(map[uint64]*model.User, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, userID uint64, avatar string) error {
	return r.updateColumn(ctx, userID, "avatar", avatar)
}

func (r *userRepository) SetBlocked(ctx context.Context, userID uint64, blocked bool) error {
	return r.updateColumn(ctx, userID, "blocked", blocked)
}

func (r *userRepository) SetRole(ctx context.Context, userID uint64, role model.Role) error {
	return r.updateColumn(ctx, userID, "role", role)
}

// UPDATE `users` SET `bonus_subscribers` = `bonus_subscribers` + ? WHERE id = ?
func (r *userRepository) AddBonusSubscribers(ctx context.Context, userID uint64, n uint64) error {
	return r.updateColumn(ctx, userID, "bonus_subscribers", gorm.Expr("bonus_subscribers + ?", n))
}

// 用户不存在统一翻译成ErrRecordNotFound
func (r *userRepository) updateColumn(ctx context.Context, userID uint64, column string, value interface{}) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&model.User{}).Where("id = ?", userID).UpdateColumn(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	// MySQL在值没变化时影响行数也是0，再数一次才能确认是不是真的不存在
	var count int64
	if err := db.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
