package data

import (
	"context"

	"FluxTube/internal/repository"

	"gorm.io/gorm"
)

// UnitOfWork 定义了我们事务管理器的接口
type UnitOfWork interface {
	// Execute 将一个函数包裹在数据库事务中执行，并为它提供绑定了事务的Repositories
	Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error
}

// TransactionalRepositories 持有所有需要在同一个事务中操作的 Repository
type TransactionalRepositories struct {
	UserRepo         repository.UserRepository
	VideoRepo        repository.VideoRepository
	VoteRepo         repository.VoteRepository
	CommentRepo      repository.CommentRepository
	SubscriptionRepo repository.SubscriptionRepository
}

// db是事务的入口和管理者
type gormUnitOfWork struct {
	db    *gorm.DB
	repos TransactionalRepositories
}

// NewUnitOfWork 创建一个新的、基于GORM的“工作单元”
// 注意，它接收的是原始的、非事务的 repositories
func NewUnitOfWork(db *gorm.DB, repos TransactionalRepositories) UnitOfWork {
	return &gormUnitOfWork{
		db:    db,
		repos: repos,
	}
}

// 契约：fn返回error则回滚，返回nil则提交；fn里只能用传进来的repos，不能再碰外面的db
func (u *gormUnitOfWork) Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 临时创建“一次性”的、绑定了特定事务的Repo副本
		return fn(&TransactionalRepositories{
			UserRepo:         u.repos.UserRepo.WithTx(tx),
			VideoRepo:        u.repos.VideoRepo.WithTx(tx),
			VoteRepo:         u.repos.VoteRepo.WithTx(tx),
			CommentRepo:      u.repos.CommentRepo.WithTx(tx),
			SubscriptionRepo: u.repos.SubscriptionRepo.WithTx(tx),
		})
	})
}
