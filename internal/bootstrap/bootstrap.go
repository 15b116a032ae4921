package bootstrap

import (
	"time"

	"FluxTube/internal/data"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Repositories 是所有仓库加上绑定了它们的工作单元
type Repositories struct {
	User         repository.UserRepository
	Video        repository.VideoRepository
	Vote         repository.VoteRepository
	Comment      repository.CommentRepository
	Subscription repository.SubscriptionRepository
	UoW          data.UnitOfWork
}

// rdb可以为nil，视频缓存随之关闭
func NewRepositories(db *gorm.DB, rdb *redis.Client) *Repositories {
	r := &Repositories{
		User:         repository.NewUserRepository(db),
		Video:        repository.NewVideoRepository(db, rdb),
		Vote:         repository.NewVoteRepository(db),
		Comment:      repository.NewCommentRepository(db),
		Subscription: repository.NewSubscriptionRepository(db),
	}
	r.UoW = data.NewUnitOfWork(db, data.TransactionalRepositories{
		UserRepo:         r.User,
		VideoRepo:        r.Video,
		VoteRepo:         r.Vote,
		CommentRepo:      r.Comment,
		SubscriptionRepo: r.Subscription,
	})
	return r
}

type Services struct {
	User         service.UserService
	Video        service.VideoService
	Vote         service.VoteService
	Comment      service.CommentService
	Subscription service.SubscriptionService
	View         service.ViewService
	Moderation   service.ModerationService
}

type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	MarkerTTL time.Duration
	// 以下都可以为nil：没有标记存储时每次播放都计数，没有任务队列时同步清理，没有broker时不推送
	Markers repository.ViewMarkerStore
	Jobs    service.JobPublisher
	Broker  realtime.Broker
}

func NewServices(repos *Repositories, opts Options) *Services {
	subs := service.NewSubscriptionService(repos.User, repos.Subscription)
	return &Services{
		User:         service.NewUserService(repos.User, repos.Video, subs, opts.JWTSecret, opts.TokenTTL),
		Video:        service.NewVideoService(repos.User, repos.Video, repos.Vote, subs, repos.UoW, opts.Broker),
		Vote:         service.NewVoteService(repos.User, repos.Vote, repos.UoW, opts.Broker),
		Comment:      service.NewCommentService(repos.User, repos.Video, repos.Comment, opts.Broker),
		Subscription: subs,
		View:         service.NewViewService(repos.Video, opts.Markers, opts.MarkerTTL, opts.Broker),
		Moderation:   service.NewModerationService(repos.User, repos.Video, subs, repos.UoW, opts.Jobs, opts.Broker),
	}
}
