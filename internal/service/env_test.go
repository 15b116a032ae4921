package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FluxTube/internal/data"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
	"FluxTube/internal/repository"
	"FluxTube/internal/testutil"

	"gorm.io/gorm"
)

// 内存版的播放标记，fail为true时模拟Redis不可用
type memMarkerStore struct {
	mu      sync.Mutex
	markers map[string]bool
	seq     int
	fail    bool
}

func newMemMarkerStore() *memMarkerStore {
	return &memMarkerStore{markers: make(map[string]bool)}
}

func (m *memMarkerStore) key(videoID uint64, marker string) string {
	return fmt.Sprintf("%d:%s", videoID, marker)
}

func (m *memMarkerStore) Seen(_ context.Context, videoID uint64, marker string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false, errors.New("redis down")
	}
	return m.markers[m.key(videoID, marker)], nil
}

func (m *memMarkerStore) Issue(_ context.Context, videoID uint64, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", errors.New("redis down")
	}
	m.seq++
	marker := fmt.Sprintf("marker-%d", m.seq)
	m.markers[m.key(videoID, marker)] = true
	return marker, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	msgs []interface{}
	err  error
}

func (f *fakeJobs) Publish(_ context.Context, msg interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type testEnv struct {
	db  *gorm.DB
	hub *realtime.Hub

	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	voteRepo    repository.VoteRepository
	commentRepo repository.CommentRepository
	subRepo     repository.SubscriptionRepository
	uow         data.UnitOfWork

	votes    VoteService
	comments CommentService
	subs     SubscriptionService
	users    UserService
	videos   VideoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	hub := realtime.NewHub()

	env := &testEnv{
		db:          db,
		hub:         hub,
		userRepo:    repository.NewUserRepository(db),
		videoRepo:   repository.NewVideoRepository(db, nil),
		voteRepo:    repository.NewVoteRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		subRepo:     repository.NewSubscriptionRepository(db),
	}
	env.uow = data.NewUnitOfWork(db, data.TransactionalRepositories{
		UserRepo:         env.userRepo,
		VideoRepo:        env.videoRepo,
		VoteRepo:         env.voteRepo,
		CommentRepo:      env.commentRepo,
		SubscriptionRepo: env.subRepo,
	})
	env.votes = NewVoteService(env.userRepo, env.voteRepo, env.uow, hub)
	env.comments = NewCommentService(env.userRepo, env.videoRepo, env.commentRepo, hub)
	env.subs = NewSubscriptionService(env.userRepo, env.subRepo)
	env.users = NewUserService(env.userRepo, env.videoRepo, env.subs, "test-secret", time.Hour)
	env.videos = NewVideoService(env.userRepo, env.videoRepo, env.voteRepo, env.subs, env.uow, hub)
	return env
}

func (e *testEnv) moderation(jobs JobPublisher) ModerationService {
	return NewModerationService(e.userRepo, e.videoRepo, e.subs, e.uow, jobs, e.hub)
}

func (e *testEnv) user(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	return testutil.CreateUser(t, e.db, name, role)
}

func (e *testEnv) video(t *testing.T, authorID uint64, title string) *model.Video {
	t.Helper()
	return testutil.CreateVideo(t, e.db, authorID, title)
}

func (e *testEnv) count(t *testing.T, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// 非阻塞地取一条事件，没有就返回false
func nextEvent(sub *realtime.Subscription) (realtime.Event, bool) {
	select {
	case ev := <-sub.C:
		return ev, true
	default:
		return realtime.Event{}, false
	}
}
