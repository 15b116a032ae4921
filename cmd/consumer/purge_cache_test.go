package main

import (
	"context"
	"fmt"
	"testing"

	"FluxTube/internal/bootstrap"
	"FluxTube/internal/model"
	"FluxTube/internal/service"
	"FluxTube/internal/testutil"
	"FluxTube/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// server读过的视频进了缓存，消费者清理之后server再读必须拿不到
func TestPurgeInvalidatesServerCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	db := testutil.NewDB(t)
	ctx := context.Background()

	troll := testutil.CreateUser(t, db, "troll", model.RoleCreator)
	video := testutil.CreateVideo(t, db, troll.ID, "spam")

	serverRepos := bootstrap.NewRepositories(db, rdb)
	server := bootstrap.NewServices(serverRepos, bootstrap.Options{})
	if _, err := server.Video.GetVideoByID(ctx, video.ID); err != nil {
		t.Fatalf("GetVideoByID() error = %v", err)
	}
	cacheKey := fmt.Sprintf("fluxtube:video:info:%d", video.ID)
	if !mr.Exists(cacheKey) {
		t.Fatalf("cache key %q missing after read", cacheKey)
	}

	if err := serverRepos.User.SetBlocked(ctx, troll.ID, true); err != nil {
		t.Fatalf("SetBlocked() error = %v", err)
	}
	body := []byte(fmt.Sprintf(`{"user_id":%d}`, troll.ID))
	if got := handlePurge(ctx, newPurger(db, rdb), body, logger.Log.WithField("test", t.Name())); got != outcomeAck {
		t.Fatalf("handlePurge() = %v, want %v", got, outcomeAck)
	}

	if mr.Exists(cacheKey) {
		t.Errorf("cache key %q still present after purge", cacheKey)
	}
	if _, err := server.Video.GetVideoByID(ctx, video.ID); !errors.Is(err, service.ErrVideoNotFound) {
		t.Errorf("GetVideoByID() after purge error = %v, want %v", err, service.ErrVideoNotFound)
	}
}
