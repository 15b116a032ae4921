package service

import (
	"context"
	"errors"
	"testing"

	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
)

// 造一个被很多数据引用的用户：自己的视频上有别人的投票和评论，自己也在别人视频下投票、评论、被回复，还有双向订阅
func seedTroll(t *testing.T, env *testEnv) (troll, alice *model.User, aliceVideo *model.Video) {
	t.Helper()
	ctx := context.Background()
	troll = env.user(t, "troll", model.RoleCreator)
	alice = env.user(t, "alice", model.RoleCreator)
	trollVideo := env.video(t, troll.ID, "spam")
	aliceVideo = env.video(t, alice.ID, "clip")

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := env.votes.CastVote(ctx, alice.ID, trollVideo.ID, model.VoteDislike)
	must(err)
	_, err = env.comments.AddComment(ctx, alice.ID, trollVideo.ID, "no", nil)
	must(err)
	_, err = env.votes.CastVote(ctx, troll.ID, aliceVideo.ID, model.VoteDislike)
	must(err)
	trollComment, err := env.comments.AddComment(ctx, troll.ID, aliceVideo.ID, "bad", nil)
	must(err)
	_, err = env.comments.AddComment(ctx, alice.ID, aliceVideo.ID, "why", ptr(trollComment.ID))
	must(err)
	_, err = env.subs.ToggleSubscription(ctx, troll.ID, alice.ID)
	must(err)
	_, err = env.subs.ToggleSubscription(ctx, alice.ID, troll.ID)
	must(err)
	return troll, alice, aliceVideo
}

func assertPurged(t *testing.T, env *testEnv, userID uint64, keptVideo *model.Video) {
	t.Helper()
	checks := []struct {
		name  string
		model interface{}
		query string
	}{
		{"videos", &model.Video{}, "author_id = ?"},
		{"votes", &model.Vote{}, "user_id = ?"},
		{"comments", &model.Comment{}, "user_id = ?"},
		{"replies to user", &model.Comment{}, "reply_to_user_id = ?"},
		{"subscriptions", &model.Subscription{}, "subscriber_id = ? OR channel_id = ?"},
	}
	for _, c := range checks {
		args := []interface{}{userID}
		if c.name == "subscriptions" {
			args = append(args, userID)
		}
		if n := env.count(t, c.model, c.query, args...); n != 0 {
			t.Errorf("%s left = %d, want 0", c.name, n)
		}
	}
	// 不属于被清理用户的视频和其他数据要留下
	if n := env.count(t, &model.Video{}, "id = ?", keptVideo.ID); n != 1 {
		t.Errorf("unrelated video rows = %d, want 1", n)
	}
	if n := env.count(t, &model.Vote{}, "video_id IN (SELECT id FROM videos WHERE deleted_at IS NOT NULL)"); n != 0 {
		t.Errorf("votes on deleted videos = %d, want 0", n)
	}
	if n := env.count(t, &model.Comment{}, "video_id IN (SELECT id FROM videos WHERE deleted_at IS NOT NULL)"); n != 0 {
		t.Errorf("comments on deleted videos = %d, want 0", n)
	}
}

func TestBlockUser_InlinePurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	troll, _, aliceVideo := seedTroll(t, env)

	if err := env.moderation(nil).BlockUser(ctx, model.Caller{UserID: mod.ID, Role: model.RoleModerator}, troll.ID); err != nil {
		t.Fatalf("BlockUser() error = %v", err)
	}
	got, err := env.userRepo.FindByID(ctx, troll.ID)
	if err != nil || !got.Blocked {
		t.Fatalf("troll = %+v, %v, want blocked", got, err)
	}
	assertPurged(t, env, troll.ID, aliceVideo)
}

func TestBlockUser_QueuesPurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	troll, _, aliceVideo := seedTroll(t, env)
	jobs := &fakeJobs{}
	moderation := env.moderation(jobs)

	if err := moderation.BlockUser(ctx, model.Caller{UserID: mod.ID}, troll.ID); err != nil {
		t.Fatalf("BlockUser() error = %v", err)
	}
	if len(jobs.msgs) != 1 {
		t.Fatalf("queued jobs = %d, want 1", len(jobs.msgs))
	}
	if msg, ok := jobs.msgs[0].(PurgeMessage); !ok || msg.UserID != troll.ID {
		t.Errorf("job = %#v, want PurgeMessage for %d", jobs.msgs[0], troll.ID)
	}
	// 清理是异步的，投递成功时数据还在
	if n := env.count(t, &model.Video{}, "author_id = ?", troll.ID); n != 1 {
		t.Errorf("troll videos before purge = %d, want 1", n)
	}

	// 消费者拿到消息后执行的就是PurgeUser
	if err := moderation.PurgeUser(ctx, troll.ID); err != nil {
		t.Fatalf("PurgeUser() error = %v", err)
	}
	assertPurged(t, env, troll.ID, aliceVideo)
}

func TestBlockUser_PublishFailureFallsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	troll, _, aliceVideo := seedTroll(t, env)

	jobs := &fakeJobs{err: errors.New("broker down")}
	if err := env.moderation(jobs).BlockUser(ctx, model.Caller{UserID: mod.ID}, troll.ID); err != nil {
		t.Fatalf("BlockUser() error = %v", err)
	}
	assertPurged(t, env, troll.ID, aliceVideo)
}

func TestBlockUser_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	creator := env.user(t, "creator", model.RoleCreator)
	moderation := env.moderation(nil)

	tests := []struct {
		name   string
		actor  model.Caller
		target uint64
		want   error
	}{
		{"creator cannot block", model.Caller{UserID: creator.ID, Role: model.RoleModerator}, mod.ID, ErrForbidden},
		{"moderator cannot block self", model.Caller{UserID: mod.ID}, mod.ID, ErrForbidden},
		{"unknown target", model.Caller{UserID: mod.ID}, 9999, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := moderation.BlockUser(ctx, tt.actor, tt.target)
			if !errors.Is(err, tt.want) {
				t.Errorf("BlockUser() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPurgeUser_SkipsUnblocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	env.video(t, alice.ID, "clip")

	if err := env.moderation(nil).PurgeUser(ctx, alice.ID); err != nil {
		t.Fatalf("PurgeUser() error = %v", err)
	}
	if n := env.count(t, &model.Video{}, "author_id = ?", alice.ID); n != 1 {
		t.Errorf("videos = %d, want 1", n)
	}
	if err := env.moderation(nil).PurgeUser(ctx, 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("PurgeUser(unknown) error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestGrantBonusSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	alice := env.user(t, "alice", model.RoleCreator)
	moderation := env.moderation(nil)
	actor := model.Caller{UserID: mod.ID}

	if _, err := env.subs.ToggleSubscription(ctx, mod.ID, alice.ID); err != nil {
		t.Fatalf("ToggleSubscription() error = %v", err)
	}
	shown, err := moderation.GrantBonusSubscribers(ctx, actor, alice.ID, 100)
	if err != nil {
		t.Fatalf("GrantBonusSubscribers() error = %v", err)
	}
	if shown != 101 {
		t.Errorf("displayed = %d, want 101", shown)
	}
	if rows := env.count(t, &model.Subscription{}, "channel_id = ?", alice.ID); rows != 1 {
		t.Errorf("subscription rows = %d, want 1", rows)
	}

	if _, err := moderation.GrantBonusSubscribers(ctx, actor, alice.ID, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GrantBonusSubscribers(0) error = %v, want %v", err, ErrInvalidArgument)
	}
	if _, err := moderation.GrantBonusSubscribers(ctx, model.Caller{UserID: alice.ID}, alice.ID, 5); !errors.Is(err, ErrForbidden) {
		t.Errorf("GrantBonusSubscribers(creator) error = %v, want %v", err, ErrForbidden)
	}
}

func TestSetAdultFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	moderation := env.moderation(nil)
	sub := env.hub.Subscribe(realtime.VideoTopic(video.ID))
	defer sub.Close()

	if err := moderation.SetAdultFlag(ctx, model.Caller{UserID: mod.ID}, video.ID, true); err != nil {
		t.Fatalf("SetAdultFlag() error = %v", err)
	}
	got, err := env.videos.GetVideoByID(ctx, video.ID)
	if err != nil || !got.IsAdult {
		t.Errorf("video = %+v, %v, want adult", got, err)
	}
	ev, ok := nextEvent(sub)
	if !ok || ev.Type != realtime.EventAdultFlagUpdate {
		t.Fatalf("event = %+v, %v, want adult_flag_update", ev, ok)
	}
	if update := ev.Data.(realtime.AdultFlagUpdate); !update.IsAdult {
		t.Errorf("update = %+v, want is_adult true", update)
	}

	if err := moderation.SetAdultFlag(ctx, model.Caller{UserID: mod.ID}, 9999, true); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("SetAdultFlag(unknown) error = %v, want %v", err, ErrVideoNotFound)
	}
	if err := moderation.SetAdultFlag(ctx, model.Caller{UserID: alice.ID}, video.ID, false); !errors.Is(err, ErrForbidden) {
		t.Errorf("SetAdultFlag(creator) error = %v, want %v", err, ErrForbidden)
	}
}

func TestSetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mod := env.user(t, "mod", model.RoleModerator)
	alice := env.user(t, "alice", model.RoleCreator)
	moderation := env.moderation(nil)
	actor := model.Caller{UserID: mod.ID}

	if err := moderation.SetRole(ctx, actor, alice.ID, model.RoleViewer); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	if _, err := env.videos.CreateVideo(ctx, alice.ID, CreateVideoInput{Title: "t", VideoURL: "/v.mp4"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("CreateVideo(after demotion) error = %v, want %v", err, ErrForbidden)
	}
	if err := moderation.SetRole(ctx, actor, alice.ID, model.Role("root")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SetRole(invalid) error = %v, want %v", err, ErrInvalidArgument)
	}
	if err := moderation.SetRole(ctx, actor, mod.ID, model.RoleViewer); !errors.Is(err, ErrForbidden) {
		t.Errorf("SetRole(self demotion) error = %v, want %v", err, ErrForbidden)
	}
}
