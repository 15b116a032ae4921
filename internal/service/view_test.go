package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
)

func TestRecordView_MarkerSuppressesRecount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	views := NewViewService(env.videoRepo, newMemMarkerStore(), time.Hour, env.hub)

	sub := env.hub.Subscribe(realtime.VideoTopic(video.ID))
	defer sub.Close()

	first, err := views.RecordView(ctx, video.ID, "")
	if err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	if !first.Counted || first.Views != 1 || first.Marker == "" {
		t.Fatalf("first view = %+v, want counted with a marker", first)
	}
	ev, ok := nextEvent(sub)
	if !ok || ev.Type != realtime.EventViewCountUpdate {
		t.Fatalf("event = %+v, %v, want view_count_update", ev, ok)
	}
	if update := ev.Data.(realtime.ViewCountUpdate); update.Views != 1 {
		t.Errorf("broadcast views = %d, want 1", update.Views)
	}

	again, err := views.RecordView(ctx, video.ID, first.Marker)
	if err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	if again.Counted || again.Views != 1 || again.Marker != first.Marker {
		t.Errorf("repeat view = %+v, want not counted, views 1, same marker", again)
	}
	if _, ok := nextEvent(sub); ok {
		t.Error("repeat view broadcast an update")
	}

	// 别的视频的标记不算数
	other := env.video(t, alice.ID, "other")
	cross, err := views.RecordView(ctx, other.ID, first.Marker)
	if err != nil || !cross.Counted {
		t.Errorf("RecordView(other video) = %+v, %v, want counted", cross, err)
	}
}

func TestRecordView_WithoutMarkerStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	views := NewViewService(env.videoRepo, nil, time.Hour, nil)

	for i := 1; i <= 3; i++ {
		got, err := views.RecordView(ctx, video.ID, "anything")
		if err != nil {
			t.Fatalf("RecordView() error = %v", err)
		}
		if got.Views != uint64(i) || got.Marker != "" {
			t.Errorf("view %d = %+v, want views=%d and no marker", i, got, i)
		}
	}
}

func TestRecordView_MarkerStoreDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	store := newMemMarkerStore()
	store.fail = true
	views := NewViewService(env.videoRepo, store, time.Hour, nil)

	got, err := views.RecordView(ctx, video.ID, "stale")
	if err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	if !got.Counted || got.Views != 1 || got.Marker != "" {
		t.Errorf("RecordView() = %+v, want counted without marker", got)
	}
}

func TestRecordView_UnknownVideo(t *testing.T) {
	env := newTestEnv(t)
	views := NewViewService(env.videoRepo, newMemMarkerStore(), time.Hour, nil)
	if _, err := views.RecordView(context.Background(), 9999, ""); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("RecordView() error = %v, want %v", err, ErrVideoNotFound)
	}
}
