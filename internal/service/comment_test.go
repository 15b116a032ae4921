package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"FluxTube/internal/dto"
	"FluxTube/internal/model"
	"FluxTube/internal/realtime"
)

func ptr(v uint64) *uint64 { return &v }

func TestAddComment_RootAndReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	bob := env.user(t, "bob", model.RoleViewer)
	video := env.video(t, alice.ID, "clip")

	sub := env.hub.Subscribe(realtime.VideoTopic(video.ID))
	defer sub.Close()

	root, err := env.comments.AddComment(ctx, alice.ID, video.ID, "  first!  ", nil)
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if root.Content != "first!" {
		t.Errorf("Content = %q, want %q", root.Content, "first!")
	}
	if root.Author.Username != "alice" || root.Author.Avatar != model.DefaultAvatar {
		t.Errorf("Author = %+v, want alice with default avatar", root.Author)
	}
	if root.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *root.ParentID)
	}

	ev, ok := nextEvent(sub)
	if !ok || ev.Type != realtime.EventNewComment {
		t.Fatalf("event = %+v, %v, want new_comment", ev, ok)
	}
	payload, ok := ev.Data.(dto.NewCommentEvent)
	if !ok || payload.Comment.ID != root.ID || payload.VideoID != video.ID {
		t.Errorf("event data = %#v, want comment %d", ev.Data, root.ID)
	}

	reply, err := env.comments.AddComment(ctx, bob.ID, video.ID, "reply", ptr(root.ID))
	if err != nil {
		t.Fatalf("AddComment(reply) error = %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != root.ID {
		t.Errorf("reply ParentID = %v, want %d", reply.ParentID, root.ID)
	}
	if reply.ReplyTo == nil || reply.ReplyTo.ID != alice.ID {
		t.Errorf("reply ReplyTo = %+v, want alice", reply.ReplyTo)
	}
}

func TestAddComment_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	other := env.video(t, alice.ID, "other")

	root, err := env.comments.AddComment(ctx, alice.ID, video.ID, "root", nil)
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	reply, err := env.comments.AddComment(ctx, alice.ID, video.ID, "reply", ptr(root.ID))
	if err != nil {
		t.Fatalf("AddComment(reply) error = %v", err)
	}

	tests := []struct {
		name    string
		userID  uint64
		videoID uint64
		content string
		parent  *uint64
		want    error
	}{
		{"empty", alice.ID, video.ID, "   \n\t", nil, ErrEmptyComment},
		{"too long", alice.ID, video.ID, strings.Repeat("评", maxCommentLength+1), nil, ErrCommentTooLong},
		{"unknown video", alice.ID, 9999, "hi", nil, ErrVideoNotFound},
		{"unknown user", 9999, video.ID, "hi", nil, ErrUserNotFound},
		{"missing parent", alice.ID, video.ID, "hi", ptr(9999), ErrCommentNotFound},
		{"parent on other video", alice.ID, other.ID, "hi", ptr(root.ID), ErrParentMismatch},
		{"reply to reply", alice.ID, video.ID, "hi", ptr(reply.ID), ErrReplyDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.comments.AddComment(ctx, tt.userID, tt.videoID, tt.content, tt.parent)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddComment() error = %v, want %v", err, tt.want)
			}
		})
	}

	// 正好2000个字符是允许的
	if _, err := env.comments.AddComment(ctx, alice.ID, video.ID, strings.Repeat("评", maxCommentLength), nil); err != nil {
		t.Errorf("AddComment(max length) error = %v", err)
	}
}

func TestListComments_Ordering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	bob := env.user(t, "bob", model.RoleViewer)
	video := env.video(t, alice.ID, "clip")

	c1, _ := env.comments.AddComment(ctx, alice.ID, video.ID, "c1", nil)
	c2, _ := env.comments.AddComment(ctx, bob.ID, video.ID, "c2", nil)
	r1, _ := env.comments.AddComment(ctx, bob.ID, video.ID, "r1", ptr(c1.ID))
	r2, _ := env.comments.AddComment(ctx, alice.ID, video.ID, "r2", ptr(c1.ID))

	got, err := env.comments.ListComments(ctx, video.ID, 1, 0)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(got))
	}
	if got[0].ID != c2.ID || got[1].ID != c1.ID {
		t.Errorf("roots = [%d %d], want [%d %d]", got[0].ID, got[1].ID, c2.ID, c1.ID)
	}
	if len(got[0].Replies) != 0 {
		t.Errorf("c2 replies = %d, want 0", len(got[0].Replies))
	}
	replies := got[1].Replies
	if len(replies) != 2 || replies[0].ID != r1.ID || replies[1].ID != r2.ID {
		t.Errorf("c1 replies = %+v, want [%d %d]", replies, r1.ID, r2.ID)
	}
}

func TestListComments_Paging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice", model.RoleCreator)
	video := env.video(t, alice.ID, "clip")
	for _, text := range []string{"a", "b", "c"} {
		if _, err := env.comments.AddComment(ctx, alice.ID, video.ID, text, nil); err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
	}

	page2, err := env.comments.ListComments(ctx, video.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListComments() error = %v", err)
	}
	if len(page2) != 1 || page2[0].Content != "a" {
		t.Errorf("page 2 = %+v, want only the oldest comment", page2)
	}

	empty := env.video(t, alice.ID, "quiet")
	none, err := env.comments.ListComments(ctx, empty.ID, 1, 10)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ListComments(empty) = %v, %v, want empty non-nil slice", none, err)
	}

	if _, err := env.comments.ListComments(ctx, 9999, 1, 10); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("ListComments(unknown) error = %v, want %v", err, ErrVideoNotFound)
	}
}
