package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"FluxTube/internal/model"
)

func TestToCommentResponses_BuildsTree(t *testing.T) {
	alice := model.User{BaseModel: model.BaseModel{ID: 1}, Username: "alice", Avatar: "/a.png"}
	bob := model.User{BaseModel: model.BaseModel{ID: 2}, Username: "bob", Avatar: "/b.png"}

	rootID := uint64(10)
	roots := []model.Comment{
		{BaseModel: model.BaseModel{ID: 11}, VideoID: 5, UserID: 2, Content: "newer root", User: bob},
		{BaseModel: model.BaseModel{ID: rootID}, VideoID: 5, UserID: 1, Content: "older root", User: alice},
	}
	r1 := &model.Comment{BaseModel: model.BaseModel{ID: 12}, VideoID: 5, UserID: 2, Content: "r1", ParentID: &rootID, ReplyToUserID: &alice.ID, User: bob, ReplyToUser: alice}
	r2 := &model.Comment{BaseModel: model.BaseModel{ID: 13}, VideoID: 5, UserID: 1, Content: "r2", ParentID: &rootID, User: alice}

	got := ToCommentResponses(roots, map[uint64][]*model.Comment{rootID: {r1, r2}})

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 11 || len(got[0].Replies) != 0 {
		t.Errorf("first root = %d with %d replies, want 11 with 0", got[0].ID, len(got[0].Replies))
	}
	if got[0].Replies == nil {
		t.Error("Replies is nil, want empty slice for roots")
	}
	replies := got[1].Replies
	if len(replies) != 2 || replies[0].Content != "r1" || replies[1].Content != "r2" {
		t.Fatalf("replies = %+v, want r1 then r2", replies)
	}
	if replies[0].ReplyTo == nil || replies[0].ReplyTo.Username != "alice" {
		t.Errorf("ReplyTo = %+v, want alice", replies[0].ReplyTo)
	}
	if replies[0].Author.Avatar != "/b.png" {
		t.Errorf("Author.Avatar = %q, want %q", replies[0].Author.Avatar, "/b.png")
	}
}

func TestToCommentResponse_WithoutPreload(t *testing.T) {
	c := &model.Comment{BaseModel: model.BaseModel{ID: 1}, UserID: 42, Content: "hi"}
	got := ToCommentResponse(c)
	if got.Author.ID != 42 || got.Author.Username != "" {
		t.Errorf("Author = %+v, want only ID 42", got.Author)
	}
	if got.ReplyTo != nil {
		t.Errorf("ReplyTo = %+v, want nil", got.ReplyTo)
	}
}

func TestToCommentResponses_EmptyRepliesSerialized(t *testing.T) {
	roots := []model.Comment{{BaseModel: model.BaseModel{ID: 1}, VideoID: 5, UserID: 2, Content: "lonely"}}

	raw, err := json.Marshal(ToCommentResponses(roots, nil))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"replies":[]`) {
		t.Errorf("json = %s, want \"replies\":[]", raw)
	}
}
