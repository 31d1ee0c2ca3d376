package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.db.Close() })
	return s
}

func TestHeadShowEmpty(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleHeadShow(context.Background(), nil, HeadShowInput{})
	if err != nil {
		t.Fatal(err)
	}
	if out.HeadSet {
		t.Fatalf("empty store reports head: %+v", out)
	}
}

func TestAppendShowBackFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, first, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{
		Prompt: "2+2?", Response: "4", Model: "test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.ParentID != "" {
		t.Fatalf("root has parent %q", first.ParentID)
	}

	_, second, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{
		Prompt: "and doubled?", Response: "8",
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ParentID != first.ResponseID {
		t.Fatalf("parent = %q, want %q", second.ParentID, first.ResponseID)
	}

	_, show, err := s.handleHeadShow(ctx, nil, HeadShowInput{})
	if err != nil {
		t.Fatal(err)
	}
	if !show.HeadSet || show.ResponseID != second.ResponseID || show.Depth != 1 {
		t.Fatalf("show = %+v", show)
	}

	_, back, err := s.handleHeadBack(ctx, nil, HeadBackInput{})
	if err != nil {
		t.Fatal(err)
	}
	if back.ResponseID != first.ResponseID || back.PreviousID != second.ResponseID {
		t.Fatalf("back = %+v", back)
	}
}

func TestHeadSetValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, _, err := s.handleHeadSet(ctx, nil, HeadSetInput{}); err == nil {
		t.Fatal("expected error for missing response_id")
	}
	if _, _, err := s.handleHeadSet(ctx, nil, HeadSetInput{ResponseID: "ghost"}); err == nil {
		t.Fatal("expected error for unknown response_id")
	}
}

func TestAppendValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, _, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{Response: "r"}); err == nil {
		t.Fatal("expected error for missing prompt")
	}
	if _, _, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{Prompt: "p"}); err == nil {
		t.Fatal("expected error for missing response")
	}
}

func TestShowConversationTree(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, root, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{Prompt: "root", Response: "r"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{Prompt: "one", Response: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleHeadBack(ctx, nil, HeadBackInput{}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleAppendResponse(ctx, nil, AppendResponseInput{Prompt: "two", Response: "b"}); err != nil {
		t.Fatal(err)
	}

	_, out, err := s.handleShowConversation(ctx, nil, ShowConversationInput{Tree: true})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Found {
		t.Fatal("conversation not found")
	}
	if !strings.Contains(out.Text, root.ResponseID) {
		t.Fatalf("tree missing root:\n%s", out.Text)
	}
}
