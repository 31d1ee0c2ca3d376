package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FergusFettes/llm-head/internal/errs"
	"github.com/FergusFettes/llm-head/internal/safedb"
	"github.com/FergusFettes/llm-head/internal/schema"
)

func openTestDB(t *testing.T) *safedb.DB {
	t.Helper()
	raw, err := schema.OpenDB(filepath.Join(t.TempDir(), "logs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = raw.Close() })
	if err := schema.Migrate(raw); err != nil {
		t.Fatal(err)
	}
	return safedb.New(raw)
}

func mustCreate(t *testing.T, db *safedb.DB, nr NewResponse) Response {
	t.Helper()
	r, err := Create(context.Background(), db, nr)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := mustCreate(t, db, NewResponse{Prompt: "2+2?", Text: "4", Model: "test-model"})
	if r.ID == "" {
		t.Fatal("Create returned empty id")
	}
	if r.CreatedAt == "" {
		t.Fatal("Create returned empty datetime")
	}

	got, err := Get(ctx, db, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Prompt != "2+2?" || got.Text != "4" || got.Model != "test-model" {
		t.Fatalf("got %+v", got)
	}
	if got.ParentID != "" {
		t.Fatalf("root has parent %q", got.ParentID)
	}
}

func TestGetNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := Get(context.Background(), db, "nonexistent")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateDanglingParent(t *testing.T) {
	db := openTestDB(t)

	_, err := Create(context.Background(), db, NewResponse{ParentID: "ghost", Prompt: "?"})
	if !errors.Is(err, errs.ErrDanglingParent) {
		t.Fatalf("err = %v, want ErrDanglingParent", err)
	}
}

func TestParentOf(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	root := mustCreate(t, db, NewResponse{Prompt: "root"})
	child := mustCreate(t, db, NewResponse{ParentID: root.ID, Prompt: "child"})

	parent, ok, err := ParentOf(ctx, db, child.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || parent != root.ID {
		t.Fatalf("parent = %q ok=%v, want %q", parent, ok, root.ID)
	}

	_, ok, err = ParentOf(ctx, db, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("root reported a parent")
	}
}

// Responses recorded before head tracking have no parent_id; the parent is
// inferred chronologically within the conversation.
func TestParentOfChronologicalFallback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := EnsureConversation(ctx, db, Conversation{ID: "c1"}); err != nil {
		t.Fatal(err)
	}
	for i, r := range []struct{ id, at string }{
		{"old1", "2024-01-01T00:00:01Z"},
		{"old2", "2024-01-01T00:00:02Z"},
	} {
		_, err := db.ExecContext(ctx,
			"INSERT INTO responses (id, conversation_id, datetime_utc) VALUES (?, 'c1', ?)",
			r.id, r.at)
		if err != nil {
			t.Fatalf("insert legacy row %d: %v", i, err)
		}
	}

	parent, ok, err := ParentOf(ctx, db, "old2")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || parent != "old1" {
		t.Fatalf("parent = %q ok=%v, want old1", parent, ok)
	}

	_, ok, err = ParentOf(ctx, db, "old1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("earliest legacy row reported a parent")
	}
}

func TestChildrenOfOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	root := mustCreate(t, db, NewResponse{Prompt: "root"})
	first := mustCreate(t, db, NewResponse{ParentID: root.ID, Prompt: "first"})
	second := mustCreate(t, db, NewResponse{ParentID: root.ID, Prompt: "second"})
	third := mustCreate(t, db, NewResponse{ParentID: root.ID, Prompt: "third"})

	children, err := ChildrenOf(ctx, db, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{first.ID, second.ID, third.ID}
	if len(children) != len(want) {
		t.Fatalf("got %d children, want %d", len(children), len(want))
	}
	for i := range want {
		if children[i] != want[i] {
			t.Fatalf("children[%d] = %q, want %q", i, children[i], want[i])
		}
	}
}

func TestChildrenOfLeaf(t *testing.T) {
	db := openTestDB(t)

	leaf := mustCreate(t, db, NewResponse{Prompt: "leaf"})
	children, err := ChildrenOf(context.Background(), db, leaf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 0 {
		t.Fatalf("leaf has %d children", len(children))
	}
}

func TestDepth(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	a := mustCreate(t, db, NewResponse{Prompt: "a"})
	b := mustCreate(t, db, NewResponse{ParentID: a.ID, Prompt: "b"})
	c := mustCreate(t, db, NewResponse{ParentID: b.ID, Prompt: "c"})

	for _, tt := range []struct {
		id   string
		want int
	}{{a.ID, 0}, {b.ID, 1}, {c.ID, 2}} {
		depth, err := Depth(ctx, db, tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if depth != tt.want {
			t.Fatalf("Depth(%s) = %d, want %d", tt.id, depth, tt.want)
		}
	}
}

// Every node created through the store reaches a root in at most as many
// steps as nodes exist: acyclicity by construction.
func TestAcyclicity(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	parent := ""
	var ids []string
	for i := 0; i < 10; i++ {
		r := mustCreate(t, db, NewResponse{ParentID: parent, Prompt: "step"})
		ids = append(ids, r.ID)
		parent = r.ID
	}

	for i, id := range ids {
		steps := 0
		current := id
		for {
			p, ok, err := ParentOf(ctx, db, current)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				break
			}
			steps++
			if steps > len(ids) {
				t.Fatalf("walk from %s did not terminate", id)
			}
			current = p
		}
		if steps != i {
			t.Fatalf("walk from node %d took %d steps, want %d", i, steps, i)
		}
	}
}

func TestConversations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := EnsureConversation(ctx, db, Conversation{ID: "c1", Name: "maths", Model: "m"}); err != nil {
		t.Fatal(err)
	}
	// Ensure is idempotent and keeps the original name
	if err := EnsureConversation(ctx, db, Conversation{ID: "c1", Name: "other"}); err != nil {
		t.Fatal(err)
	}

	c, err := GetConversation(ctx, db, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "maths" {
		t.Fatalf("name = %q, want maths", c.Name)
	}

	_, err = GetConversation(ctx, db, "c2")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMostRecentActiveConversation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, ok, err := MostRecentActiveConversation(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("empty store reported an active conversation")
	}

	for _, c := range []string{"c1", "c2"} {
		if err := EnsureConversation(ctx, db, Conversation{ID: c}); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate(t, db, NewResponse{ConversationID: "c1", Prompt: "older"})
	mustCreate(t, db, NewResponse{ConversationID: "c2", Prompt: "newer"})

	id, ok, err := MostRecentActiveConversation(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || id != "c2" {
		t.Fatalf("got %q ok=%v, want c2", id, ok)
	}
}

func TestListConversations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, c := range []string{"c1", "c2"} {
		if err := EnsureConversation(ctx, db, Conversation{ID: c}); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate(t, db, NewResponse{ConversationID: "c1", Prompt: "one"})
	mustCreate(t, db, NewResponse{ConversationID: "c1", Prompt: "two"})
	mustCreate(t, db, NewResponse{ConversationID: "c2", Prompt: "three"})

	list, err := ListConversations(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d conversations, want 2", len(list))
	}
	// c2 has the latest response, so it sorts first
	if list[0].ID != "c2" || list[1].ID != "c1" {
		t.Fatalf("order = %s, %s", list[0].ID, list[1].ID)
	}
	if list[1].Responses != 2 {
		t.Fatalf("c1 responses = %d, want 2", list[1].Responses)
	}
}

func TestResponsesInConversation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := EnsureConversation(ctx, db, Conversation{ID: "c1"}); err != nil {
		t.Fatal(err)
	}
	a := mustCreate(t, db, NewResponse{ConversationID: "c1", Prompt: "a"})
	b := mustCreate(t, db, NewResponse{ConversationID: "c1", ParentID: a.ID, Prompt: "b"})

	rs, err := ResponsesInConversation(ctx, db, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 || rs[0].ID != a.ID || rs[1].ID != b.ID {
		t.Fatalf("got %d responses in wrong order", len(rs))
	}
}
