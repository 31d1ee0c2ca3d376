package identity

import (
	"sort"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewResponseIDFormat(t *testing.T) {
	id := NewResponseID()
	if id != strings.ToLower(id) {
		t.Fatalf("id %q is not lowercase", id)
	}
	if _, err := ulid.Parse(id); err != nil {
		t.Fatalf("id %q is not a valid ULID: %v", id, err)
	}
}

func TestNewResponseIDMonotonic(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = NewResponseID()
	}

	if !sort.StringsAreSorted(ids) {
		t.Fatal("ids generated in sequence are not lexically sorted")
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestConversationName(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short", "What is 2+2?", "What is 2+2?"},
		{"multiline", "first line\nsecond line", "first line"},
		{"truncated", strings.Repeat("a", 50), strings.Repeat("a", 32)},
		{"whitespace", "  padded  \nrest", "padded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConversationName(tt.prompt); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
