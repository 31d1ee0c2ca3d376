// Package conversation loads and renders whole conversations: the linear
// transcript seen from the head, and the full branch tree.
package conversation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/FergusFettes/llm-head/internal/head"
	"github.com/FergusFettes/llm-head/internal/store"
)

// Loaded is a conversation with all of its responses and the resolved
// head. HeadID may name a response outside this conversation's transcript
// path; Chain holds the root-to-head path only.
type Loaded struct {
	Conversation store.Conversation
	Responses    []store.Response
	HeadID       string
	Chain        []store.Response
}

// Load fetches a conversation and builds the transcript chain by walking
// parent links from the head. An empty conversationID means "the most
// recently active conversation". When the head points outside the
// conversation (or is unset), the chain starts from the conversation's
// latest response instead.
func Load(ctx context.Context, q store.Querier, conversationID string) (Loaded, bool, error) {
	if conversationID == "" {
		id, ok, err := store.MostRecentActiveConversation(ctx, q)
		if err != nil {
			return Loaded{}, false, err
		}
		if !ok {
			return Loaded{}, false, nil
		}
		conversationID = id
	}

	conv, err := store.GetConversation(ctx, q, conversationID)
	if err != nil {
		return Loaded{}, false, err
	}

	responses, err := store.ResponsesInConversation(ctx, q, conversationID)
	if err != nil {
		return Loaded{}, false, err
	}

	loaded := Loaded{Conversation: conv, Responses: responses}
	if len(responses) == 0 {
		return loaded, true, nil
	}

	byID := make(map[string]store.Response, len(responses))
	for _, r := range responses {
		byID[r.ID] = r
	}

	// Start from the head when it lands inside this conversation,
	// otherwise from the latest response.
	start := responses[len(responses)-1].ID
	if id, ok, err := head.Read(ctx, q); err != nil {
		return Loaded{}, false, err
	} else if ok {
		if _, in := byID[id]; in {
			start = id
		}
	}
	loaded.HeadID = start

	var chain []store.Response
	current := start
	for {
		r, in := byID[current]
		if !in {
			break
		}
		chain = append(chain, r)
		parent, ok, err := store.ParentOf(ctx, q, current)
		if err != nil {
			return Loaded{}, false, err
		}
		if !ok {
			break
		}
		current = parent
	}

	// Walked head-to-root; the transcript reads root-to-head.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	loaded.Chain = chain
	return loaded, true, nil
}

// FormatTranscript renders the root-to-head chain as a numbered
// transcript, marking the head exchange.
func FormatTranscript(l Loaded) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation: %s (%s)\n", l.Conversation.Name, l.Conversation.ID)
	if l.Conversation.Model != "" {
		fmt.Fprintf(&b, "Model: %s\n", l.Conversation.Model)
	}

	for i, r := range l.Chain {
		prefix := ""
		if r.ID == l.HeadID {
			prefix = "→ "
		}
		fmt.Fprintf(&b, "\n%sExchange %d -- %s\n", prefix, i+1, r.ID)
		b.WriteString("Prompt:\n")
		b.WriteString(r.Prompt)
		b.WriteString("\n\nResponse:\n")
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// effectiveParent resolves the parent of r within a loaded conversation:
// the explicit parent link, or for legacy rows the chronologically
// preceding response.
func effectiveParent(r store.Response, ordered []store.Response) string {
	if r.ParentID != "" {
		return r.ParentID
	}
	prev := ""
	for _, o := range ordered {
		if o.ID == r.ID {
			return prev
		}
		prev = o.ID
	}
	return ""
}

// sortResponses orders responses chronologically, id as tie-break.
func sortResponses(rs []store.Response) []store.Response {
	out := make([]store.Response, len(rs))
	copy(out, rs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
