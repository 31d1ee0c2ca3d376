package cli

import (
	"context"

	"github.com/FergusFettes/llm-head/internal/conversation"
	"github.com/FergusFettes/llm-head/internal/safedb"
	"github.com/FergusFettes/llm-head/internal/schema"
	"github.com/FergusFettes/llm-head/internal/store"
)

// LogOptions selects what the log and tree commands render.
type LogOptions struct {
	ConversationID string // empty: most recently active
	Width          int    // 0: auto-detect
}

// LogResult is the result of the log and tree commands.
type LogResult struct {
	Found          bool   `json:"found"`
	ConversationID string `json:"conversation_id,omitempty"`
	HeadID         string `json:"head_id,omitempty"`
	Text           string `json:"text,omitempty"`
}

// Log renders the root-to-head transcript of a conversation.
func Log(ctx context.Context, db *safedb.DB, opts LogOptions) (LogResult, error) {
	l, ok, err := conversation.Load(ctx, db, opts.ConversationID)
	if err != nil {
		return LogResult{}, err
	}
	if !ok {
		return LogResult{}, nil
	}
	return LogResult{
		Found:          true,
		ConversationID: l.Conversation.ID,
		HeadID:         l.HeadID,
		Text:           conversation.FormatTranscript(l),
	}, nil
}

// Tree renders the full branch structure of a conversation.
func Tree(ctx context.Context, db *safedb.DB, opts LogOptions) (LogResult, error) {
	l, ok, err := conversation.Load(ctx, db, opts.ConversationID)
	if err != nil {
		return LogResult{}, err
	}
	if !ok {
		return LogResult{}, nil
	}
	return LogResult{
		Found:          true,
		ConversationID: l.Conversation.ID,
		HeadID:         l.HeadID,
		Text:           conversation.FormatTree(l, opts.Width),
	}, nil
}

// ConversationsResult is the result of the conversations command.
type ConversationsResult struct {
	Conversations []store.ConversationSummary `json:"conversations"`
}

// Conversations lists all conversations, most recently active first.
func Conversations(ctx context.Context, db *safedb.DB) (ConversationsResult, error) {
	list, err := store.ListConversations(ctx, db)
	if err != nil {
		return ConversationsResult{}, err
	}
	return ConversationsResult{Conversations: list}, nil
}

// BackfillResult is the result of the backfill command.
type BackfillResult struct {
	Updated int `json:"updated"`
}

// Backfill persists inferred parent links for responses recorded before
// head tracking existed.
func Backfill(db *safedb.DB) (BackfillResult, error) {
	updated, err := schema.BackfillParentIDs(db.Raw())
	if err != nil {
		return BackfillResult{}, err
	}
	return BackfillResult{Updated: updated}, nil
}
