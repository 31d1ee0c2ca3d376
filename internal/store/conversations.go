package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/FergusFettes/llm-head/internal/errs"
)

// Conversation groups a tree of responses.
type Conversation struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Model string `json:"model,omitempty"`
}

// ConversationSummary is a Conversation plus aggregate activity data.
type ConversationSummary struct {
	Conversation
	Responses  int    `json:"responses"`
	LastActive string `json:"last_active,omitempty"`
}

// EnsureConversation inserts a conversation row if it does not exist yet.
// Existing rows are left untouched (name and model are set at creation).
func EnsureConversation(ctx context.Context, q Querier, c Conversation) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversations (id, name, model) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, nullable(c.Name), nullable(c.Model),
	)
	if err != nil {
		return errs.Classify(fmt.Errorf("ensure conversation %s: %w", c.ID, err))
	}
	return nil
}

// GetConversation fetches a conversation by id. Fails with ErrNotFound
// when absent.
func GetConversation(ctx context.Context, q Querier, id string) (Conversation, error) {
	var c Conversation
	var name, model sql.NullString
	err := q.QueryRowContext(ctx, "SELECT id, name, model FROM conversations WHERE id = ?", id).
		Scan(&c.ID, &name, &model)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, fmt.Errorf("conversation %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Conversation{}, errs.Classify(fmt.Errorf("get conversation %s: %w", id, err))
	}
	c.Name = name.String
	c.Model = model.String
	return c, nil
}

// ListConversations returns all conversations with response counts,
// most recently active first.
func ListConversations(ctx context.Context, q Querier) ([]ConversationSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name, c.model, COUNT(r.id), COALESCE(MAX(r.datetime_utc), '')
		FROM conversations c
		LEFT JOIN responses r ON r.conversation_id = c.id
		GROUP BY c.id
		ORDER BY MAX(r.datetime_utc) DESC`)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("list conversations: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var out []ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		var name, model sql.NullString
		if err := rows.Scan(&s.ID, &name, &model, &s.Responses, &s.LastActive); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		s.Name = name.String
		s.Model = model.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Classify(fmt.Errorf("iterate conversations: %w", err))
	}
	return out, nil
}

// ResponsesInConversation returns every response of a conversation,
// ordered chronologically.
func ResponsesInConversation(ctx context.Context, q Querier, conversationID string) ([]Response, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+responseColumns+` FROM responses
		WHERE conversation_id = ?
		ORDER BY datetime_utc ASC, id ASC`, conversationID)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("responses in conversation %s: %w", conversationID, err))
	}
	defer func() { _ = rows.Close() }()

	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Classify(fmt.Errorf("iterate responses: %w", err))
	}
	return out, nil
}

// MostRecentActiveConversation returns the conversation with the latest
// response, or ok=false when the store has no responses at all.
func MostRecentActiveConversation(ctx context.Context, q Querier) (string, bool, error) {
	var id sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT conversation_id
		FROM responses
		WHERE conversation_id IS NOT NULL
		GROUP BY conversation_id
		ORDER BY MAX(datetime_utc) DESC
		LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Classify(fmt.Errorf("most recent conversation: %w", err))
	}
	return id.String, id.Valid, nil
}
