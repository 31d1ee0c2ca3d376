// Package store is the durable node store: response rows, their parent
// links, and the conversations that group them. All functions take a
// Querier so the navigator can scope a whole operation to one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/FergusFettes/llm-head/internal/errs"
	"github.com/FergusFettes/llm-head/internal/identity"
)

// Querier is the subset of database/sql needed by store operations.
// Satisfied by *sql.Tx and *safedb.DB.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Response is one prompt/response exchange. ParentID is empty for a root.
// Everything except ID, ParentID, ConversationID and CreatedAt is opaque
// payload owned by the content collaborator.
type Response struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	CreatedAt      string `json:"datetime_utc"`
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	System         string `json:"system,omitempty"`
	PromptJSON     string `json:"prompt_json,omitempty"`
	OptionsJSON    string `json:"options_json,omitempty"`
	Text           string `json:"response,omitempty"`
	ResponseJSON   string `json:"response_json,omitempty"`
	DurationMS     int64  `json:"duration_ms,omitempty"`
	InputTokens    int64  `json:"input_tokens,omitempty"`
	OutputTokens   int64  `json:"output_tokens,omitempty"`
	TokenDetails   string `json:"token_details,omitempty"`
}

// NewResponse is the payload for Create. ID and CreatedAt are allocated by
// the store; ParentID and ConversationID are set by the navigator.
type NewResponse struct {
	ConversationID string
	ParentID       string
	Model          string
	Prompt         string
	System         string
	PromptJSON     string
	OptionsJSON    string
	Text           string
	ResponseJSON   string
	DurationMS     int64
	InputTokens    int64
	OutputTokens   int64
	TokenDetails   string
}

const responseColumns = `id, conversation_id, parent_id, datetime_utc, model, prompt, system,
	prompt_json, options_json, response, response_json, duration_ms, input_tokens, output_tokens, token_details`

// timeLayout is RFC 3339 with a fixed-width 9-digit fraction. The fixed
// width keeps lexical string comparison equivalent to chronological
// comparison, which the sibling-ordering queries rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Create durably inserts one response row and returns it with its
// allocated id. Fails with ErrDanglingParent when ParentID references a
// response that does not exist.
func Create(ctx context.Context, q Querier, nr NewResponse) (Response, error) {
	if nr.ParentID != "" {
		ok, err := Exists(ctx, q, nr.ParentID)
		if err != nil {
			return Response{}, err
		}
		if !ok {
			return Response{}, fmt.Errorf("create response: parent %s: %w", nr.ParentID, errs.ErrDanglingParent)
		}
	}

	r := Response{
		ID:             identity.NewResponseID(),
		ConversationID: nr.ConversationID,
		ParentID:       nr.ParentID,
		CreatedAt:      time.Now().UTC().Format(timeLayout),
		Model:          nr.Model,
		Prompt:         nr.Prompt,
		System:         nr.System,
		PromptJSON:     nr.PromptJSON,
		OptionsJSON:    nr.OptionsJSON,
		Text:           nr.Text,
		ResponseJSON:   nr.ResponseJSON,
		DurationMS:     nr.DurationMS,
		InputTokens:    nr.InputTokens,
		OutputTokens:   nr.OutputTokens,
		TokenDetails:   nr.TokenDetails,
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO responses (`+responseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullable(r.ConversationID), nullable(r.ParentID), r.CreatedAt,
		nullable(r.Model), nullable(r.Prompt), nullable(r.System),
		nullable(r.PromptJSON), nullable(r.OptionsJSON), nullable(r.Text),
		nullable(r.ResponseJSON), r.DurationMS, r.InputTokens, r.OutputTokens,
		nullable(r.TokenDetails),
	)
	if err != nil {
		return Response{}, errs.Classify(fmt.Errorf("insert response: %w", err))
	}

	return r, nil
}

// Get fetches a response by id. Fails with ErrNotFound when absent.
func Get(ctx context.Context, q Querier, id string) (Response, error) {
	row := q.QueryRowContext(ctx, `SELECT `+responseColumns+` FROM responses WHERE id = ?`, id)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, fmt.Errorf("response %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Response{}, errs.Classify(fmt.Errorf("get response %s: %w", id, err))
	}
	return r, nil
}

// Exists reports whether a response with the given id exists.
func Exists(ctx context.Context, q Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM responses WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.Classify(fmt.Errorf("check response %s: %w", id, err))
	}
	return true, nil
}

// ParentOf returns the parent id of a response, or ok=false for a root.
// Responses recorded before head tracking may have a NULL parent_id; for
// those the parent is the latest earlier response in the same
// conversation, matching how such rows were originally chained.
func ParentOf(ctx context.Context, q Querier, id string) (string, bool, error) {
	r, err := Get(ctx, q, id)
	if err != nil {
		return "", false, err
	}
	if r.ParentID != "" {
		return r.ParentID, true, nil
	}
	if r.ConversationID == "" {
		return "", false, nil
	}

	var parent string
	err = q.QueryRowContext(ctx, `
		SELECT id FROM responses
		WHERE conversation_id = ? AND datetime_utc < ?
		ORDER BY datetime_utc DESC, id DESC
		LIMIT 1`, r.ConversationID, r.CreatedAt).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Classify(fmt.Errorf("chronological parent of %s: %w", id, err))
	}
	return parent, true, nil
}

// ChildrenOf returns the ids of all responses whose parent is id, ordered
// chronologically. Ids tie-break the ordering; they are monotonic ULIDs,
// so the result is stable.
func ChildrenOf(ctx context.Context, q Querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM responses
		WHERE parent_id = ?
		ORDER BY datetime_utc ASC, id ASC`, id)
	if err != nil {
		return nil, errs.Classify(fmt.Errorf("children of %s: %w", id, err))
	}
	defer func() { _ = rows.Close() }()

	var children []string
	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, child)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Classify(fmt.Errorf("iterate children: %w", err))
	}
	return children, nil
}

// Depth returns the number of parent links between a response and its
// root. A root has depth 0. The chronological fallback in ParentOf always
// moves strictly earlier in time, so the walk terminates.
func Depth(ctx context.Context, q Querier, id string) (int, error) {
	depth := 0
	current := id
	for {
		parent, ok, err := ParentOf(ctx, q, current)
		if err != nil {
			return 0, err
		}
		if !ok {
			return depth, nil
		}
		depth++
		current = parent
	}
}

// scanner abstracts *sql.Row and *sql.Rows for scanResponse.
type scanner interface {
	Scan(dest ...any) error
}

func scanResponse(s scanner) (Response, error) {
	var r Response
	var conv, parent, model, prompt, system, promptJSON, optionsJSON, text, responseJSON, tokenDetails sql.NullString
	var durationMS, inputTokens, outputTokens sql.NullInt64

	err := s.Scan(
		&r.ID, &conv, &parent, &r.CreatedAt, &model, &prompt, &system,
		&promptJSON, &optionsJSON, &text, &responseJSON,
		&durationMS, &inputTokens, &outputTokens, &tokenDetails,
	)
	if err != nil {
		return Response{}, err
	}

	r.ConversationID = conv.String
	r.ParentID = parent.String
	r.Model = model.String
	r.Prompt = prompt.String
	r.System = system.String
	r.PromptJSON = promptJSON.String
	r.OptionsJSON = optionsJSON.String
	r.Text = text.String
	r.ResponseJSON = responseJSON.String
	r.DurationMS = durationMS.Int64
	r.InputTokens = inputTokens.Int64
	r.OutputTokens = outputTokens.Int64
	r.TokenDetails = tokenDetails.String
	return r, nil
}

// nullable maps "" to NULL so optional columns stay NULL in storage.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
