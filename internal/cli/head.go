package cli

import (
	"context"

	"github.com/FergusFettes/llm-head/internal/navigator"
	"github.com/FergusFettes/llm-head/internal/safedb"
	"github.com/FergusFettes/llm-head/internal/store"
)

// ShowResult is the result of the show command.
type ShowResult struct {
	HeadSet        bool   `json:"head_set"`
	ID             string `json:"id,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Depth          int    `json:"depth"`
	Prompt         string `json:"prompt,omitempty"`
	Response       string `json:"response,omitempty"`
}

// Show reports the current head and its content. An unset head is a valid
// result ("no conversation yet"), not an error.
func Show(ctx context.Context, db *safedb.DB) (ShowResult, error) {
	nav := navigator.New(db)
	pos, err := nav.Show(ctx)
	if err != nil {
		return ShowResult{}, err
	}
	if !pos.Head {
		return ShowResult{}, nil
	}

	r, err := store.Get(ctx, db, pos.ID)
	if err != nil {
		return ShowResult{}, err
	}
	return ShowResult{
		HeadSet:        true,
		ID:             pos.ID,
		ParentID:       pos.ParentID,
		ConversationID: pos.ConversationID,
		Depth:          pos.Depth,
		Prompt:         r.Prompt,
		Response:       r.Text,
	}, nil
}

// BackResult is the result of the back command.
type BackResult struct {
	ID         string `json:"id"`
	PreviousID string `json:"previous_id"`
}

// Back moves the head to its parent.
func Back(ctx context.Context, db *safedb.DB) (BackResult, error) {
	res, err := navigator.New(db).Back(ctx)
	if err != nil {
		return BackResult{}, err
	}
	return BackResult{ID: res.ID, PreviousID: res.PreviousID}, nil
}

// SetResult is the result of the set command.
type SetResult struct {
	ID             string `json:"id"`
	ParentID       string `json:"parent_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Depth          int    `json:"depth"`
}

// Set points the head at an arbitrary existing response.
func Set(ctx context.Context, db *safedb.DB, id string) (SetResult, error) {
	pos, err := navigator.New(db).Set(ctx, id)
	if err != nil {
		return SetResult{}, err
	}
	return SetResult{
		ID:             pos.ID,
		ParentID:       pos.ParentID,
		ConversationID: pos.ConversationID,
		Depth:          pos.Depth,
	}, nil
}

// AppendOptions is the payload of a new exchange. The generation
// collaborator fills this after producing content.
type AppendOptions struct {
	Model        string
	Prompt       string
	System       string
	Response     string
	PromptJSON   string
	OptionsJSON  string
	ResponseJSON string
	DurationMS   int64
	InputTokens  int64
	OutputTokens int64
	TokenDetails string
}

// AppendResult is the result of the append command.
type AppendResult struct {
	ID             string `json:"id"`
	ParentID       string `json:"parent_id,omitempty"`
	ConversationID string `json:"conversation_id"`
}

// Append records a new exchange as a child of the head and moves the head
// to it.
func Append(ctx context.Context, db *safedb.DB, opts AppendOptions) (AppendResult, error) {
	r, err := navigator.New(db).Append(ctx, navigator.Payload{
		Model:        opts.Model,
		Prompt:       opts.Prompt,
		System:       opts.System,
		Text:         opts.Response,
		PromptJSON:   opts.PromptJSON,
		OptionsJSON:  opts.OptionsJSON,
		ResponseJSON: opts.ResponseJSON,
		DurationMS:   opts.DurationMS,
		InputTokens:  opts.InputTokens,
		OutputTokens: opts.OutputTokens,
		TokenDetails: opts.TokenDetails,
	})
	if err != nil {
		return AppendResult{}, err
	}
	return AppendResult{
		ID:             r.ID,
		ParentID:       r.ParentID,
		ConversationID: r.ConversationID,
	}, nil
}
