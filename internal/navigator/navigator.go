// Package navigator is the head-pointer state machine. Every operation is
// a total function from (current head, store contents, arguments) to (new
// head, result): show, back, set, and append. Each operation runs inside
// exactly one transaction so a read-modify-write of the head can never
// interleave with a concurrent invocation: two racing processes serialize
// at the database, and the loser surfaces ErrStoreUnavailable instead of
// clobbering the winner's update.
package navigator

import (
	"context"
	"fmt"

	"github.com/FergusFettes/llm-head/internal/errs"
	"github.com/FergusFettes/llm-head/internal/head"
	"github.com/FergusFettes/llm-head/internal/identity"
	"github.com/FergusFettes/llm-head/internal/safedb"
	"github.com/FergusFettes/llm-head/internal/store"
)

// Navigator orchestrates reads and writes through the node store and the
// head register. It holds no state of its own; the head lives in the
// database and is re-read at the start of every operation.
type Navigator struct {
	db *safedb.DB
}

// New binds a navigator to an open database.
func New(db *safedb.DB) *Navigator {
	return &Navigator{db: db}
}

// Position describes where the head currently points. Unset Head means no
// conversation has been started yet.
type Position struct {
	Head           bool   `json:"head_set"`
	ID             string `json:"id,omitempty"`
	ParentID       string `json:"parent_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Depth          int    `json:"depth"`
}

// BackResult reports a successful backtrack: the new head and the child
// the head moved away from.
type BackResult struct {
	ID         string `json:"id"`
	PreviousID string `json:"previous_id"`
}

// Payload is the content of a new exchange, produced by the generation
// collaborator. The navigator treats everything here as opaque.
type Payload struct {
	Model        string
	Prompt       string
	System       string
	PromptJSON   string
	OptionsJSON  string
	Text         string
	ResponseJSON string
	DurationMS   int64
	InputTokens  int64
	OutputTokens int64
	TokenDetails string
}

// Show returns the current position without mutating anything. An unset
// head is a valid result, not an error.
func (n *Navigator) Show(ctx context.Context) (Position, error) {
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return Position{}, err
	}
	defer func() { _ = tx.Rollback() }()

	pos, err := currentPosition(ctx, tx)
	if err != nil {
		return Position{}, err
	}
	return pos, nil
}

// Back moves the head to the parent of the current head. Backtracking from
// an unset head or past a root fails with ErrNoParent; a silent no-op
// would desynchronize the caller's notion of where the head is.
func (n *Navigator) Back(ctx context.Context) (BackResult, error) {
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return BackResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	current, ok, err := head.Read(ctx, tx)
	if err != nil {
		return BackResult{}, err
	}
	if !ok {
		return BackResult{}, fmt.Errorf("back: head is unset: %w", errs.ErrNoParent)
	}

	parent, ok, err := store.ParentOf(ctx, tx, current)
	if err != nil {
		return BackResult{}, err
	}
	if !ok {
		return BackResult{}, fmt.Errorf("back: %s is a root: %w", current, errs.ErrNoParent)
	}

	if err := head.Write(ctx, tx, parent); err != nil {
		return BackResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return BackResult{}, errs.Classify(err)
	}
	return BackResult{ID: parent, PreviousID: current}, nil
}

// Set points the head at an arbitrary existing response, regardless of any
// graph relationship to the previous head. This is the jump that, followed
// by an append, creates a branch.
func (n *Navigator) Set(ctx context.Context, id string) (Position, error) {
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return Position{}, err
	}
	defer func() { _ = tx.Rollback() }()

	target, err := store.Get(ctx, tx, id)
	if err != nil {
		return Position{}, err
	}
	if err := head.Write(ctx, tx, target.ID); err != nil {
		return Position{}, err
	}

	pos, err := positionOf(ctx, tx, target)
	if err != nil {
		return Position{}, err
	}
	if err := tx.Commit(); err != nil {
		return Position{}, errs.Classify(err)
	}
	return pos, nil
}

// Append records a new exchange as a child of the current head and moves
// the head to it, all in one transaction: either both the node and the new
// head are durable, or neither is. From an unset head the new node becomes
// the root of a fresh conversation. Appending after a back or set creates
// a sibling of whatever previously followed that position, and the tree
// diverges.
func (n *Navigator) Append(ctx context.Context, p Payload) (store.Response, error) {
	tx, err := n.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Response{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var parentID, conversationID string
	current, ok, err := head.Read(ctx, tx)
	if err != nil {
		return store.Response{}, err
	}
	if ok {
		parent, err := store.Get(ctx, tx, current)
		if err != nil {
			return store.Response{}, fmt.Errorf("append: load head: %w", err)
		}
		parentID = parent.ID
		conversationID = parent.ConversationID
	}

	if conversationID == "" {
		conversationID = identity.NewConversationID()
		err := store.EnsureConversation(ctx, tx, store.Conversation{
			ID:    conversationID,
			Name:  identity.ConversationName(p.Prompt),
			Model: p.Model,
		})
		if err != nil {
			return store.Response{}, err
		}
	}

	r, err := store.Create(ctx, tx, store.NewResponse{
		ConversationID: conversationID,
		ParentID:       parentID,
		Model:          p.Model,
		Prompt:         p.Prompt,
		System:         p.System,
		PromptJSON:     p.PromptJSON,
		OptionsJSON:    p.OptionsJSON,
		Text:           p.Text,
		ResponseJSON:   p.ResponseJSON,
		DurationMS:     p.DurationMS,
		InputTokens:    p.InputTokens,
		OutputTokens:   p.OutputTokens,
		TokenDetails:   p.TokenDetails,
	})
	if err != nil {
		return store.Response{}, err
	}

	if err := head.Write(ctx, tx, r.ID); err != nil {
		return store.Response{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.Response{}, errs.Classify(err)
	}
	return r, nil
}

// currentPosition resolves the head into a Position within q's snapshot.
func currentPosition(ctx context.Context, q store.Querier) (Position, error) {
	id, ok, err := head.Read(ctx, q)
	if err != nil {
		return Position{}, err
	}
	if !ok {
		return Position{}, nil
	}

	r, err := store.Get(ctx, q, id)
	if err != nil {
		return Position{}, fmt.Errorf("resolve head: %w", err)
	}
	return positionOf(ctx, q, r)
}

func positionOf(ctx context.Context, q store.Querier, r store.Response) (Position, error) {
	parent, _, err := store.ParentOf(ctx, q, r.ID)
	if err != nil {
		return Position{}, err
	}
	depth, err := store.Depth(ctx, q, r.ID)
	if err != nil {
		return Position{}, err
	}
	return Position{
		Head:           true,
		ID:             r.ID,
		ParentID:       parent,
		ConversationID: r.ConversationID,
		Depth:          depth,
	}, nil
}
