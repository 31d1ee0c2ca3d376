package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/FergusFettes/llm-head/internal/cli"
)

// handleHeadShow reports the current head without mutating anything.
func (s *Server) handleHeadShow(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input HeadShowInput,
) (*gomcp.CallToolResult, HeadShowOutput, error) {
	res, err := cli.Show(ctx, s.db)
	if err != nil {
		return nil, HeadShowOutput{}, fmt.Errorf("show head: %w", err)
	}
	return nil, HeadShowOutput{
		HeadSet:        res.HeadSet,
		ResponseID:     res.ID,
		ParentID:       res.ParentID,
		ConversationID: res.ConversationID,
		Depth:          res.Depth,
		Prompt:         res.Prompt,
		Response:       res.Response,
	}, nil
}

// handleHeadBack moves the head to its parent.
func (s *Server) handleHeadBack(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input HeadBackInput,
) (*gomcp.CallToolResult, HeadBackOutput, error) {
	res, err := cli.Back(ctx, s.db)
	if err != nil {
		return nil, HeadBackOutput{}, fmt.Errorf("move head back: %w", err)
	}
	return nil, HeadBackOutput{
		ResponseID: res.ID,
		PreviousID: res.PreviousID,
	}, nil
}

// handleHeadSet points the head at an arbitrary existing response.
func (s *Server) handleHeadSet(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input HeadSetInput,
) (*gomcp.CallToolResult, HeadSetOutput, error) {
	if input.ResponseID == "" {
		return nil, HeadSetOutput{}, fmt.Errorf("'response_id' is required")
	}

	res, err := cli.Set(ctx, s.db, input.ResponseID)
	if err != nil {
		return nil, HeadSetOutput{}, fmt.Errorf("set head: %w", err)
	}
	return nil, HeadSetOutput{
		ResponseID: res.ID,
		ParentID:   res.ParentID,
		Depth:      res.Depth,
	}, nil
}

// handleAppendResponse records a new exchange under the current head.
func (s *Server) handleAppendResponse(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input AppendResponseInput,
) (*gomcp.CallToolResult, AppendResponseOutput, error) {
	if input.Prompt == "" {
		return nil, AppendResponseOutput{}, fmt.Errorf("'prompt' is required")
	}
	if input.Response == "" {
		return nil, AppendResponseOutput{}, fmt.Errorf("'response' is required")
	}

	res, err := cli.Append(ctx, s.db, cli.AppendOptions{
		Prompt:   input.Prompt,
		Response: input.Response,
		Model:    input.Model,
		System:   input.System,
	})
	if err != nil {
		return nil, AppendResponseOutput{}, fmt.Errorf("append response: %w", err)
	}
	return nil, AppendResponseOutput{
		ResponseID:     res.ID,
		ParentID:       res.ParentID,
		ConversationID: res.ConversationID,
	}, nil
}

// handleShowConversation renders the transcript or branch tree.
func (s *Server) handleShowConversation(
	ctx context.Context,
	req *gomcp.CallToolRequest,
	input ShowConversationInput,
) (*gomcp.CallToolResult, ShowConversationOutput, error) {
	opts := cli.LogOptions{ConversationID: input.ConversationID, Width: 120}

	var res cli.LogResult
	var err error
	if input.Tree {
		res, err = cli.Tree(ctx, s.db, opts)
	} else {
		res, err = cli.Log(ctx, s.db, opts)
	}
	if err != nil {
		return nil, ShowConversationOutput{}, fmt.Errorf("render conversation: %w", err)
	}
	return nil, ShowConversationOutput{
		Found:          res.Found,
		ConversationID: res.ConversationID,
		HeadID:         res.HeadID,
		Text:           res.Text,
	}, nil
}
