// Package mcp exposes head navigation as MCP tools, so an LLM client can
// inspect and branch its own conversation history over stdio.
package mcp

import (
	"context"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/FergusFettes/llm-head/internal/cli"
	"github.com/FergusFettes/llm-head/internal/safedb"
)

// Server is the llm-head MCP server.
type Server struct {
	db      *safedb.DB
	version string
	server  *gomcp.Server
}

// Option configures the MCP server.
type Option func(*Server)

// WithVersion sets the server version string.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates an MCP server bound to the logs database at dbPath.
// An empty path means the default location.
func NewServer(dbPath string, opts ...Option) (*Server, error) {
	db, err := cli.OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		db:      db,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "llm-head",
			Version: s.version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on stdin/stdout. It blocks until the client
// disconnects or the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer func() { _ = s.db.Close() }()
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// registerTools registers all MCP tool handlers with the server.
func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "head_show",
		Description: "Show the current head of the conversation tree: the response the next exchange will continue from",
	}, s.handleHeadShow)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "head_back",
		Description: "Move the head to the parent of the current response. Appending afterwards creates a sibling branch",
	}, s.handleHeadBack)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "head_set",
		Description: "Point the head at any existing response id, regardless of where it sits in the tree",
	}, s.handleHeadSet)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "append_response",
		Description: "Record a new exchange as a child of the current head and move the head to it",
	}, s.handleAppendResponse)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "show_conversation",
		Description: "Render the current conversation: the root-to-head transcript, or the full branch tree",
	}, s.handleShowConversation)
}
