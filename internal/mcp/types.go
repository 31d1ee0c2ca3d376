package mcp

// HeadShowInput is the input for the head_show MCP tool.
type HeadShowInput struct{}

// HeadShowOutput is the output for the head_show MCP tool.
type HeadShowOutput struct {
	HeadSet        bool   `json:"head_set" jsonschema:"False when no conversation has been started yet"`
	ResponseID     string `json:"response_id,omitempty" jsonschema:"ID of the current head response"`
	ParentID       string `json:"parent_id,omitempty" jsonschema:"ID of the head's parent; empty at a root"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Conversation the head belongs to"`
	Depth          int    `json:"depth" jsonschema:"Number of parent links between the head and its root"`
	Prompt         string `json:"prompt,omitempty" jsonschema:"Prompt of the head exchange"`
	Response       string `json:"response,omitempty" jsonschema:"Response text of the head exchange"`
}

// HeadBackInput is the input for the head_back MCP tool.
type HeadBackInput struct{}

// HeadBackOutput is the output for the head_back MCP tool.
type HeadBackOutput struct {
	ResponseID string `json:"response_id" jsonschema:"ID of the new head (the parent)"`
	PreviousID string `json:"previous_id" jsonschema:"ID of the response the head moved away from"`
}

// HeadSetInput is the input for the head_set MCP tool.
type HeadSetInput struct {
	ResponseID string `json:"response_id" jsonschema:"ID of the response to point the head at"`
}

// HeadSetOutput is the output for the head_set MCP tool.
type HeadSetOutput struct {
	ResponseID string `json:"response_id" jsonschema:"ID of the new head"`
	ParentID   string `json:"parent_id,omitempty" jsonschema:"Parent of the new head; empty at a root"`
	Depth      int    `json:"depth" jsonschema:"Depth of the new head below its root"`
}

// AppendResponseInput is the input for the append_response MCP tool.
type AppendResponseInput struct {
	Prompt   string `json:"prompt" jsonschema:"Prompt of the new exchange"`
	Response string `json:"response" jsonschema:"Generated response text"`
	Model    string `json:"model,omitempty" jsonschema:"Model that produced the response"`
	System   string `json:"system,omitempty" jsonschema:"System prompt, if any"`
}

// AppendResponseOutput is the output for the append_response MCP tool.
type AppendResponseOutput struct {
	ResponseID     string `json:"response_id" jsonschema:"ID of the new response; it is now the head"`
	ParentID       string `json:"parent_id,omitempty" jsonschema:"Parent the exchange continued from; empty for a new root"`
	ConversationID string `json:"conversation_id" jsonschema:"Conversation the exchange was recorded in"`
}

// ShowConversationInput is the input for the show_conversation MCP tool.
type ShowConversationInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Conversation to render. Default: the most recently active one"`
	Tree           bool   `json:"tree,omitempty" jsonschema:"Render the full branch tree instead of the linear transcript"`
}

// ShowConversationOutput is the output for the show_conversation MCP tool.
type ShowConversationOutput struct {
	Found          bool   `json:"found" jsonschema:"False when the store has no conversations"`
	ConversationID string `json:"conversation_id,omitempty"`
	HeadID         string `json:"head_id,omitempty" jsonschema:"Response the transcript follows"`
	Text           string `json:"text,omitempty" jsonschema:"Rendered transcript or tree"`
}
