package llm

import "context"

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	Prompt    string
	Model     string // overrides the client default when set
	MaxTokens int    // caps the reply length; 0 uses the client default
}

// LLM is a hosted chat-completion model.
type LLM interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	GetModel() string
}

// AgentSpec describes a server-side agent for the conversations API.
type AgentSpec struct {
	Model        string
	Name         string
	Description  string
	Instructions string
	Temperature  float64
	TopP         float64
}

// ConversationReply is the outcome of a conversation turn.
type ConversationReply struct {
	ConversationID string
	Content        string
}

// Conversations is a stateful, server-side conversation API.
type Conversations interface {
	CreateAgent(ctx context.Context, spec AgentSpec) (string, error)
	StartConversation(ctx context.Context, agentID, input string) (*ConversationReply, error)
	AppendConversation(ctx context.Context, conversationID, input string) (*ConversationReply, error)
}
