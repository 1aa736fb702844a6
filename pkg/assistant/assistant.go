// Package assistant answers follow-up questions about stored analysis
// records, either one-shot or as a persistent conversation.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmcode/netdiag-ai/pkg/llm"
	"github.com/helmcode/netdiag-ai/pkg/model"
	"github.com/rs/zerolog/log"
)

// TroubleshootingAgent is the agent created for the conversation mode.
var TroubleshootingAgent = llm.AgentSpec{
	Name:        "Network Troubleshooter",
	Description: "An expert network troubleshooting assistant for Cisco devices.",
	Instructions: "You are an expert network troubleshooting assistant. " +
		"You analyze network device outputs and provide specific, actionable troubleshooting steps. " +
		"Focus on providing practical guidance that a network engineer can implement.",
	Temperature: 0.3,
	TopP:        0.95,
}

// Troubleshooter answers a question about one record.
type Troubleshooter interface {
	Troubleshoot(ctx context.Context, record *model.AnalysisRecord, question string) (string, error)
}

type Assistant struct {
	troubleshooter Troubleshooter
	conversations  llm.Conversations
	agentModel     string
}

// New creates an assistant. conversations may be nil when only Ask is used.
func New(t Troubleshooter, conversations llm.Conversations, agentModel string) *Assistant {
	return &Assistant{troubleshooter: t, conversations: conversations, agentModel: agentModel}
}

// Ask sends a one-shot troubleshooting question about record.
func (a *Assistant) Ask(ctx context.Context, record *model.AnalysisRecord, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is empty")
	}
	return a.troubleshooter.Troubleshoot(ctx, record, question)
}

// Converse sends message on the session's conversation, creating the agent
// and the conversation on first use. The session is saved whenever an
// identifier changes.
func (a *Assistant) Converse(ctx context.Context, session *Session, message string) (string, error) {
	if a.conversations == nil {
		return "", fmt.Errorf("conversation mode is not available for this provider")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is empty")
	}

	if session.AgentID == "" {
		spec := TroubleshootingAgent
		spec.Model = a.agentModel
		id, err := a.conversations.CreateAgent(ctx, spec)
		if err != nil {
			return "", fmt.Errorf("create agent: %w", err)
		}
		session.AgentID = id
		session.ConversationID = ""
		if err := session.Save(); err != nil {
			return "", err
		}
		log.Info().Str("agent_id", id).Msg("Created troubleshooting agent")
	}

	var (
		reply *llm.ConversationReply
		err   error
	)
	if session.ConversationID == "" {
		reply, err = a.conversations.StartConversation(ctx, session.AgentID, message)
		if err != nil {
			return "", fmt.Errorf("start conversation: %w", err)
		}
	} else {
		reply, err = a.conversations.AppendConversation(ctx, session.ConversationID, message)
		if err != nil {
			return "", fmt.Errorf("append to conversation %s: %w", session.ConversationID, err)
		}
	}

	if reply.ConversationID != session.ConversationID {
		session.ConversationID = reply.ConversationID
		if err := session.Save(); err != nil {
			return "", err
		}
		log.Debug().Str("conversation_id", reply.ConversationID).Msg("Conversation id saved")
	}
	return strings.TrimSpace(reply.Content), nil
}
