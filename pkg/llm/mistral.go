package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	mistralBaseURL      = "https://api.mistral.ai/v1"
	mistralDefaultModel = "pixtral-12b-2409"
)

// Mistral talks to the Mistral chat, agents and conversations APIs.
type Mistral struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	model     string
	maxTokens int
}

func NewMistral(apiKey string) *Mistral {
	return NewMistralWithModel(apiKey, mistralDefaultModel)
}

func NewMistralWithModel(apiKey, model string) *Mistral {
	return &Mistral{
		apiKey:    apiKey,
		baseURL:   mistralBaseURL,
		client:    &http.Client{Timeout: 120 * time.Second},
		model:     model,
		maxTokens: 2000,
	}
}

// WithBaseURL points the client at another endpoint.
func (m *Mistral) WithBaseURL(baseURL string) *Mistral {
	if baseURL != "" {
		m.baseURL = strings.TrimRight(baseURL, "/")
	}
	return m
}

func (m *Mistral) GetModel() string {
	return m.model
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (m *Mistral) Chat(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = m.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = m.maxTokens
	}

	body := map[string]interface{}{
		"model":      model,
		"messages":   []mistralMessage{{Role: "user", Content: req.Prompt}},
		"max_tokens": maxTokens,
	}

	var resp struct {
		Choices []struct {
			Message mistralMessage `json:"message"`
		} `json:"choices"`
	}
	if err := m.post(ctx, "/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from Mistral")
	}
	return resp.Choices[0].Message.Content, nil
}

func (m *Mistral) CreateAgent(ctx context.Context, spec AgentSpec) (string, error) {
	model := spec.Model
	if model == "" {
		model = m.model
	}
	body := map[string]interface{}{
		"model":        model,
		"name":         spec.Name,
		"description":  spec.Description,
		"instructions": spec.Instructions,
		"completion_args": map[string]float64{
			"temperature": spec.Temperature,
			"top_p":       spec.TopP,
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := m.post(ctx, "/agents", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("Mistral returned an agent without an id")
	}
	return resp.ID, nil
}

func (m *Mistral) StartConversation(ctx context.Context, agentID, input string) (*ConversationReply, error) {
	body := map[string]interface{}{
		"agent_id": agentID,
		"inputs":   input,
	}
	return m.conversation(ctx, "/conversations", body)
}

func (m *Mistral) AppendConversation(ctx context.Context, conversationID, input string) (*ConversationReply, error) {
	body := map[string]interface{}{
		"inputs": input,
	}
	return m.conversation(ctx, "/conversations/"+url.PathEscape(conversationID), body)
}

func (m *Mistral) conversation(ctx context.Context, path string, body map[string]interface{}) (*ConversationReply, error) {
	var resp struct {
		ConversationID string `json:"conversation_id"`
		Outputs        []struct {
			Type    string          `json:"type"`
			Content json.RawMessage `json:"content"`
		} `json:"outputs"`
	}
	if err := m.post(ctx, path, body, &resp); err != nil {
		return nil, err
	}

	var parts []string
	for _, out := range resp.Outputs {
		if out.Type != "" && out.Type != "message.output" {
			continue
		}
		parts = append(parts, contentText(out.Content))
	}
	if resp.ConversationID == "" {
		return nil, fmt.Errorf("Mistral returned no conversation id")
	}
	return &ConversationReply{
		ConversationID: resp.ConversationID,
		Content:        strings.Join(parts, "\n"),
	}, nil
}

// contentText accepts either a plain string or a list of typed chunks.
func contentText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var chunks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func (m *Mistral) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("Mistral API error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("Mistral API error (status %d): %s", resp.StatusCode, string(respBytes))
	}
	return json.Unmarshal(respBytes, out)
}
