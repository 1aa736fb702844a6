package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestMistralChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer mk-test", r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "pixtral-12b-2409", body["model"])
		assert.Equal(t, float64(2000), body["max_tokens"])
		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]interface{})["role"])
		assert.Equal(t, "hello", msgs[0].(map[string]interface{})["content"])

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  all good \n"}}]}`))
	}))
	defer server.Close()

	m := NewMistral("mk-test").WithBaseURL(server.URL + "/v1/")
	out, err := m.Chat(context.Background(), ChatRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "  all good \n", out)
}

func TestMistralChatOverridesModelAndTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "mistral-small", body["model"])
		assert.Equal(t, float64(256), body["max_tokens"])
		w.Write([]byte(`{"choices":[{"message":{"content":"x"}}]}`))
	}))
	defer server.Close()

	m := NewMistral("k").WithBaseURL(server.URL)
	_, err := m.Chat(context.Background(), ChatRequest{Prompt: "p", Model: "mistral-small", MaxTokens: 256})
	require.NoError(t, err)
}

func TestMistralChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthorized"}`, "status 401): Unauthorized"},
		{"quota", http.StatusTooManyRequests, `rate limited`, "status 429): rate limited"},
		{"empty", http.StatusOK, `{"choices":[]}`, "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewMistral("k").WithBaseURL(server.URL).Chat(context.Background(), ChatRequest{Prompt: "p"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMistralAgentsAndConversations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		switch r.URL.Path {
		case "/agents":
			assert.Equal(t, "Network Troubleshooter", body["name"])
			args := body["completion_args"].(map[string]interface{})
			assert.Equal(t, 0.3, args["temperature"])
			w.Write([]byte(`{"id":"ag_123"}`))
		case "/conversations":
			assert.Equal(t, "ag_123", body["agent_id"])
			assert.Equal(t, "first", body["inputs"])
			w.Write([]byte(`{"conversation_id":"conv_1","outputs":[{"type":"message.output","content":"hello"}]}`))
		case "/conversations/conv_1":
			assert.Equal(t, "second", body["inputs"])
			assert.Nil(t, body["agent_id"])
			w.Write([]byte(`{"conversation_id":"conv_1","outputs":[{"type":"tool.execution"},{"type":"message.output","content":[{"type":"text","text":"again"},{"type":"text","text":"!"}]}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	m := NewMistral("k").WithBaseURL(server.URL)
	ctx := context.Background()

	agentID, err := m.CreateAgent(ctx, AgentSpec{Name: "Network Troubleshooter", Temperature: 0.3, TopP: 0.95})
	require.NoError(t, err)
	assert.Equal(t, "ag_123", agentID)

	reply, err := m.StartConversation(ctx, agentID, "first")
	require.NoError(t, err)
	assert.Equal(t, &ConversationReply{ConversationID: "conv_1", Content: "hello"}, reply)

	reply, err = m.AppendConversation(ctx, reply.ConversationID, "second")
	require.NoError(t, err)
	assert.Equal(t, "again!", reply.Content)
}

func TestMistralConversationWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outputs":[]}`))
	}))
	defer server.Close()

	_, err := NewMistral("k").WithBaseURL(server.URL).StartConversation(context.Background(), "ag", "x")
	assert.ErrorContains(t, err, "no conversation id")
}
