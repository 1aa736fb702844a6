package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const webexBaseURL = "https://webexapis.com/v1"

// Poster delivers a markdown message to a room or a person and reports the
// HTTP status.
type Poster interface {
	PostMessage(ctx context.Context, destination, markdown string, isRoom bool) (int, error)
}

// WebexClient posts messages through the Webex REST API.
type WebexClient struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebexClient creates a client sending at most perSecond messages per
// second.
func NewWebexClient(token, baseURL string, perSecond float64) *WebexClient {
	if baseURL == "" {
		baseURL = webexBaseURL
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &WebexClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

type webexMessage struct {
	RoomID     string `json:"roomId,omitempty"`
	ToPersonID string `json:"toPersonId,omitempty"`
	Markdown   string `json:"markdown"`
}

func (w *WebexClient) PostMessage(ctx context.Context, destination, markdown string, isRoom bool) (int, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	msg := webexMessage{Markdown: markdown}
	if isRoom {
		msg.RoomID = destination
	} else {
		msg.ToPersonID = destination
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("webex returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
