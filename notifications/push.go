package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	expoPushURL    = "https://exp.host/--/api/v2/push/send"
	expoBatchLimit = 100
)

// Pusher delivers device push notifications
type Pusher interface {
	// Send delivers to every token and returns how many were accepted
	Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) (int, error)
}

// ExpoPushMessage represents a single push message for the Expo Push API
type ExpoPushMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound,omitempty"`
}

// ExpoPusher sends notifications through the Expo Push API
type ExpoPusher struct {
	URL    string
	Client *http.Client
}

// NewExpoPusher returns a pusher aimed at the public Expo endpoint
func NewExpoPusher() *ExpoPusher {
	return &ExpoPusher{URL: expoPushURL, Client: &http.Client{Timeout: 15 * time.Second}}
}

// Send delivers the messages in batches of 100. A failed batch is logged and
// the remaining batches are still sent.
func (p *ExpoPusher) Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	messages := make([]ExpoPushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, ExpoPushMessage{To: token, Title: title, Body: body, Data: data, Sound: "default"})
	}

	sent := 0
	for i := 0; i < len(messages); i += expoBatchLimit {
		end := i + expoBatchLimit
		if end > len(messages) {
			end = len(messages)
		}
		if err := p.sendBatch(ctx, messages[i:end]); err != nil {
			zap.S().Errorw("failed to send expo push batch", "from", i, "to", end-1, "error", err)
			continue
		}
		sent += end - i
	}
	return sent, nil
}

func (p *ExpoPusher) sendBatch(ctx context.Context, messages []ExpoPushMessage) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal push messages: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}
	zap.S().Infow("sent push notifications", "count", len(messages))
	return nil
}
