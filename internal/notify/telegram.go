package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	defaultSendTimeout     = 10 * time.Second
)

// TelegramLogger defines the logging contract for Telegram operations.
type TelegramLogger func(ctx context.Context, event string, fields map[string]any)

// TelegramConfig configures the TelegramNotifier.
type TelegramConfig struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     TelegramLogger
}

// TelegramNotifier delivers messages to a fixed chat via the Bot API.
// Every send carries a bounded timeout so a stalled Telegram endpoint
// cannot hold a webhook handler open indefinitely.
type TelegramNotifier struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
	logger  TelegramLogger
}

// NewTelegramNotifier constructs a TelegramNotifier using the given configuration.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	chatID := strings.TrimSpace(cfg.ChatID)
	if chatID == "" {
		return nil, errors.New("telegram: chat id is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultSendTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &TelegramNotifier{
		client:  client,
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
		logger:  logger,
	}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send implements the Notifier interface.
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	if n == nil {
		return errors.New("telegram: notifier is nil")
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("telegram: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var result sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4*1024)).Decode(&result); err != nil {
		return fmt.Errorf("telegram: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram: send rejected (status %d): %s", resp.StatusCode, result.Description)
	}

	n.logger(ctx, "notify.telegram.sent", map[string]any{
		"chatId": n.chatID,
		"bytes":  len(text),
	})
	return nil
}
