package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelegramNotifierSend(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	notifier, err := NewTelegramNotifier(TelegramConfig{
		BotToken: "123:abc",
		ChatID:   "-100200300",
		BaseURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("failed to construct notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), "<b>order</b>"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotBody.ChatID != "-100200300" {
		t.Fatalf("unexpected chat id %q", gotBody.ChatID)
	}
	if gotBody.ParseMode != "HTML" {
		t.Fatalf("expected HTML parse mode, got %q", gotBody.ParseMode)
	}
	if gotBody.Text != "<b>order</b>" {
		t.Fatalf("unexpected message text %q", gotBody.Text)
	}
}

func TestTelegramNotifierSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	notifier, err := NewTelegramNotifier(TelegramConfig{
		BotToken: "123:abc",
		ChatID:   "42",
		BaseURL:  server.URL,
	})
	if err != nil {
		t.Fatalf("failed to construct notifier: %v", err)
	}

	if err := notifier.Send(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for rejected send")
	}
}

func TestTelegramNotifierRequiresCredentials(t *testing.T) {
	if _, err := NewTelegramNotifier(TelegramConfig{ChatID: "42"}); err == nil {
		t.Fatalf("expected error for missing bot token")
	}
	if _, err := NewTelegramNotifier(TelegramConfig{BotToken: "123:abc"}); err == nil {
		t.Fatalf("expected error for missing chat id")
	}
}
