package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akozyreva/stockbot-backend/pkg/dedup"
	"github.com/akozyreva/stockbot-backend/pkg/telegram"
)

const testSecret = "webhook-secret"

type fakeHandler struct {
	calls   int
	lastMsg *telegram.Message
	reply   string
}

func (f *fakeHandler) HandleMessage(_ context.Context, msg *telegram.Message) string {
	f.calls++
	f.lastMsg = msg
	return f.reply
}

type fakeSender struct {
	calls    int
	lastChat int64
	lastText string
	err      error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.calls++
	f.lastChat = chatID
	f.lastText = text
	return f.err
}

func updateBody(t *testing.T, updateID int64, text string) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"update_id": updateID,
		"message": map[string]any{
			"message_id": 1,
			"from":       map[string]any{"id": 7, "is_bot": false},
			"chat":       map[string]any{"id": 100, "type": "private"},
			"date":       1756461600,
			"text":       text,
			// Fields the handler does not model must not break decoding.
			"entities": []map[string]any{{"type": "bot_command", "offset": 0, "length": 5}},
		},
	})
	if err != nil {
		t.Fatalf("marshal update: %v", err)
	}
	return payload
}

func postUpdate(handler http.HandlerFunc, body []byte, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	if secret != "" {
		req.Header.Set(secretTokenHeader, secret)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTelegramWebhook_HandlesAndReplies(t *testing.T) {
	h := &fakeHandler{reply: "done"}
	s := &fakeSender{}
	handler := TelegramWebhook(h, s, dedup.NewMemoryGuard(time.Hour), testSecret, nil)

	rec := postUpdate(handler, updateBody(t, 1, "/sale A123 M"), testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if h.calls != 1 {
		t.Fatalf("handler calls = %d", h.calls)
	}
	if h.lastMsg == nil || h.lastMsg.Text != "/sale A123 M" {
		t.Fatalf("message = %+v", h.lastMsg)
	}
	if s.calls != 1 || s.lastChat != 100 || s.lastText != "done" {
		t.Fatalf("sender state = %+v", s)
	}
}

func TestTelegramWebhook_DuplicateDeliveryIgnored(t *testing.T) {
	h := &fakeHandler{reply: "done"}
	s := &fakeSender{}
	handler := TelegramWebhook(h, s, dedup.NewMemoryGuard(time.Hour), testSecret, nil)

	body := updateBody(t, 5, "/sale A123 M")
	if rec := postUpdate(handler, body, testSecret); rec.Code != http.StatusOK {
		t.Fatalf("first delivery: %d", rec.Code)
	}
	if rec := postUpdate(handler, body, testSecret); rec.Code != http.StatusOK {
		t.Fatalf("duplicate delivery: %d", rec.Code)
	}
	if h.calls != 1 {
		t.Fatalf("duplicate should not be handled, calls = %d", h.calls)
	}
	if s.calls != 1 {
		t.Fatalf("duplicate should not be answered, sends = %d", s.calls)
	}
}

func TestTelegramWebhook_SecretTokenMismatch(t *testing.T) {
	h := &fakeHandler{reply: "done"}
	handler := TelegramWebhook(h, &fakeSender{}, dedup.NewMemoryGuard(time.Hour), testSecret, nil)

	if rec := postUpdate(handler, updateBody(t, 2, "/sale A123 M"), "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := postUpdate(handler, updateBody(t, 2, "/sale A123 M"), ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", rec.Code)
	}
	if h.calls != 0 {
		t.Fatalf("handler must not run without the secret, calls = %d", h.calls)
	}
}

func TestTelegramWebhook_EmptyReplySendsNothing(t *testing.T) {
	h := &fakeHandler{reply: ""}
	s := &fakeSender{}
	handler := TelegramWebhook(h, s, dedup.NewMemoryGuard(time.Hour), testSecret, nil)

	if rec := postUpdate(handler, updateBody(t, 3, "plain text"), testSecret); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if s.calls != 0 {
		t.Fatalf("no reply expected, sends = %d", s.calls)
	}
}

func TestTelegramWebhook_SendFailureForgetsMark(t *testing.T) {
	h := &fakeHandler{reply: "done"}
	s := &fakeSender{err: errors.New("telegram down")}
	guard := dedup.NewMemoryGuard(time.Hour)
	handler := TelegramWebhook(h, s, guard, testSecret, nil)

	body := updateBody(t, 9, "/summary")
	if rec := postUpdate(handler, body, testSecret); rec.Code == http.StatusOK {
		t.Fatal("expected error status when the reply cannot be sent")
	}

	// The mark is dropped so the redelivery is processed again.
	s.err = nil
	if rec := postUpdate(handler, body, testSecret); rec.Code != http.StatusOK {
		t.Fatalf("redelivery: %d", rec.Code)
	}
	if h.calls != 2 {
		t.Fatalf("handler calls = %d", h.calls)
	}
}

func TestTelegramWebhook_MalformedBody(t *testing.T) {
	handler := TelegramWebhook(&fakeHandler{}, &fakeSender{}, dedup.NewMemoryGuard(time.Hour), testSecret, nil)

	if rec := postUpdate(handler, []byte("{not json"), testSecret); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
