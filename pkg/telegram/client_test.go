package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()

	client, err := NewClient("123:abc", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestSendMessageBuildsRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{}}`), nil
	})

	if err := client.SendMessage(context.Background(), 42, "<b>done</b>"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if got := captured.URL.String(); got != "https://api.telegram.org/bot123:abc/sendMessage" {
		t.Fatalf("url = %q", got)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("method = %q", captured.Method)
	}
	if got := payload["parse_mode"]; got != "HTML" {
		t.Fatalf("parse_mode = %v", got)
	}
	if got := payload["chat_id"]; got != float64(42) {
		t.Fatalf("chat_id = %v", got)
	}
	if got := payload["text"]; got != "<b>done</b>" {
		t.Fatalf("text = %v", got)
	}
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	err := client.SendMessage(context.Background(), 42, "   ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCallSurfacesAPIRejection(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"ok":false,"description":"Unauthorized"}`), nil
	})

	err := client.DeleteWebhook(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("error should carry the API description: %v", err)
	}
}

func TestCallRejectionWithoutDescription(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `{"ok":false}`), nil
	})

	err := client.DeleteWebhook(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), http.StatusText(http.StatusBadGateway)) {
		t.Fatalf("error should fall back to the HTTP status text: %v", err)
	}
}

func TestSetWebhookSendsSecretToken(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":true}`), nil
	})

	if err := client.SetWebhook(context.Background(), "https://bot.example.com/telegram/webhook", "shh"); err != nil {
		t.Fatalf("SetWebhook: %v", err)
	}
	if got := payload["url"]; got != "https://bot.example.com/telegram/webhook" {
		t.Fatalf("url = %v", got)
	}
	if got := payload["secret_token"]; got != "shh" {
		t.Fatalf("secret_token = %v", got)
	}
}

func TestGetMeDecodesResult(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"id":7,"is_bot":true,"username":"stockbot"}}`), nil
	})

	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if user.ID != 7 || !user.IsBot || user.Username != "stockbot" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestWithBaseURLOverride(t *testing.T) {
	var captured *http.Request
	client, err := NewClient("123:abc",
		WithBaseURL("https://tg.internal/"),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{"ok":true,"result":true}`), nil
		})}))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := client.DeleteWebhook(context.Background()); err != nil {
		t.Fatalf("DeleteWebhook: %v", err)
	}
	if got := captured.URL.String(); got != "https://tg.internal/bot123:abc/deleteWebhook" {
		t.Fatalf("url = %q", got)
	}
}
