package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot() *WhatsAppBot {
	return NewWhatsAppBot("test-access-token", "test-verify-token", "test-app-secret", "123456789", testLogger())
}

type recordedMessage struct {
	ConversationID string
	Text           string
}

type recordingHandler struct {
	mu       sync.Mutex
	Messages []recordedMessage
}

func (h *recordingHandler) HandleMessage(ctx context.Context, conversationID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Messages = append(h.Messages, recordedMessage{ConversationID: conversationID, Text: text})
	return nil
}

func TestHandleWebhookVerification(t *testing.T) {
	bot := newTestBot()

	t.Run("valid token echoes the challenge", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.verify_token=test-verify-token&hub.challenge=12345", nil)
		rec := httptest.NewRecorder()

		bot.HandleWebhookVerification(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "12345", rec.Body.String())
	})

	t.Run("wrong token is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
		rec := httptest.NewRecorder()

		bot.HandleWebhookVerification(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing mode is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/webhook?hub.verify_token=test-verify-token&hub.challenge=12345", nil)
		rec := httptest.NewRecorder()

		bot.HandleWebhookVerification(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhookSignature(t *testing.T) {
	bot := newTestBot()
	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)

	t.Run("valid signature is acknowledged", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set("X-Hub-Signature-256", signBody("test-app-secret", body))
		rec := httptest.NewRecorder()

		bot.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad signature is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		req.Header.Set("X-Hub-Signature-256", signBody("other-secret", body))
		rec := httptest.NewRecorder()

		bot.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing signature is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
		rec := httptest.NewRecorder()

		bot.HandleWebhook(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func webhookPayload(t *testing.T, raw string) WebhookPayload {
	t.Helper()
	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestProcessPayload(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		bot := newTestBot()
		handler := &recordingHandler{}
		bot.SetMessageHandler(handler)

		bot.processPayload(webhookPayload(t, `{
			"object": "whatsapp_business_account",
			"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
				"messaging_product": "whatsapp",
				"messages": [{"from": "5511999990000", "id": "wamid.1", "type": "text",
					"text": {"body": "oi"}}]
			}}]}]
		}`))

		require.Len(t, handler.Messages, 1)
		assert.Equal(t, "5511999990000", handler.Messages[0].ConversationID)
		assert.Equal(t, "oi", handler.Messages[0].Text)
	})

	t.Run("button reply collapses to the option id", func(t *testing.T) {
		bot := newTestBot()
		handler := &recordingHandler{}
		bot.SetMessageHandler(handler)

		bot.processPayload(webhookPayload(t, `{
			"object": "whatsapp_business_account",
			"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
				"messages": [{"from": "5511999990000", "id": "wamid.2", "type": "interactive",
					"interactive": {"type": "button_reply",
						"button_reply": {"id": "sim", "title": "Sim"}}}]
			}}]}]
		}`))

		require.Len(t, handler.Messages, 1)
		assert.Equal(t, "sim", handler.Messages[0].Text)
	})

	t.Run("list reply collapses to the option id", func(t *testing.T) {
		bot := newTestBot()
		handler := &recordingHandler{}
		bot.SetMessageHandler(handler)

		bot.processPayload(webhookPayload(t, `{
			"object": "whatsapp_business_account",
			"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
				"messages": [{"from": "5511999990000", "id": "wamid.3", "type": "interactive",
					"interactive": {"type": "list_reply",
						"list_reply": {"id": "apartamento", "title": "Apartamento"}}}]
			}}]}]
		}`))

		require.Len(t, handler.Messages, 1)
		assert.Equal(t, "apartamento", handler.Messages[0].Text)
	})

	t.Run("unsupported message types are skipped", func(t *testing.T) {
		bot := newTestBot()
		handler := &recordingHandler{}
		bot.SetMessageHandler(handler)

		bot.processPayload(webhookPayload(t, `{
			"object": "whatsapp_business_account",
			"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
				"messages": [{"from": "5511999990000", "id": "wamid.4", "type": "image"}]
			}}]}]
		}`))

		assert.Empty(t, handler.Messages)
	})

	t.Run("other webhook objects are ignored", func(t *testing.T) {
		bot := newTestBot()
		handler := &recordingHandler{}
		bot.SetMessageHandler(handler)

		bot.processPayload(webhookPayload(t, `{"object": "page", "entry": []}`))

		assert.Empty(t, handler.Messages)
	})
}

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bot := newTestBot()
	bot.apiURL = srv.URL

	require.NoError(t, bot.SendText("5511999990000", "Olá!"))

	assert.Equal(t, "/123456789/messages", gotPath)
	assert.Equal(t, "Bearer test-access-token", gotAuth)
	assert.Equal(t, "5511999990000", gotBody["to"])
	assert.Equal(t, "text", gotBody["type"])

	srvErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srvErr.Close()

	bot.apiURL = srvErr.URL
	err := bot.SendText("5511999990000", "Olá!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
