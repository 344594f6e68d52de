package whatsapp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"MudaBot/internal/lib/sl"
)

const graphAPIURL = "https://graph.facebook.com/v21.0"

// MessageHandler receives inbound messages after the platform shapes have
// been unwrapped into a single text token.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conversationID, text string) error
}

// WhatsAppBot handles WhatsApp messaging via the Graph API.
type WhatsAppBot struct {
	log           *slog.Logger
	accessToken   string
	verifyToken   string
	appSecret     string
	phoneNumberID string
	apiURL        string
	handler       MessageHandler
}

// WebhookPayload represents the incoming webhook payload from WhatsApp.
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value struct {
				MessagingProduct string `json:"messaging_product"`
				Metadata         struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      *struct {
						Body string `json:"body"`
					} `json:"text,omitempty"`
					Interactive *struct {
						Type        string `json:"type"`
						ButtonReply *struct {
							ID    string `json:"id"`
							Title string `json:"title"`
						} `json:"button_reply,omitempty"`
						ListReply *struct {
							ID    string `json:"id"`
							Title string `json:"title"`
						} `json:"list_reply,omitempty"`
					} `json:"interactive,omitempty"`
				} `json:"messages"`
			} `json:"value"`
			Field string `json:"field"`
		} `json:"changes"`
	} `json:"entry"`
}

// NewWhatsAppBot creates a new WhatsApp bot instance.
func NewWhatsAppBot(accessToken, verifyToken, appSecret, phoneNumberID string, log *slog.Logger) *WhatsAppBot {
	return &WhatsAppBot{
		log:           log.With(sl.Module("whatsappbot")),
		accessToken:   accessToken,
		verifyToken:   verifyToken,
		appSecret:     appSecret,
		phoneNumberID: phoneNumberID,
		apiURL:        graphAPIURL,
	}
}

// SetMessageHandler wires the inbound dispatch target.
func (b *WhatsAppBot) SetMessageHandler(h MessageHandler) {
	b.handler = h
}

// HandleWebhookVerification handles the GET request for webhook verification.
func (b *WhatsAppBot) HandleWebhookVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == b.verifyToken {
		b.log.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	b.log.Warn("webhook verification failed",
		slog.String("mode", mode),
		slog.Bool("token_match", token == b.verifyToken),
	)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleWebhook handles incoming webhook POST requests.
func (b *WhatsAppBot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		b.log.Error("failed to read request body", sl.Err(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature if app secret is configured
	if b.appSecret != "" {
		signature := r.Header.Get("X-Hub-Signature-256")
		if !b.verifySignature(body, signature) {
			b.log.Warn("invalid webhook signature")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		b.log.Error("failed to parse webhook payload", sl.Err(err))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Always respond with 200 OK to acknowledge receipt
	w.WriteHeader(http.StatusOK)

	// Process messages asynchronously, one task per delivery. Turns for
	// the same sender are serialized inside the processor.
	go b.processPayload(payload)
}

// processPayload unwraps each message into (conversationID, text) and hands
// it to the message handler. Button and list replies collapse to the
// selected option ID.
func (b *WhatsAppBot) processPayload(payload WebhookPayload) {
	if payload.Object != "whatsapp_business_account" {
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			for _, message := range change.Value.Messages {
				text := ""
				switch {
				case message.Type == "text" && message.Text != nil:
					text = message.Text.Body
				case message.Type == "interactive" && message.Interactive != nil:
					if message.Interactive.ButtonReply != nil {
						text = message.Interactive.ButtonReply.ID
					} else if message.Interactive.ListReply != nil {
						text = message.Interactive.ListReply.ID
					}
				}
				if text == "" {
					continue
				}

				senderPhone := message.From
				b.log.Info("received message",
					slog.String("sender_phone", senderPhone),
					slog.String("type", message.Type),
				)

				if b.handler == nil {
					continue
				}
				if err := b.handler.HandleMessage(context.Background(), senderPhone, text); err != nil {
					b.log.Error("handling message",
						slog.String("sender_phone", senderPhone),
						sl.Err(err),
					)
				}
			}
		}
	}
}

func (b *WhatsAppBot) post(reqBody any) error {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", b.apiURL, b.phoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// verifySignature verifies the X-Hub-Signature-256 header.
func (b *WhatsAppBot) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Signature format: "sha256=<hex_signature>"
	if len(signature) < 8 || signature[:7] != "sha256=" {
		return false
	}

	expectedSig := signature[7:]
	mac := hmac.New(sha256.New, []byte(b.appSecret))
	mac.Write(body)
	actualSig := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expectedSig), []byte(actualSig))
}
