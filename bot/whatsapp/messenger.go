package whatsapp

import (
	"log/slog"

	"MudaBot/bot/intake"
)

// Graph API send payloads. Button and list prompts use the interactive
// message type.

type textRequest struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type interactiveRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Interactive      interactive `json:"interactive"`
}

type interactive struct {
	Type   string            `json:"type"` // "button" | "list"
	Body   interactiveBody   `json:"body"`
	Action interactiveAction `json:"action"`
}

type interactiveBody struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Buttons  []interactiveButton `json:"buttons,omitempty"`
	Button   string              `json:"button,omitempty"`
	Sections []listSection       `json:"sections,omitempty"`
}

type interactiveButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SendText implements intake.Messenger.
func (b *WhatsAppBot) SendText(conversationID, text string) error {
	req := textRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               conversationID,
		Type:             "text",
	}
	req.Text.PreviewURL = false
	req.Text.Body = text

	if err := b.post(req); err != nil {
		return err
	}
	b.log.Debug("text sent", slog.String("recipient_phone", conversationID))
	return nil
}

// SendButtons implements intake.Messenger.
func (b *WhatsAppBot) SendButtons(conversationID, prompt string, buttons []intake.Button) error {
	action := interactiveAction{}
	for _, btn := range buttons {
		action.Buttons = append(action.Buttons, interactiveButton{
			Type:  "reply",
			Reply: buttonReply{ID: btn.ID, Title: btn.Title},
		})
	}

	req := interactiveRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               conversationID,
		Type:             "interactive",
		Interactive: interactive{
			Type:   "button",
			Body:   interactiveBody{Text: prompt},
			Action: action,
		},
	}

	if err := b.post(req); err != nil {
		return err
	}
	b.log.Debug("buttons sent", slog.String("recipient_phone", conversationID))
	return nil
}

// SendList implements intake.Messenger.
func (b *WhatsAppBot) SendList(conversationID, prompt, buttonLabel string, sections []intake.ListSection) error {
	action := interactiveAction{Button: buttonLabel}
	for _, sec := range sections {
		out := listSection{Title: sec.Title}
		for _, row := range sec.Rows {
			out.Rows = append(out.Rows, listRow{
				ID:          row.ID,
				Title:       row.Title,
				Description: row.Description,
			})
		}
		action.Sections = append(action.Sections, out)
	}

	req := interactiveRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               conversationID,
		Type:             "interactive",
		Interactive: interactive{
			Type:   "list",
			Body:   interactiveBody{Text: prompt},
			Action: action,
		},
	}

	if err := b.post(req); err != nil {
		return err
	}
	b.log.Debug("list sent", slog.String("recipient_phone", conversationID))
	return nil
}
