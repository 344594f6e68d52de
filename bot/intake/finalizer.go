package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"MudaBot/entity"
)

// finalize runs once all stages are satisfied: estimate, persist, report,
// tear down. Estimator and saver failures propagate to the caller's
// unrecoverable-failure path; nothing is persisted on a failed estimate.
func (p *Processor) finalize(ctx context.Context, sess *Session) error {
	conversationID := sess.ConversationID

	_ = p.messenger.SendText(conversationID, msgCalculating)

	cctx := ctx
	if p.CollabTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, p.CollabTimeout)
		defer cancel()
	}

	estimate, err := p.estimator.Estimate(cctx, sess.Facts)
	if err != nil {
		return fmt.Errorf("estimating price: %w", err)
	}

	result, err := p.quotes.Save(cctx, sess.Facts, *estimate)
	if err != nil {
		return fmt.Errorf("saving quote: %w", err)
	}

	if err := p.messenger.SendText(conversationID, FormatResult(sess.Facts, estimate, result)); err != nil {
		return fmt.Errorf("sending result: %w", err)
	}
	_ = p.messenger.SendText(conversationID, FormatCompanies(result))

	if err := p.store.Remove(ctx, conversationID); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}

	p.log.Info("quote completed",
		slog.String("conversation_id", conversationID),
		slog.String("tracking_code", result.TrackingCode),
		slog.Int("notified_companies", len(result.NotifiedCompanies)),
	)
	p.notify(entity.IntakeEvent{
		Type:           entity.EventQuoteCompleted,
		ConversationID: conversationID,
		TrackingCode:   result.TrackingCode,
	})
	return nil
}

// FormatResult builds the human-readable estimate message. AI-normalized
// city/state are preferred over the raw user text when available.
func FormatResult(facts entity.TripFacts, estimate *entity.Estimate, result *entity.QuoteResult) string {
	var sb strings.Builder

	sb.WriteString("✅ Sua estimativa está pronta!\n\n")

	if result.TrackingCode != "" {
		sb.WriteString(fmt.Sprintf("📋 Código de acompanhamento: *%s*\n\n", result.TrackingCode))
	}

	sb.WriteString(fmt.Sprintf("📍 De: %s\n", placeName(estimate.OriginCity, estimate.OriginState, facts.Origin)))
	sb.WriteString(fmt.Sprintf("🏁 Para: %s\n", placeName(estimate.DestinationCity, estimate.DestinationState, facts.Destination)))

	label := propertyLabels[facts.PropertyType]
	if label == "" {
		label = facts.PropertyType
	}
	sb.WriteString(fmt.Sprintf("🏠 Imóvel: %s (%dº andar)\n", label, facts.Floor))
	sb.WriteString(fmt.Sprintf("🛗 Elevador: %s\n", yesNoLabel(facts.HasElevator)))
	sb.WriteString(fmt.Sprintf("📦 Embalagem: %s\n", yesNoLabel(facts.NeedsPacking)))

	if facts.MovingDate != "" {
		sb.WriteString(fmt.Sprintf("📅 Data prevista: %s\n", displayDate(facts.MovingDate)))
	}

	sb.WriteString(fmt.Sprintf("\n🚚 Distância estimada: %.0f km\n", estimate.DistanceKm))
	sb.WriteString(fmt.Sprintf("💰 Faixa de preço: R$ %.2f a R$ %.2f\n", estimate.PriceMin, estimate.PriceMax))

	if estimate.Explanation != "" {
		sb.WriteString("\n" + estimate.Explanation)
	}

	return sb.String()
}

// FormatCompanies builds the second outbound message: the notified-company
// list, or a generic notice when no company matched.
func FormatCompanies(result *entity.QuoteResult) string {
	if len(result.NotifiedCompanies) == 0 {
		return msgGenericPartners
	}

	var sb strings.Builder
	sb.WriteString("📣 Já avisamos estas empresas parceiras sobre a sua mudança:\n")

	for _, c := range result.NotifiedCompanies {
		sb.WriteString("\n• " + safeCompanyName(c.Name))
		if c.ContactLink != "" {
			sb.WriteString("\n  " + c.ContactLink)
		} else if c.Phone != "" {
			sb.WriteString(" — " + c.Phone)
		}
	}

	return sb.String()
}

// safeCompanyName quotes names that look like phone numbers, so the
// transport does not auto-linkify the digits.
func safeCompanyName(name string) string {
	if name == "" {
		return name
	}

	digits := 0
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return name
		}
	}
	if digits == 0 {
		return name
	}
	return `"` + name + `"`
}

func placeName(city, state, raw string) string {
	if city == "" {
		return raw
	}
	if state == "" {
		return city
	}
	return city + " - " + state
}

func yesNoLabel(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

func displayDate(canonical string) string {
	t, err := time.Parse("2006-01-02", canonical)
	if err != nil {
		return canonical
	}
	return t.Format("02/01/2006")
}
