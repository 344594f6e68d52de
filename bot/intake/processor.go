package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"MudaBot/entity"
	"MudaBot/internal/lib/sl"
)

// conversationLocks hands out one mutex per conversation, so turns for the
// same address run strictly one at a time while different conversations
// proceed in parallel.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *conversationLocks) Lock(conversationID string) {
	l.mu.Lock()
	mutex, exists := l.locks[conversationID]
	if !exists {
		mutex = &sync.Mutex{}
		l.locks[conversationID] = mutex
	}
	l.mu.Unlock()

	mutex.Lock()
}

func (l *conversationLocks) Unlock(conversationID string) {
	l.mu.Lock()
	mutex, exists := l.locks[conversationID]
	l.mu.Unlock()

	if exists {
		mutex.Unlock()
	}
}

// Processor drives the intake dialogue: one call per inbound message.
type Processor struct {
	store     SessionStore
	messenger Messenger
	estimator Estimator
	quotes    QuoteSaver
	listener  EventListener
	locks     *conversationLocks
	log       *slog.Logger

	// MinReplyInterval rejects replies arriving implausibly fast after the
	// last prompt. CollabTimeout bounds the estimation and persistence
	// calls during finalization.
	MinReplyInterval time.Duration
	CollabTimeout    time.Duration
}

func NewProcessor(store SessionStore, messenger Messenger, estimator Estimator, quotes QuoteSaver, log *slog.Logger) *Processor {
	return &Processor{
		store:            store,
		messenger:        messenger,
		estimator:        estimator,
		quotes:           quotes,
		locks:            newConversationLocks(),
		log:              log.With(sl.Module("intake.processor")),
		MinReplyInterval: 2 * time.Second,
		CollabTimeout:    60 * time.Second,
	}
}

// SetEventListener attaches an observer for session lifecycle events.
func (p *Processor) SetEventListener(l EventListener) {
	p.listener = l
}

// HandleMessage processes one inbound (conversationID, text) event.
// Non-activation messages without a session are dropped silently. Any
// unrecoverable failure tears the session down and tells the user to
// restart; the Processing guard is never left set.
func (p *Processor) HandleMessage(ctx context.Context, conversationID, text string) error {
	sess, err := p.store.Get(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	if sess == nil {
		if !IsActivation(text) {
			p.log.Debug("dropping message without session",
				slog.String("conversation_id", conversationID),
			)
			return nil
		}
		p.locks.Lock(conversationID)
		defer p.locks.Unlock(conversationID)
		return p.startSession(ctx, conversationID)
	}

	// Advisory guards: answer immediately instead of queueing behind the
	// conversation lock.
	if sess.Processing {
		_ = p.messenger.SendText(conversationID, msgBusy)
		return nil
	}
	if !sess.LastPromptAt.IsZero() && time.Since(sess.LastPromptAt) < p.MinReplyInterval {
		_ = p.messenger.SendText(conversationID, msgTooFast)
		return nil
	}

	p.locks.Lock(conversationID)
	defer p.locks.Unlock(conversationID)

	// Re-read under the lock: a concurrent turn may have advanced or
	// removed the session between the guard checks and here. The guards
	// re-apply to the fresh state, so a message that queued behind an
	// in-flight turn is not processed against a prompt it never saw.
	sess, err = p.store.Get(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil
	}
	if sess.Processing {
		_ = p.messenger.SendText(conversationID, msgBusy)
		return nil
	}
	if !sess.LastPromptAt.IsZero() && time.Since(sess.LastPromptAt) < p.MinReplyInterval {
		_ = p.messenger.SendText(conversationID, msgTooFast)
		return nil
	}

	if err := p.store.MarkProcessing(ctx, conversationID, true); err != nil {
		return fmt.Errorf("marking session busy: %w", err)
	}
	sess.Processing = true

	turnErr := p.safeTurn(ctx, sess, text)

	if err := p.store.MarkProcessing(ctx, conversationID, false); err != nil && turnErr == nil {
		turnErr = fmt.Errorf("releasing session: %w", err)
	}

	if turnErr != nil {
		p.abort(ctx, conversationID, turnErr)
		return turnErr
	}
	return nil
}

func (p *Processor) startSession(ctx context.Context, conversationID string) error {
	sess, err := p.store.Create(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	sess.LastPromptAt = time.Now()
	if err := p.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	// Combined welcome + first question in a single message.
	_ = p.messenger.SendText(conversationID, msgWelcome)

	p.log.Info("session started", slog.String("conversation_id", conversationID))
	p.notify(entity.IntakeEvent{
		Type:           entity.EventSessionStarted,
		ConversationID: conversationID,
		Stage:          string(StageOrigin),
	})
	return nil
}

func (p *Processor) safeTurn(ctx context.Context, sess *Session, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked: %v", r)
		}
	}()
	return p.runTurn(ctx, sess, text)
}

// runTurn validates the reply against the current stage, writes the fact
// and advances. Validation failures re-prompt and leave the session as is.
func (p *Processor) runTurn(ctx context.Context, sess *Session, text string) error {
	reply := strings.TrimSpace(text)

	switch sess.Stage {
	case StageOrigin:
		if len([]rune(reply)) < 2 {
			return p.reject(ctx, sess, msgTooShort)
		}
		sess.Facts.Origin = reply

	case StageDestination:
		if len([]rune(reply)) < 2 {
			return p.reject(ctx, sess, msgTooShort)
		}
		sess.Facts.Destination = reply

	case StagePropertyType:
		id, ok := MatchOption(reply, sectionOptionIDs(propertySections))
		if !ok {
			return p.reject(ctx, sess, msgPickOption)
		}
		sess.Facts.PropertyType = id

	case StageSizeEstimate:
		id, ok := MatchOption(reply, sectionOptionIDs(sizeSections))
		if !ok {
			return p.reject(ctx, sess, msgPickOption)
		}
		sess.Facts.SizeEstimate = id

	case StageHasElevator:
		yes, ok := MatchYesNo(reply)
		if !ok {
			return p.reject(ctx, sess, msgPickOption)
		}
		sess.Facts.HasElevator = yes
		if yes {
			sess.Facts.Floor = floorWithElevator
		} else {
			sess.Facts.Floor = floorWithoutElevator
		}

	case StageNeedsPacking:
		yes, ok := MatchYesNo(reply)
		if !ok {
			return p.reject(ctx, sess, msgPickOption)
		}
		sess.Facts.NeedsPacking = yes

	case StageName:
		if len([]rune(reply)) < 2 {
			return p.reject(ctx, sess, msgTooShort)
		}
		sess.Facts.ContactName = reply

	case StageEmail:
		if !ValidEmail(reply) {
			return p.reject(ctx, sess, msgBadEmail)
		}
		sess.Facts.Email = strings.ToLower(reply)

	case StageDate:
		date, ok := ParseMovingDate(reply, time.Now())
		if !ok {
			return p.reject(ctx, sess, msgBadDate)
		}
		sess.Facts.MovingDate = date

	case StageWantsItemList:
		yes, ok := MatchYesNo(reply)
		if !ok {
			return p.reject(ctx, sess, msgPickOption)
		}
		sess.Facts.WantsItemList = yes

	case StageItemListText:
		if reply == "" {
			return p.reject(ctx, sess, msgTooShort)
		}
		sess.Facts.ItemList = reply

	default:
		return fmt.Errorf("unknown stage: %s", sess.Stage)
	}

	sess.Stage = NextStage(sess.Stage, sess.Facts)

	if sess.Stage == StageDone {
		return p.finalize(ctx, sess)
	}

	sess.LastPromptAt = time.Now()
	if err := p.store.Update(ctx, sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	p.notify(entity.IntakeEvent{
		Type:           entity.EventStageAdvanced,
		ConversationID: sess.ConversationID,
		Stage:          string(sess.Stage),
	})

	p.sendStagePrompt(sess.ConversationID, sess.Stage)
	return nil
}

// reject re-sends the current stage's prompt without touching stage or facts.
func (p *Processor) reject(ctx context.Context, sess *Session, errText string) error {
	if errText != "" {
		_ = p.messenger.SendText(sess.ConversationID, errText)
	}
	p.sendStagePrompt(sess.ConversationID, sess.Stage)

	if err := p.store.MarkPromptSent(ctx, sess.ConversationID); err != nil {
		return fmt.Errorf("recording prompt time: %w", err)
	}
	return nil
}

func (p *Processor) sendStagePrompt(conversationID string, stage Stage) {
	var err error
	switch stage {
	case StageOrigin:
		err = p.messenger.SendText(conversationID, promptOrigin)
	case StageDestination:
		err = p.messenger.SendText(conversationID, promptDestination)
	case StagePropertyType:
		err = p.messenger.SendList(conversationID, promptPropertyType, listButtonLabel, propertySections)
	case StageSizeEstimate:
		err = p.messenger.SendList(conversationID, promptSizeEstimate, listButtonLabel, sizeSections)
	case StageHasElevator:
		err = p.messenger.SendButtons(conversationID, promptHasElevator, yesNoButtons)
	case StageNeedsPacking:
		err = p.messenger.SendButtons(conversationID, promptNeedsPacking, yesNoButtons)
	case StageName:
		err = p.messenger.SendText(conversationID, promptName)
	case StageEmail:
		err = p.messenger.SendText(conversationID, promptEmail)
	case StageDate:
		err = p.messenger.SendText(conversationID, promptDate)
	case StageWantsItemList:
		err = p.messenger.SendButtons(conversationID, promptItemList, yesNoButtons)
	case StageItemListText:
		err = p.messenger.SendText(conversationID, promptItemListText)
	}
	if err != nil {
		p.log.Warn("sending prompt",
			slog.String("conversation_id", conversationID),
			slog.String("stage", string(stage)),
			sl.Err(err),
		)
	}
}

// abort is the single unrecoverable-failure path: drop the session and tell
// the user to restart.
func (p *Processor) abort(ctx context.Context, conversationID string, cause error) {
	p.log.With(
		slog.String("conversation_id", conversationID),
	).Error("turn failed, tearing session down", sl.Err(cause))

	if err := p.store.Remove(ctx, conversationID); err != nil {
		p.log.Error("removing failed session", sl.Err(err))
	}
	_ = p.messenger.SendText(conversationID, msgFailure)

	p.notify(entity.IntakeEvent{
		Type:           entity.EventSessionFailed,
		ConversationID: conversationID,
	})
}

func (p *Processor) notify(ev entity.IntakeEvent) {
	if p.listener == nil {
		return
	}
	ev.CreatedAt = time.Now()
	p.listener.OnIntakeEvent(ev)
}
