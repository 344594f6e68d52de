package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MudaBot/entity"
)

type sentMessage struct {
	To   string
	Body string
}

type mockMessenger struct {
	mu      sync.Mutex
	Texts   []sentMessage
	Buttons []sentMessage
	Lists   []sentMessage
	TextErr error
}

func (m *mockMessenger) SendText(conversationID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TextErr != nil {
		return m.TextErr
	}
	m.Texts = append(m.Texts, sentMessage{To: conversationID, Body: text})
	return nil
}

func (m *mockMessenger) SendButtons(conversationID, prompt string, buttons []Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Buttons = append(m.Buttons, sentMessage{To: conversationID, Body: prompt})
	return nil
}

func (m *mockMessenger) SendList(conversationID, prompt, buttonLabel string, sections []ListSection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lists = append(m.Lists, sentMessage{To: conversationID, Body: prompt})
	return nil
}

func (m *mockMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Texts) == 0 {
		return ""
	}
	return m.Texts[len(m.Texts)-1].Body
}

type mockEstimator struct {
	Calls    int
	GotFacts entity.TripFacts
	Result   *entity.Estimate
	Err      error
}

func (m *mockEstimator) Estimate(ctx context.Context, facts entity.TripFacts) (*entity.Estimate, error) {
	m.Calls++
	m.GotFacts = facts
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

type mockSaver struct {
	Calls  int
	Result *entity.QuoteResult
	Err    error
}

func (m *mockSaver) Save(ctx context.Context, facts entity.TripFacts, estimate entity.Estimate) (*entity.QuoteResult, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

type mockListener struct {
	mu     sync.Mutex
	Events []entity.IntakeEvent
}

func (m *mockListener) OnIntakeEvent(ev entity.IntakeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

func (m *mockListener) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, ev := range m.Events {
		out = append(out, ev.Type)
	}
	return out
}

// staleGetStore serves one read with an hour-old prompt time, simulating a
// message whose guard checks raced an in-flight turn.
type staleGetStore struct {
	SessionStore
	staleOnce bool
}

func (s *staleGetStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	sess, err := s.SessionStore.Get(ctx, conversationID)
	if sess != nil && s.staleOnce {
		s.staleOnce = false
		sess.LastPromptAt = time.Now().Add(-time.Hour)
	}
	return sess, err
}

type processorFixture struct {
	store     *MemoryStore
	messenger *mockMessenger
	estimator *mockEstimator
	saver     *mockSaver
	listener  *mockListener
	processor *Processor
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		store:     NewMemoryStore(time.Hour, testLogger()),
		messenger: &mockMessenger{},
		estimator: &mockEstimator{
			Result: &entity.Estimate{
				DistanceKm:       98,
				PriceMin:         1200,
				PriceMax:         1800,
				Explanation:      "Mudança de médio porte entre capitais próximas.",
				OriginCity:       "São Paulo",
				OriginState:      "SP",
				DestinationCity:  "Campinas",
				DestinationState: "SP",
			},
		},
		saver: &mockSaver{
			Result: &entity.QuoteResult{
				RecordID:     "66f0c0ffee",
				TrackingCode: "A1B2C3D4",
				NotifiedCompanies: []entity.NotifiedCompany{
					{Name: "Mudanças Rápido", Phone: "+55 11 98888-0000"},
				},
			},
		},
		listener: &mockListener{},
	}

	f.processor = NewProcessor(f.store, f.messenger, f.estimator, f.saver, testLogger())
	f.processor.MinReplyInterval = 0
	f.processor.SetEventListener(f.listener)
	return f
}

const testConversation = "5511999990000"

func (f *processorFixture) handle(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, f.processor.HandleMessage(context.Background(), testConversation, text))
}

func TestHandleMessageActivation(t *testing.T) {
	t.Run("non-activation without session is dropped silently", func(t *testing.T) {
		f := newProcessorFixture()

		f.handle(t, "qualquer coisa")

		assert.Empty(t, f.messenger.Texts)
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Empty(t, f.listener.Events)
	})

	t.Run("greeting starts a session with a single welcome", func(t *testing.T) {
		f := newProcessorFixture()

		f.handle(t, "oi")

		require.Len(t, f.messenger.Texts, 1)
		assert.Equal(t, msgWelcome, f.messenger.Texts[0].Body)

		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, StageOrigin, sess.Stage)
		assert.False(t, sess.LastPromptAt.IsZero())

		assert.Equal(t, []string{entity.EventSessionStarted}, f.listener.types())
	})

	t.Run("activation text with an existing session is a normal answer", func(t *testing.T) {
		f := newProcessorFixture()

		f.handle(t, "oi")
		f.handle(t, "Olá Cidade - SP")

		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, StageDestination, sess.Stage)
		assert.Equal(t, "Olá Cidade - SP", sess.Facts.Origin)
	})
}

func TestHandleMessageGuards(t *testing.T) {
	t.Run("busy session answers immediately", func(t *testing.T) {
		f := newProcessorFixture()
		f.handle(t, "oi")
		require.NoError(t, f.store.MarkProcessing(context.Background(), testConversation, true))

		f.handle(t, "São Paulo - SP")

		assert.Equal(t, msgBusy, f.messenger.lastText())
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageOrigin, sess.Stage)
		assert.Empty(t, sess.Facts.Origin)
	})

	t.Run("guards re-apply to state refreshed under the lock", func(t *testing.T) {
		ctx := context.Background()
		mem := NewMemoryStore(time.Hour, testLogger())
		stale := &staleGetStore{SessionStore: mem}
		messenger := &mockMessenger{}
		estimator := &mockEstimator{}

		p := NewProcessor(stale, messenger, estimator, &mockSaver{}, testLogger())
		p.MinReplyInterval = time.Minute

		sess, err := mem.Create(ctx, testConversation)
		require.NoError(t, err)
		sess.LastPromptAt = time.Now()
		require.NoError(t, mem.Update(ctx, sess))

		// The first read returns a stale prompt time, so only the
		// under-lock re-read sees how recent the prompt really was.
		stale.staleOnce = true
		require.NoError(t, p.HandleMessage(ctx, testConversation, "São Paulo - SP"))

		assert.Equal(t, msgTooFast, messenger.lastText())
		assert.Equal(t, 0, estimator.Calls)

		fresh, err := mem.Get(ctx, testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageOrigin, fresh.Stage)
		assert.Empty(t, fresh.Facts.Origin)
	})

	t.Run("replies arriving too fast are asked to retry", func(t *testing.T) {
		f := newProcessorFixture()
		f.processor.MinReplyInterval = time.Minute
		f.handle(t, "oi")

		f.handle(t, "São Paulo - SP")

		assert.Equal(t, msgTooFast, f.messenger.lastText())
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageOrigin, sess.Stage)
		assert.Empty(t, sess.Facts.Origin)
	})
}

func TestHandleMessageValidation(t *testing.T) {
	t.Run("rejected answer re-prompts and keeps the stage", func(t *testing.T) {
		f := newProcessorFixture()
		f.handle(t, "oi")

		f.handle(t, "x")

		assert.Equal(t, []string{msgWelcome, msgTooShort, promptOrigin}, textBodies(f.messenger.Texts))
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageOrigin, sess.Stage)
		assert.Empty(t, sess.Facts.Origin)
	})

	t.Run("invalid email re-prompts", func(t *testing.T) {
		f := driveToStage(t, StageEmail)

		f.handle(t, "ana-exemplo.com")

		assert.Contains(t, textBodies(f.messenger.Texts), msgBadEmail)
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageEmail, sess.Stage)
		assert.Empty(t, sess.Facts.Email)
	})

	t.Run("invalid date re-prompts", func(t *testing.T) {
		f := driveToStage(t, StageDate)

		f.handle(t, "31/04/2027")

		assert.Contains(t, textBodies(f.messenger.Texts), msgBadDate)
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StageDate, sess.Stage)
	})

	t.Run("free text at a menu stage re-prompts with the menu", func(t *testing.T) {
		f := driveToStage(t, StagePropertyType)
		menusBefore := len(f.messenger.Lists)

		f.handle(t, "cobertura duplex")

		assert.Contains(t, textBodies(f.messenger.Texts), msgPickOption)
		assert.Greater(t, len(f.messenger.Lists), menusBefore)
		sess, err := f.store.Get(context.Background(), testConversation)
		require.NoError(t, err)
		assert.Equal(t, StagePropertyType, sess.Stage)
	})
}

// driveToStage walks the happy path up to (and including the prompt for)
// the wanted stage.
func driveToStage(t *testing.T, target Stage) *processorFixture {
	t.Helper()

	f := newProcessorFixture()
	answers := []struct {
		stage Stage
		text  string
	}{
		{StageOrigin, "São Paulo - SP"},
		{StageDestination, "Campinas - SP"},
		{StagePropertyType, "apartamento"},
		{StageSizeEstimate, "2_quartos"},
		{StageHasElevator, "sim"},
		{StageNeedsPacking, "nao"},
		{StageName, "Ana Souza"},
		{StageEmail, "Ana@Exemplo.com"},
		{StageDate, "15/10/2027"},
	}

	f.handle(t, "oi")
	for _, step := range answers {
		if step.stage == target {
			return f
		}
		f.handle(t, step.text)
	}
	return f
}

func textBodies(messages []sentMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Body)
	}
	return out
}

func TestHandleMessageFullDialogue(t *testing.T) {
	f := driveToStage(t, StageDate)
	ctx := context.Background()

	f.handle(t, "15/10/2027")
	f.handle(t, "nao") // no item list

	require.Equal(t, 1, f.estimator.Calls)
	require.Equal(t, 1, f.saver.Calls)

	// Collected facts arrive at the estimator intact.
	facts := f.estimator.GotFacts
	assert.Equal(t, "São Paulo - SP", facts.Origin)
	assert.Equal(t, "Campinas - SP", facts.Destination)
	assert.Equal(t, PropertyApartment, facts.PropertyType)
	assert.Equal(t, SizeTwoBedrooms, facts.SizeEstimate)
	assert.True(t, facts.HasElevator)
	assert.Equal(t, floorWithElevator, facts.Floor)
	assert.False(t, facts.NeedsPacking)
	assert.Equal(t, "Ana Souza", facts.ContactName)
	assert.Equal(t, "ana@exemplo.com", facts.Email)
	assert.Equal(t, "2027-10-15", facts.MovingDate)
	assert.False(t, facts.WantsItemList)

	// Last three texts: calculating, result, companies.
	bodies := textBodies(f.messenger.Texts)
	require.GreaterOrEqual(t, len(bodies), 3)
	assert.Equal(t, msgCalculating, bodies[len(bodies)-3])
	assert.Contains(t, bodies[len(bodies)-2], "A1B2C3D4")
	assert.Contains(t, bodies[len(bodies)-2], "R$ 1200.00 a R$ 1800.00")
	assert.Contains(t, bodies[len(bodies)-1], "Mudanças Rápido")

	sess, err := f.store.Get(ctx, testConversation)
	require.NoError(t, err)
	assert.Nil(t, sess, "session must be torn down after completion")

	types := f.listener.types()
	require.NotEmpty(t, types)
	assert.Equal(t, entity.EventSessionStarted, types[0])
	assert.Equal(t, entity.EventQuoteCompleted, types[len(types)-1])
}

func TestHandleMessageItemListBranch(t *testing.T) {
	f := driveToStage(t, StageDate)

	f.handle(t, "pular")
	f.handle(t, "sim")
	f.handle(t, "geladeira, sofá 3 lugares, cama de casal")

	require.Equal(t, 1, f.estimator.Calls)
	assert.Empty(t, f.estimator.GotFacts.MovingDate)
	assert.True(t, f.estimator.GotFacts.WantsItemList)
	assert.Equal(t, "geladeira, sofá 3 lugares, cama de casal", f.estimator.GotFacts.ItemList)
}

func TestHandleMessageFinalizationFailure(t *testing.T) {
	t.Run("estimator failure tears the session down without saving", func(t *testing.T) {
		f := driveToStage(t, StageDate)
		f.estimator.Err = errors.New("model unavailable")

		f.handle(t, "15/10/2027")
		err := f.processor.HandleMessage(context.Background(), testConversation, "nao")
		require.Error(t, err)

		assert.Equal(t, 0, f.saver.Calls)
		assert.Equal(t, msgFailure, f.messenger.lastText())

		sess, serr := f.store.Get(context.Background(), testConversation)
		require.NoError(t, serr)
		assert.Nil(t, sess)

		types := f.listener.types()
		assert.Equal(t, entity.EventSessionFailed, types[len(types)-1])
	})

	t.Run("saver failure tears the session down", func(t *testing.T) {
		f := driveToStage(t, StageDate)
		f.saver.Err = errors.New("write timeout")

		f.handle(t, "15/10/2027")
		err := f.processor.HandleMessage(context.Background(), testConversation, "nao")
		require.Error(t, err)

		assert.Equal(t, 1, f.estimator.Calls)
		assert.Equal(t, msgFailure, f.messenger.lastText())

		sess, serr := f.store.Get(context.Background(), testConversation)
		require.NoError(t, serr)
		assert.Nil(t, sess)
	})
}
