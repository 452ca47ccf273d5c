package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"Sobaken/bot/catalog"
	"Sobaken/bot/chat"
	"Sobaken/entity"
	"Sobaken/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	ChatID   chat.ChatID
	Op       string
	Text     string
	Photo    string
	Keyboard *chat.Keyboard
}

type fakeMessenger struct {
	mu     sync.Mutex
	sends  []sent
	acks   []string
	failOn string // fail the send whose text or caption equals this
	delay  time.Duration
}

func (m *fakeMessenger) SendText(chatID chat.ChatID, text string, keyboard *chat.Keyboard) error {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && text == m.failOn {
		return errors.New("network down")
	}
	m.sends = append(m.sends, sent{ChatID: chatID, Op: "text", Text: text, Keyboard: keyboard})
	return nil
}

func (m *fakeMessenger) SendPhoto(chatID chat.ChatID, photo, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && caption == m.failOn {
		return errors.New("network down")
	}
	m.sends = append(m.sends, sent{ChatID: chatID, Op: "photo", Text: caption, Photo: photo})
	return nil
}

func (m *fakeMessenger) AckCallback(callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, callbackID)
	return nil
}

func (m *fakeMessenger) sentTo(chatID chat.ChatID) []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sent
	for _, s := range m.sends {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

func (m *fakeMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = nil
}

type eventLog struct {
	mu     sync.Mutex
	events []entity.ChatEvent
}

func (l *eventLog) OnChatEvent(ev entity.ChatEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

type harness struct {
	engine    *chat.ChatEngine
	store     *chat.MemoryStore
	messenger *fakeMessenger
	scheduler *scheduler.Scheduler
	events    *eventLog
}

func newHarness(t *testing.T, wait time.Duration) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	durations := []chat.DurationChoice{
		{Payload: "10", Label: "in 10 minutes", Wait: wait},
		{Payload: "60", Label: "in 1 hour", Wait: 2 * wait},
	}
	machine := chat.NewMachine(chat.MachineOptions{
		Durations:        durations,
		ReminderAfter:    wait / 2,
		StatusPhotoDelay: time.Millisecond,
	})
	cat, err := catalog.New(catalog.Options{
		Resting:      []string{"rest.jpg"},
		Walk:         []string{"walk.jpg"},
		Durations:    durations,
		StatusPhrase: "How is my dog?",
	})
	require.NoError(t, err)

	h := &harness{
		store:     chat.NewMemoryStore(),
		messenger: &fakeMessenger{},
		scheduler: scheduler.New(log),
		events:    &eventLog{},
	}
	t.Cleanup(h.scheduler.Stop)

	router := chat.NewLifecycleRouter(machine, "How is my dog?")
	h.engine = chat.NewChatEngine(h.store, router, cat, h.messenger, h.scheduler, log)
	h.engine.SetEventListener(h.events)
	return h
}

func (h *harness) handle(t *testing.T, chatID chat.ChatID, in chat.UserInput) {
	t.Helper()
	require.NoError(t, h.engine.HandleEvent(context.Background(), chatID, in))
}

func texts(sends []sent) []string {
	out := make([]string, len(sends))
	for i, s := range sends {
		out[i] = s.Text
	}
	return out
}

func TestFullCycleReturnsToIdle(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	const id chat.ChatID = "100"

	h.handle(t, id, chat.Command("start"))
	assert.Equal(t, chat.AwaitingDropoffConfirm, h.store.Get(id))

	h.handle(t, id, chat.Button("dropoff", "cb-1"))
	assert.Equal(t, chat.AwaitingDuration, h.store.Get(id))

	h.messenger.reset()
	h.handle(t, id, chat.Button("10", "cb-2"))
	assert.Equal(t, chat.Walking, h.store.Get(id))

	require.Eventually(t, func() bool {
		return !h.scheduler.Active(string(id)) && len(h.messenger.sentTo(id)) == 5
	}, time.Second, time.Millisecond)

	assert.Equal(t, chat.Idle, h.store.Get(id))

	sends := h.messenger.sentTo(id)
	assert.Equal(t, []string{
		"Drop-off confirmed. Pickup in 10 minutes.",
		"Dropoff reminder: your dog is on its walk.",
		"Photo from the walk",
		"Pickup time! Your dog is waiting for you.",
		"Welcome back! Start a new drop-off whenever you like.",
	}, texts(sends))
	assert.Equal(t, "photo", sends[2].Op)
	assert.Equal(t, "walk.jpg", sends[2].Photo)
	assert.Equal(t, []string{"cb-1", "cb-2"}, h.messenger.acks)

	h.events.mu.Lock()
	defer h.events.mu.Unlock()
	var path []string
	for _, ev := range h.events.events {
		path = append(path, ev.To)
	}
	assert.Equal(t, []string{
		"awaiting_dropoff_confirm", "awaiting_duration", "walking",
		"walking", "ready_for_pickup", "idle",
	}, path)
}

func TestRestartButtonStartsNewCycle(t *testing.T) {
	h := newHarness(t, 4*time.Millisecond)
	const id chat.ChatID = "7"

	h.handle(t, id, chat.Command("start"))
	h.handle(t, id, chat.Button("dropoff", ""))
	h.handle(t, id, chat.Button("10", ""))
	require.Eventually(t, func() bool { return !h.scheduler.Active(string(id)) }, time.Second, time.Millisecond)

	h.handle(t, id, chat.Button(chat.PayloadStart, ""))
	assert.Equal(t, chat.AwaitingDropoffConfirm, h.store.Get(id))
}

func TestHelpNeverChangesState(t *testing.T) {
	for _, st := range chat.States() {
		t.Run(st.String(), func(t *testing.T) {
			h := newHarness(t, time.Hour)
			const id chat.ChatID = "1"
			h.store.Set(id, st)

			h.handle(t, id, chat.Command("help"))

			assert.Equal(t, st, h.store.Get(id))
			sends := h.messenger.sentTo(id)
			require.Len(t, sends, 1)
			assert.Contains(t, sends[0].Text, "/start")
		})
	}
}

func TestInvalidDurationIsIgnored(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)

	h.handle(t, id, chat.Button("99", "cb"))

	assert.Equal(t, chat.AwaitingDuration, h.store.Get(id))
	assert.Empty(t, h.messenger.sentTo(id))
	assert.False(t, h.scheduler.Active(string(id)))
}

func TestWrongStateInputs(t *testing.T) {
	tests := []struct {
		name  string
		state chat.State
		input chat.UserInput
	}{
		{"dropoff while idle", chat.Idle, chat.Button("dropoff", "")},
		{"duration while idle", chat.Idle, chat.Button("10", "")},
		{"duration before dropoff", chat.AwaitingDropoffConfirm, chat.Button("10", "")},
		{"dropoff while walking", chat.Walking, chat.Button("dropoff", "")},
		{"start while walking", chat.Walking, chat.Command("start")},
		{"start while awaiting duration", chat.AwaitingDuration, chat.Command("start")},
		{"unknown command", chat.Idle, chat.Command("settings")},
		{"restart button while ready", chat.ReadyForPickup, chat.Button("start", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, time.Hour)
			const id chat.ChatID = "1"
			h.store.Set(id, tt.state)

			h.handle(t, id, tt.input)

			assert.Equal(t, tt.state, h.store.Get(id))
			assert.Empty(t, h.messenger.sentTo(id))
		})
	}
}

func TestFreeTextFallsThroughToHelp(t *testing.T) {
	for _, st := range chat.States() {
		t.Run(st.String(), func(t *testing.T) {
			h := newHarness(t, time.Hour)
			const id chat.ChatID = "1"
			h.store.Set(id, st)

			h.handle(t, id, chat.Text("where is the dog park?"))

			assert.Equal(t, st, h.store.Get(id))
			sends := h.messenger.sentTo(id)
			require.Len(t, sends, 1)
			assert.Contains(t, sends[0].Text, "These commands are supported")
		})
	}
}

func TestStatusPhraseWhileWalking(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.Walking)

	h.handle(t, id, chat.Text("  how is my DOG? "))

	require.Eventually(t, func() bool { return len(h.messenger.sentTo(id)) == 2 }, time.Second, time.Millisecond)
	sends := h.messenger.sentTo(id)
	assert.Equal(t, "One moment", sends[0].Text)
	assert.Equal(t, "photo", sends[1].Op)
	assert.Equal(t, "rest.jpg", sends[1].Photo)
	assert.Equal(t, chat.Walking, h.store.Get(id))
}

func TestStatusPhraseWhenReadyGetsHelp(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.ReadyForPickup)

	h.handle(t, id, chat.Text("How is my dog?"))

	sends := h.messenger.sentTo(id)
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0].Text, "These commands are supported")
}

func TestReplyFailureKeepsState(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)
	h.messenger.failOn = "Drop-off confirmed. Pickup in 10 minutes."

	err := h.engine.HandleEvent(context.Background(), id, chat.Button("10", ""))

	var te *chat.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "send_text", te.Op)
	assert.Equal(t, chat.AwaitingDuration, h.store.Get(id))
	assert.False(t, h.scheduler.Active(string(id)))
}

func TestChainSendFailureAbortsChain(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)
	h.messenger.failOn = "Photo from the walk"

	h.handle(t, id, chat.Button("10", ""))
	require.Eventually(t, func() bool { return !h.scheduler.Active(string(id)) }, time.Second, time.Millisecond)

	// The reminder went out, the walk photo failed, nothing after it ran.
	assert.Equal(t, chat.Walking, h.store.Get(id))
	assert.Equal(t, []string{
		"Drop-off confirmed. Pickup in 10 minutes.",
		"Dropoff reminder: your dog is on its walk.",
	}, texts(h.messenger.sentTo(id)))
}

func TestSecondChainForSameChatIsRejected(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)
	h.handle(t, id, chat.Button("10", ""))
	require.True(t, h.scheduler.Active(string(id)))

	// Force the chat back to the duration prompt while the first chain still runs.
	h.store.Set(id, chat.AwaitingDuration)
	h.messenger.reset()
	h.handle(t, id, chat.Button("60", ""))

	assert.Empty(t, h.messenger.sentTo(id))
	assert.Equal(t, chat.AwaitingDuration, h.store.Get(id))
}

func TestResetRefusedWhileChainRuns(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)
	h.handle(t, id, chat.Button("10", ""))

	assert.ErrorIs(t, h.engine.Reset(id), chat.ErrChainRunning)

	const other chat.ChatID = "2"
	h.store.Set(other, chat.AwaitingDuration)
	require.NoError(t, h.engine.Reset(other))
	assert.Equal(t, chat.Idle, h.engine.State(other))
}

func TestHundredChainsCompleteIndependently(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := chat.ChatID(fmt.Sprintf("chat-%d", i))
			h.store.Set(id, chat.AwaitingDuration)
			assert.NoError(t, h.engine.HandleEvent(context.Background(), id, chat.Button("10", "")))
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return h.store.Len() == 0 }, 3*time.Second, 5*time.Millisecond)

	for i := 0; i < 100; i++ {
		id := chat.ChatID(fmt.Sprintf("chat-%d", i))
		assert.Equal(t, chat.Idle, h.store.Get(id))
		require.Eventually(t, func() bool { return len(h.messenger.sentTo(id)) == 5 }, time.Second, time.Millisecond)
		sends := h.messenger.sentTo(id)
		assert.Equal(t, "Pickup time! Your dog is waiting for you.", sends[3].Text, id)
	}
}

func TestDoubleTapStartsOneWalk(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "1"
	h.store.Set(id, chat.AwaitingDuration)
	h.messenger.delay = 20 * time.Millisecond

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.engine.HandleEvent(context.Background(), id, chat.Button("10", ""))
		}()
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, []string{"Drop-off confirmed. Pickup in 10 minutes."}, texts(h.messenger.sentTo(id)))
	assert.Equal(t, chat.Walking, h.store.Get(id))
	assert.True(t, h.scheduler.Active(string(id)))
}

func TestCancelledContextSkipsReplies(t *testing.T) {
	h := newHarness(t, time.Hour)
	const id chat.ChatID = "2"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.engine.HandleEvent(ctx, id, chat.Command("start"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.messenger.sentTo(id))
	assert.Equal(t, chat.Idle, h.store.Get(id))
}
