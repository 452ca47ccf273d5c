package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMachine() *Machine {
	return NewMachine(MachineOptions{
		Durations: []DurationChoice{
			{Payload: "10", Label: "In 10 minutes", Wait: 10 * time.Minute},
			{Payload: "60", Label: "In 1 hour", Wait: time.Hour},
		},
		ReminderAfter:    10 * time.Second,
		StatusPhotoDelay: 10 * time.Second,
	})
}

func decide(t *testing.T, r *Router, st State, in UserInput) (Decision, bool) {
	t.Helper()
	h, ok := r.Match(st, in)
	if !ok {
		return Decision{}, false
	}
	return h(in), true
}

func TestLifecycleTable(t *testing.T) {
	r := NewLifecycleRouter(testMachine(), "How is my dog?")

	tests := []struct {
		name       string
		state      State
		input      UserInput
		transition bool
		next       State
		replies    []NoticeKind
		chain      bool
	}{
		{"start", Idle, Command("start"), true, AwaitingDropoffConfirm, []NoticeKind{NoticeWelcome, NoticeDropoffOffer}, false},
		{"start button", Idle, Button(PayloadStart, ""), true, AwaitingDropoffConfirm, []NoticeKind{NoticeWelcome, NoticeDropoffOffer}, false},
		{"dropoff", AwaitingDropoffConfirm, Button(PayloadDropoff, ""), true, AwaitingDuration, []NoticeKind{NoticeDurationPrompt}, false},
		{"duration", AwaitingDuration, Button("60", ""), true, Walking, []NoticeKind{NoticeDurationConfirmed}, true},
		{"status", Walking, Text("How is my dog?"), false, Walking, []NoticeKind{NoticeStatusPending}, false},
		{"help command", ReadyForPickup, Command("HELP"), false, Idle, []NoticeKind{NoticeHelp}, false},
		{"free text", AwaitingDuration, Text("hello"), false, Idle, []NoticeKind{NoticeHelp}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := decide(t, r, tt.state, tt.input)
			require.True(t, ok)
			require.True(t, d.Handled)

			assert.Equal(t, tt.transition, d.Transition)
			if tt.transition {
				assert.Equal(t, tt.next, d.Next)
			}

			kinds := make([]NoticeKind, len(d.Replies))
			for i, n := range d.Replies {
				kinds[i] = n.Kind
			}
			assert.Equal(t, tt.replies, kinds)
			assert.Equal(t, tt.chain, len(d.Chain) > 0)
		})
	}
}

func TestRouterMisses(t *testing.T) {
	r := NewLifecycleRouter(testMachine(), "How is my dog?")

	_, ok := r.Match(Idle, Button(PayloadDropoff, ""))
	assert.False(t, ok)

	_, ok = r.Match(Walking, Command("start"))
	assert.False(t, ok)

	_, ok = r.Match(ReadyForPickup, Button("10", ""))
	assert.False(t, ok)
}

func TestButtonPayloadsAreCaseSensitive(t *testing.T) {
	r := NewLifecycleRouter(testMachine(), "How is my dog?")

	_, ok := r.Match(AwaitingDropoffConfirm, Button("DROPOFF", ""))
	assert.False(t, ok)
}

func TestUnknownDurationIsRejected(t *testing.T) {
	r := NewLifecycleRouter(testMachine(), "How is my dog?")

	d, ok := decide(t, r, AwaitingDuration, Button("99", ""))
	require.True(t, ok)
	assert.False(t, d.Handled)
	assert.Empty(t, d.Replies)
}

func TestChainTiming(t *testing.T) {
	m := testMachine()

	steps := m.Chain(DurationChoice{Payload: "x", Label: "x", Wait: 61 * time.Second})
	require.Len(t, steps, 3)

	assert.Equal(t, 10*time.Second, steps[0].Delay)
	assert.Equal(t, Walking, steps[0].Next)

	assert.Equal(t, 30500*time.Millisecond, steps[1].Delay)
	assert.Equal(t, ReadyForPickup, steps[1].Next)

	assert.Equal(t, 30500*time.Millisecond, steps[2].Delay)
	assert.Equal(t, Idle, steps[2].Next)
	require.Len(t, steps[2].FollowUp, 1)
	assert.Equal(t, NoticeRestart, steps[2].FollowUp[0].Kind)
}

func TestStatusDefersRestingPhoto(t *testing.T) {
	d := testMachine().Status(Text("How is my dog?"))

	require.NotNil(t, d.Deferred)
	assert.Equal(t, 10*time.Second, d.Deferred.Delay)
	assert.Equal(t, NoticeStatusPhoto, d.Deferred.Notices[0].Kind)
	assert.False(t, d.Transition)
}

func TestStateText(t *testing.T) {
	for _, st := range States() {
		text, err := st.MarshalText()
		require.NoError(t, err)

		var back State
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("sleeping")))
	assert.Equal(t, "state(42)", State(42).String())
}
