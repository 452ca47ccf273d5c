package chat

import (
	"time"
)

// Button payloads owned by the lifecycle.
const (
	PayloadStart   = "start"
	PayloadDropoff = "dropoff"
)

// DurationChoice maps a duration button payload to a fixed wait.
type DurationChoice struct {
	Payload string
	Label   string
	Wait    time.Duration
}

// ChainStep is one delayed step of a drop-off chain. Notices are sent, the
// chat moves to Next, then FollowUp notices are sent.
type ChainStep struct {
	Name     string
	Delay    time.Duration
	Notices  []Notice
	Next     State
	FollowUp []Notice
}

// Deferred is a single delayed send that does not touch the store.
type Deferred struct {
	Delay   time.Duration
	Notices []Notice
}

// Decision is what the machine wants done for one input.
// A zero Decision is a rejection.
type Decision struct {
	Handled    bool
	Replies    []Notice
	Transition bool
	Next       State
	Chain      []ChainStep
	Deferred   *Deferred
}

func reply(notices ...Notice) Decision {
	return Decision{Handled: true, Replies: notices}
}

func transition(next State, notices ...Notice) Decision {
	return Decision{Handled: true, Replies: notices, Transition: true, Next: next}
}

type MachineOptions struct {
	Durations        []DurationChoice
	ReminderAfter    time.Duration
	StatusPhotoDelay time.Duration
}

// Machine holds the lifecycle decisions. It never performs side effects.
type Machine struct {
	durations        map[string]DurationChoice
	reminderAfter    time.Duration
	statusPhotoDelay time.Duration
}

func NewMachine(opts MachineOptions) *Machine {
	m := &Machine{
		durations:        make(map[string]DurationChoice, len(opts.Durations)),
		reminderAfter:    opts.ReminderAfter,
		statusPhotoDelay: opts.StatusPhotoDelay,
	}
	for _, d := range opts.Durations {
		m.durations[d.Payload] = d
	}
	return m
}

// Start greets an Idle chat and offers the drop-off button.
func (m *Machine) Start(_ UserInput) Decision {
	return transition(AwaitingDropoffConfirm, notice(NoticeWelcome), notice(NoticeDropoffOffer))
}

func (m *Machine) Dropoff(_ UserInput) Decision {
	return transition(AwaitingDuration, notice(NoticeDurationPrompt))
}

// ChooseDuration starts the walk for a known payload and rejects anything else.
func (m *Machine) ChooseDuration(in UserInput) Decision {
	choice, ok := m.durations[in.Data]
	if !ok {
		return Decision{}
	}
	d := transition(Walking, notice(NoticeDurationConfirmed, choice.Label))
	d.Chain = m.Chain(choice)
	return d
}

func (m *Machine) Status(_ UserInput) Decision {
	d := reply(notice(NoticeStatusPending))
	d.Deferred = &Deferred{
		Delay:   m.statusPhotoDelay,
		Notices: []Notice{notice(NoticeStatusPhoto)},
	}
	return d
}

func (m *Machine) Help(_ UserInput) Decision {
	return reply(notice(NoticeHelp))
}

// Chain builds the three notification steps for a chosen wait: a reminder,
// a walk photo halfway through and the completion at the end.
func (m *Machine) Chain(choice DurationChoice) []ChainStep {
	half := choice.Wait / 2
	return []ChainStep{
		{
			Name:    "reminder",
			Delay:   m.reminderAfter,
			Notices: []Notice{notice(NoticeReminder)},
			Next:    Walking,
		},
		{
			Name:    "walk_photo",
			Delay:   half,
			Notices: []Notice{notice(NoticeWalkPhoto)},
			Next:    ReadyForPickup,
		},
		{
			Name:     "completion",
			Delay:    choice.Wait - half,
			Notices:  []Notice{notice(NoticeCompletion)},
			Next:     Idle,
			FollowUp: []Notice{notice(NoticeRestart)},
		},
	}
}
