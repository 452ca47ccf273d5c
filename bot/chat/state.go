package chat

import "fmt"

// ChatID identifies the conversation owner. It keys the store and the scheduler.
type ChatID string

// State is where a single chat sits in the drop-off lifecycle.
// A chat with no stored state is Idle.
type State int

const (
	Idle State = iota
	AwaitingDropoffConfirm
	AwaitingDuration
	Walking
	ReadyForPickup
)

var stateNames = map[State]string{
	Idle:                   "idle",
	AwaitingDropoffConfirm: "awaiting_dropoff_confirm",
	AwaitingDuration:       "awaiting_duration",
	Walking:                "walking",
	ReadyForPickup:         "ready_for_pickup",
}

// States lists every lifecycle state in order.
func States() []State {
	return []State{Idle, AwaitingDropoffConfirm, AwaitingDuration, Walking, ReadyForPickup}
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state: %s", text)
}
