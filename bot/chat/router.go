package chat

import (
	"strings"
)

// AnyKey matches every key of an input kind within a state.
const AnyKey = "*"

// HandlerFunc turns one input into a decision.
type HandlerFunc func(in UserInput) Decision

type routeKey struct {
	state State
	kind  InputKind
	key   string
}

// Router is the dispatch table keyed by (state, input kind, key).
type Router struct {
	routes map[routeKey]HandlerFunc
}

func NewRouter() *Router {
	return &Router{routes: make(map[routeKey]HandlerFunc)}
}

// NewLifecycleRouter builds the drop-off lifecycle table once.
func NewLifecycleRouter(m *Machine, statusPhrase string) *Router {
	r := NewRouter()

	for _, st := range States() {
		r.Handle(st, InputCommand, "help", m.Help)
		r.Handle(st, InputText, AnyKey, m.Help)
	}

	r.Handle(Idle, InputCommand, "start", m.Start)
	r.Handle(Idle, InputButton, PayloadStart, m.Start)
	r.Handle(AwaitingDropoffConfirm, InputButton, PayloadDropoff, m.Dropoff)
	r.Handle(AwaitingDuration, InputButton, AnyKey, m.ChooseDuration)
	r.Handle(Walking, InputText, statusPhrase, m.Status)

	return r
}

func (r *Router) Handle(state State, kind InputKind, key string, h HandlerFunc) {
	r.routes[routeKey{state: state, kind: kind, key: normalizeKey(kind, key)}] = h
}

// Match looks up the exact key first, then the state's wildcard for that kind.
func (r *Router) Match(state State, in UserInput) (HandlerFunc, bool) {
	key := normalizeKey(in.Kind, inputKey(in))
	if h, ok := r.routes[routeKey{state: state, kind: in.Kind, key: key}]; ok {
		return h, true
	}
	h, ok := r.routes[routeKey{state: state, kind: in.Kind, key: AnyKey}]
	return h, ok
}

func inputKey(in UserInput) string {
	switch in.Kind {
	case InputCommand:
		return in.Command
	case InputButton:
		return in.Data
	default:
		return in.Text
	}
}

// normalizeKey folds case and surrounding space for commands and text.
// Button payloads are matched verbatim.
func normalizeKey(kind InputKind, key string) string {
	if key == AnyKey || kind == InputButton {
		return key
	}
	return strings.ToLower(strings.TrimSpace(key))
}
