package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Sobaken/entity"
	"Sobaken/internal/lib/sl"
	"Sobaken/internal/metrics"
	"Sobaken/internal/scheduler"
)

// ErrChainRunning is returned by Reset while a chain still owns the chat.
var ErrChainRunning = errors.New("notification chain is running")

// Scheduler runs chains and deferred sends outside the request that started them.
type Scheduler interface {
	StartChain(chatID string, steps []scheduler.Step) (string, error)
	After(chatID string, delay time.Duration, fn func(ctx context.Context) error) error
	Active(chatID string) bool
}

// ChatEngine ties the store, router, catalog, messenger and scheduler together.
type ChatEngine struct {
	store     Store
	router    *Router
	catalog   Catalog
	messenger Messenger
	scheduler Scheduler
	listener  EventListener
	locks     *chatLocks
	log       *slog.Logger
}

func NewChatEngine(store Store, router *Router, catalog Catalog, messenger Messenger, sched Scheduler, log *slog.Logger) *ChatEngine {
	return &ChatEngine{
		store:     store,
		router:    router,
		catalog:   catalog,
		messenger: messenger,
		scheduler: sched,
		locks:     newChatLocks(),
		log:       log.With(sl.Module("chat.engine")),
	}
}

// SetEventListener sets the listener for state changes.
func (e *ChatEngine) SetEventListener(l EventListener) {
	e.listener = l
}

// State returns the current state of chatID.
func (e *ChatEngine) State(chatID ChatID) State {
	return e.store.Get(chatID)
}

// HandleEvent routes one inbound event against the chat's current state and
// carries out the decision. Events of one chat are handled one at a time.
// Routing misses are not errors.
func (e *ChatEngine) HandleEvent(ctx context.Context, chatID ChatID, in UserInput) error {
	log := e.log.With(
		slog.String("chat_id", string(chatID)),
		slog.String("kind", in.Kind.String()),
	)

	if in.Kind == InputButton && in.CallbackID != "" {
		if err := e.messenger.AckCallback(in.CallbackID); err != nil {
			metrics.RecordTransportError("ack")
			log.Warn("ack callback", sl.Err(err))
		}
	}

	unlock := e.locks.lock(chatID)
	defer unlock()

	state := e.store.Get(chatID)

	handler, ok := e.router.Match(state, in)
	if !ok {
		e.miss(log, state, in)
		return nil
	}

	d := handler(in)
	if !d.Handled {
		e.miss(log, state, in)
		return nil
	}

	if len(d.Chain) > 0 && e.scheduler.Active(string(chatID)) {
		log.Warn("chain already running, input ignored", slog.String("state", state.String()))
		return nil
	}

	if err := e.sendAll(ctx, chatID, d.Replies); err != nil {
		log.Error("reply failed", sl.Err(err))
		return err
	}

	if d.Transition {
		e.transition(chatID, state, d.Next, "input:"+in.Kind.String(), "")
	}

	if len(d.Chain) > 0 {
		id, err := e.scheduler.StartChain(string(chatID), e.chainSteps(chatID, d.Chain))
		if err != nil {
			log.Error("start chain", sl.Err(err))
			return fmt.Errorf("starting chain: %w", err)
		}
		log.Info("chain started", slog.String("chain_id", id))
	}

	if d.Deferred != nil {
		notices := d.Deferred.Notices
		err := e.scheduler.After(string(chatID), d.Deferred.Delay, func(ctx context.Context) error {
			return e.sendAll(ctx, chatID, notices)
		})
		if err != nil {
			log.Warn("schedule deferred notice", sl.Err(err))
		}
	}

	return nil
}

// Reset puts chatID back to Idle. It refuses while a chain is running since
// the chain would overwrite the state on its next step.
func (e *ChatEngine) Reset(chatID ChatID) error {
	unlock := e.locks.lock(chatID)
	defer unlock()

	if e.scheduler.Active(string(chatID)) {
		return ErrChainRunning
	}
	from := e.store.Get(chatID)
	if from != Idle {
		e.transition(chatID, from, Idle, "reset", "")
	}
	return nil
}

func (e *ChatEngine) miss(log *slog.Logger, state State, in UserInput) {
	metrics.RecordRoutingMiss(in.Kind.String())
	log.Debug("routing miss",
		slog.String("state", state.String()),
		slog.String("command", in.Command),
		slog.String("data", in.Data),
		sl.Err(ErrRoutingMiss),
	)
}

// chainSteps adapts lifecycle steps into scheduler steps. Each step sends its
// notices, writes its state, then sends its follow-ups.
func (e *ChatEngine) chainSteps(chatID ChatID, steps []ChainStep) []scheduler.Step {
	out := make([]scheduler.Step, 0, len(steps))
	for _, st := range steps {
		out = append(out, scheduler.Step{
			Name:  st.Name,
			Delay: st.Delay,
			Run: func(ctx context.Context) error {
				unlock := e.locks.lock(chatID)
				defer unlock()

				if err := e.sendAll(ctx, chatID, st.Notices); err != nil {
					return err
				}
				e.transition(chatID, e.store.Get(chatID), st.Next, "chain:"+st.Name, scheduler.ChainID(ctx))
				return e.sendAll(ctx, chatID, st.FollowUp)
			},
		})
	}
	return out
}

func (e *ChatEngine) transition(chatID ChatID, from, to State, trigger, chainID string) {
	e.store.Set(chatID, to)
	metrics.RecordTransition(from.String(), to.String())

	e.log.Debug("transition",
		slog.String("chat_id", string(chatID)),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("trigger", trigger),
	)

	if e.listener != nil {
		e.listener.OnChatEvent(entity.ChatEvent{
			ChatID:  string(chatID),
			From:    from.String(),
			To:      to.String(),
			Trigger: trigger,
			ChainID: chainID,
			Time:    time.Now(),
		})
	}
}

func (e *ChatEngine) sendAll(ctx context.Context, chatID ChatID, notices []Notice) error {
	for _, n := range notices {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.send(chatID, n); err != nil {
			return err
		}
	}
	return nil
}

func (e *ChatEngine) send(chatID ChatID, n Notice) error {
	p := e.catalog.Render(n.Kind, n.Args...)

	var err error
	op := "send_text"
	if p.Photo != "" {
		op = "send_photo"
		err = e.messenger.SendPhoto(chatID, p.Photo, p.Text)
	} else {
		err = e.messenger.SendText(chatID, p.Text, p.Keyboard)
	}
	if err != nil {
		metrics.RecordTransportError(op)
		return &TransportError{Op: op, ChatID: chatID, Err: err}
	}
	return nil
}
