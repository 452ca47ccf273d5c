package core

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"Sobaken/bot/chat"
	"Sobaken/entity"
	"Sobaken/internal/lib/sl"
	"Sobaken/internal/scheduler"
)

var (
	ErrNoJournal    = errors.New("event journal not configured")
	ErrUnauthorized = errors.New("invalid api key")
)

const saveTimeout = 5 * time.Second

type Repository interface {
	SaveChatEvent(ctx context.Context, ev entity.ChatEvent) error
	ChatEvents(ctx context.Context, chatID string, limit int64) ([]entity.ChatEvent, error)
}

type Broadcaster interface {
	BroadcastChatEvent(ev entity.ChatEvent)
}

type Engine interface {
	State(chatID chat.ChatID) chat.State
	Reset(chatID chat.ChatID) error
}

type Snapshotter interface {
	Snapshot() map[chat.ChatID]chat.State
}

type Chains interface {
	Get(chatID string) (scheduler.ChainInfo, bool)
	List() []scheduler.ChainInfo
}

type Core struct {
	repo    Repository
	hub     Broadcaster
	engine  Engine
	chains  Chains
	store   Snapshotter
	authKey string
	log     *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetBroadcaster(hub Broadcaster) {
	c.hub = hub
}

func (c *Core) SetEngine(engine Engine) {
	c.engine = engine
}

func (c *Core) SetChains(chains Chains) {
	c.chains = chains
}

func (c *Core) SetStore(store Snapshotter) {
	c.store = store
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

// OnChatEvent fans a state change out to the dashboard and the journal.
// The journal write runs in the background so chains never wait on the database.
func (c *Core) OnChatEvent(ev entity.ChatEvent) {
	if c.hub != nil {
		c.hub.BroadcastChatEvent(ev)
	}
	if c.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := c.repo.SaveChatEvent(ctx, ev); err != nil {
			c.log.With(
				slog.String("chat_id", ev.ChatID),
				sl.Err(err),
			).Warn("save chat event")
		}
	}()
}

func (c *Core) AuthenticateByToken(token string) error {
	if c.authKey == "" || token != c.authKey {
		return ErrUnauthorized
	}
	return nil
}

func (c *Core) ChatStatus(chatID string) entity.ChatStatus {
	status := entity.ChatStatus{
		ChatID: chatID,
		State:  c.engine.State(chat.ChatID(chatID)).String(),
	}
	if c.chains == nil {
		return status
	}
	if info, ok := c.chains.Get(chatID); ok {
		status.ChainID = info.ID
		status.ChainStep = info.Step
		next := info.NextAt
		status.NextAt = &next
	}
	return status
}

// ActiveChats lists every chat that is not Idle, sorted by chat id.
func (c *Core) ActiveChats() []entity.ChatStatus {
	if c.store == nil {
		return []entity.ChatStatus{}
	}
	snapshot := c.store.Snapshot()
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	result := make([]entity.ChatStatus, 0, len(ids))
	for _, id := range ids {
		result = append(result, c.ChatStatus(id))
	}
	return result
}

func (c *Core) ResetChat(chatID string) error {
	err := c.engine.Reset(chat.ChatID(chatID))
	if err != nil {
		return err
	}
	c.log.With(
		slog.String("chat_id", chatID),
	).Info("chat reset")
	return nil
}

func (c *Core) ChatEvents(ctx context.Context, chatID string, limit int64) ([]entity.ChatEvent, error) {
	if c.repo == nil {
		return nil, ErrNoJournal
	}
	return c.repo.ChatEvents(ctx, chatID, limit)
}

func (c *Core) ActiveChains() []scheduler.ChainInfo {
	if c.chains == nil {
		return []scheduler.ChainInfo{}
	}
	return c.chains.List()
}
