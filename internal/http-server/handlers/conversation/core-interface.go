package conversation

import (
	"Sobaken/entity"
	"Sobaken/internal/scheduler"
	"context"
)

type Core interface {
	ChatStatus(chatID string) entity.ChatStatus
	ActiveChats() []entity.ChatStatus
	ResetChat(chatID string) error
	ChatEvents(ctx context.Context, chatID string, limit int64) ([]entity.ChatEvent, error)
	ActiveChains() []scheduler.ChainInfo
}
