package chat

import "Sobaken/entity"

// EventListener is notified of every state change, whether caused by a user
// event or a chain step. It lets the journal and the admin feed observe the
// engine without the engine importing them.
type EventListener interface {
	OnChatEvent(ev entity.ChatEvent)
}
