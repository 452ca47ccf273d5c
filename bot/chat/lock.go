package chat

import "sync"

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// chatLocks hands out one mutex per chat. Entries are dropped once nobody holds
// or waits for them.
type chatLocks struct {
	mu    sync.Mutex
	locks map[ChatID]*chatLock
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[ChatID]*chatLock)}
}

// lock blocks until chatID is free and returns its unlock func.
func (c *chatLocks) lock(chatID ChatID) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}

func (c *chatLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
