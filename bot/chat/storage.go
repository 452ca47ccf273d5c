package chat

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// Store holds one State per chat. Absent chats read as Idle.
type Store interface {
	Get(chatID ChatID) State
	Set(chatID ChatID, state State)
}

type shard struct {
	mu     sync.RWMutex
	states map[ChatID]State
}

// MemoryStore is a sharded in-memory Store. Chats in different shards never
// contend for the same lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{states: make(map[ChatID]State)}
	}
	return s
}

func (s *MemoryStore) shardFor(chatID ChatID) *shard {
	return s.shards[xxhash.Sum64String(string(chatID))%shardCount]
}

func (s *MemoryStore) Get(chatID ChatID) State {
	sh := s.shardFor(chatID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return sh.states[chatID]
}

// Set stores state for chatID. Setting Idle drops the entry.
func (s *MemoryStore) Set(chatID ChatID, state State) {
	sh := s.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if state == Idle {
		delete(sh.states, chatID)
		return
	}
	sh.states[chatID] = state
}

// Len counts chats that are not Idle.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.states)
		sh.mu.RUnlock()
	}
	return n
}

// Snapshot copies every non-Idle chat state.
func (s *MemoryStore) Snapshot() map[ChatID]State {
	out := make(map[ChatID]State)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, st := range sh.states {
			out[id] = st
		}
		sh.mu.RUnlock()
	}
	return out
}
