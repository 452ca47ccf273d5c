package entity

import "time"

// ChatStatus is the admin view of one conversation.
type ChatStatus struct {
	ChatID    string     `json:"chat_id"`
	State     string     `json:"state"`
	ChainID   string     `json:"chain_id,omitempty"`
	ChainStep string     `json:"chain_step,omitempty"`
	NextAt    *time.Time `json:"next_at,omitempty"`
}
