package entity

import "time"

// ChatEvent records one conversation state change.
type ChatEvent struct {
	ChatID  string    `json:"chat_id" bson:"chat_id"`
	From    string    `json:"from" bson:"from"`
	To      string    `json:"to" bson:"to"`
	Trigger string    `json:"trigger" bson:"trigger"`
	ChainID string    `json:"chain_id,omitempty" bson:"chain_id,omitempty"`
	Time    time.Time `json:"time" bson:"time"`
}
