package repository

import (
	"Sobaken/entity"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const chatEventsCollection = "chat_events"

// SaveChatEvent appends one state change to the journal.
func (m *MongoDB) SaveChatEvent(ctx context.Context, ev entity.ChatEvent) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatEventsCollection)

	_, err = collection.InsertOne(ctx, ev)
	if err != nil {
		return fmt.Errorf("mongodb insert error: %w", err)
	}
	return nil
}

// ChatEvents returns the latest events of a chat, newest first.
func (m *MongoDB) ChatEvents(ctx context.Context, chatID string, limit int64) ([]entity.ChatEvent, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(chatEventsCollection)

	filter := bson.D{{Key: "chat_id", Value: chatID}}
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, m.findError(err)
	}
	defer cursor.Close(ctx)

	events := make([]entity.ChatEvent, 0)
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}
	return events, nil
}
