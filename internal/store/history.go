package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatMessage is one persisted request/response exchange owned by an
// identity. Immutable once written.
type ChatMessage struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Message   string    `bson:"message" json:"message"`
	Response  string    `bson:"response" json:"response"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// AppendMessage persists one exchange. ID and Timestamp are assigned
// when unset.
func (s *Store) AppendMessage(ctx context.Context, msg *ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if _, err := s.db.Collection(chatMessagesCollection).InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}

	s.logger.Debug("appended chat message", "id", msg.ID, "user_id", msg.UserID)
	return nil
}

// RecentMessages returns at most limit exchanges for the identity,
// newest first. An identity with no history yields an empty slice, not
// an error.
func (s *Store) RecentMessages(ctx context.Context, userID string, limit int64) ([]ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.db.Collection(chatMessagesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding chat messages: %w", err)
	}

	messages := make([]ChatMessage, 0, limit)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decoding chat messages: %w", err)
	}
	return messages, nil
}
