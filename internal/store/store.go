// Package store provides the document-store adapters for the gateway:
// user records, identity-scoped chat history, and status checks, all
// backed by MongoDB collections.
//
// Uniqueness of usernames and emails is enforced by unique indexes
// created in EnsureIndexes; pre-insert lookups in CreateUser are a fast
// path for friendly error messages, the indexes are the authoritative
// guard against concurrent identical signups.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	usersCollection        = "users"
	chatMessagesCollection = "chat_messages"
	statusChecksCollection = "status_checks"
)

// connectTimeout bounds the initial connection and ping.
const connectTimeout = 10 * time.Second

// Sentinel errors surfaced by the adapters.
var (
	// ErrUserNotFound indicates no user record matched the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already exists")
)

// Store wraps the MongoDB database with typed adapters.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     *mongo.Database
	logger *slog.Logger
}

// Connect establishes a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// New creates a Store over the given database.
func New(db *mongo.Database, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Ping verifies the underlying connection (readiness probes).
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("pinging mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates the indexes the adapters rely on:
//   - unique username and unique email on users
//   - (user_id, timestamp desc) on chat_messages for history reads
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}

	_, err = s.db.Collection(chatMessagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating chat message index: %w", err)
	}

	s.logger.Debug("document store indexes ensured")
	return nil
}
