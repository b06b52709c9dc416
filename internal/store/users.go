package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// User is one identity record. The password field holds only the bcrypt
// hash, never plaintext, and is excluded from JSON output.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// CreateUser inserts a new identity record and returns it. Username and
// email conflicts yield ErrUsernameTaken / ErrEmailTaken respectively;
// the pre-insert lookups give the distinct message, the unique indexes
// catch the concurrent-signup race on insert.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	users := s.db.Collection(usersCollection)

	// Fast-path conflict checks for distinct error messages.
	if err := users.FindOne(ctx, bson.M{"username": username}).Err(); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if err := users.FindOne(ctx, bson.M{"email": email}).Err(); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	user := &User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race against a concurrent identical signup;
			// identify which key conflicted for the right message.
			if lookupErr := users.FindOne(ctx, bson.M{"username": username}).Err(); lookupErr == nil {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "username", username)
	return user, nil
}

// UserByUsername looks up an identity record by its unique username.
// Returns ErrUserNotFound when no record matches.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", username, err)
	}
	return &user, nil
}
