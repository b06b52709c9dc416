package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusCheck is one client-reported status ping.
type StatusCheck struct {
	ID         string    `bson:"id" json:"id"`
	ClientName string    `bson:"client_name" json:"client_name"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// CreateStatusCheck records a status check for the named client.
func (s *Store) CreateStatusCheck(ctx context.Context, clientName string) (*StatusCheck, error) {
	check := &StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}

	if _, err := s.db.Collection(statusChecksCollection).InsertOne(ctx, check); err != nil {
		return nil, fmt.Errorf("inserting status check: %w", err)
	}
	return check, nil
}

// ListStatusChecks returns up to limit status checks.
func (s *Store) ListStatusChecks(ctx context.Context, limit int64) ([]StatusCheck, error) {
	cursor, err := s.db.Collection(statusChecksCollection).Find(ctx, bson.M{}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("finding status checks: %w", err)
	}

	checks := make([]StatusCheck, 0)
	if err := cursor.All(ctx, &checks); err != nil {
		return nil, fmt.Errorf("decoding status checks: %w", err)
	}
	return checks, nil
}
