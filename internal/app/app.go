// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: the
// Genkit runtime, the document store, the token service, and the agent
// registry. Setup builds it, Close releases it.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkovalev/agentgate/internal/agent"
	"github.com/dkovalev/agentgate/internal/auth"
	"github.com/dkovalev/agentgate/internal/config"
	"github.com/dkovalev/agentgate/internal/store"
)

// disconnectTimeout bounds the MongoDB disconnect during shutdown.
const disconnectTimeout = 5 * time.Second

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit *genkit.Genkit
	Store  *store.Store
	Tokens *auth.Service
	Agents *agent.Registry

	client *mongo.Client
	cancel context.CancelFunc
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := a.client.Disconnect(ctx); err != nil {
			return err
		}
		if a.Logger != nil {
			a.Logger.Info("document store disconnected")
		}
	}

	return nil
}
