package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkovalev/agentgate/internal/agent"
	"github.com/dkovalev/agentgate/internal/auth"
	"github.com/dkovalev/agentgate/internal/config"
	"github.com/dkovalev/agentgate/internal/store"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	client, st, err := provideStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.client = client
	a.Store = st

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Tokens = auth.NewService(cfg.JWTSecret, 0)

	a.Agents = agent.NewRegistry(provideAgentFactory(a), logger)

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// provideStore connects to MongoDB, wraps the configured database, and
// ensures the indexes the adapters rely on.
func provideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mongo.Client, *store.Store, error) {
	client, err := store.Connect(ctx, cfg.MongoURL)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(client.Database(cfg.DBName), logger)
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	logger.Info("document store ready", "database", cfg.DBName)
	return client, st, nil
}

// provideGenkit initializes Genkit with the Gemini provider. The
// GoogleAI plugin reads GEMINI_API_KEY from the environment itself.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with gemini provider")
	}
	logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	return g, nil
}

// provideAgentFactory returns the construction callback the registry
// invokes at most once per agent type. Construction reads from the App,
// so the factory must be created after Genkit is initialized.
func provideAgentFactory(a *App) agent.Factory {
	return func(ctx context.Context, kind string) (agent.Agent, error) {
		switch kind {
		case agent.KindChat:
			return agent.NewChatAgent(a.Genkit, a.Config.ModelName, a.Logger)
		case agent.KindSearch:
			return agent.NewSearchAgent(agent.SearchConfig{
				Genkit:     a.Genkit,
				ModelName:  a.Config.ModelName,
				SearXNGURL: a.Config.SearXNG.BaseURL,
				Logger:     a.Logger,
			})
		default:
			return nil, fmt.Errorf("no factory for agent type %q", kind)
		}
	}
}
