package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/engine"
	"github.com/mikey/mail-triage/internal/factory"
	"github.com/mikey/mail-triage/internal/logging"
	"github.com/mikey/mail-triage/internal/nlp"
	"github.com/mikey/mail-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// around an already-loaded configuration.
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewEmbeddingFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStateFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSettingsFactory); err != nil {
		return nil, err
	}

	// Register annotator
	if err := container.Provide(func(logger *zap.Logger) (core.Annotator, error) {
		return nlp.NewProseAnnotator(logger)
	}); err != nil {
		return nil, err
	}

	// Register embedding provider
	if err := container.Provide(func(f *factory.EmbeddingFactory) (core.EmbeddingProvider, error) {
		return f.CreateEmbeddingProvider()
	}); err != nil {
		return nil, err
	}

	// Register state store
	if err := container.Provide(func(f *factory.StateFactory) (core.StateStore, error) {
		return f.CreateStateStore()
	}); err != nil {
		return nil, err
	}

	// Register settings provider
	if err := container.Provide(func(f *factory.SettingsFactory) (core.SettingsProvider, error) {
		return f.CreateSettingsProvider()
	}); err != nil {
		return nil, err
	}

	// Register triage engine
	if err := container.Provide(func(
		annotator core.Annotator,
		settings core.SettingsProvider,
		embedder core.EmbeddingProvider,
		states core.StateStore,
		text *utils.TextProcessor,
		logger *zap.Logger,
	) (*engine.Service, error) {
		lockWait, err := cfg.GetDuration("engine.lock_wait")
		if err != nil {
			return nil, fmt.Errorf("invalid engine.lock_wait: %w", err)
		}
		if lockWait <= 0 {
			lockWait = 2 * time.Second
		}
		return engine.New(
			annotator,
			settings,
			embedder,
			states,
			text,
			logger,
			cfg.GetInt("engine.max_window_bytes"),
			lockWait,
		), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
