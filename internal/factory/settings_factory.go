package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/settings"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
)

// SettingsFactory creates settings providers based on configuration
type SettingsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSettingsFactory creates a new settings factory
func NewSettingsFactory(cfg *config.Config, logger *zap.Logger) *SettingsFactory {
	return &SettingsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSettingsProvider creates a settings provider based on the configuration
func (f *SettingsFactory) CreateSettingsProvider() (core.SettingsProvider, error) {
	providerType := f.cfg.GetString("settings.type")

	switch providerType {
	case "viper":
		return settings.NewViperProvider(f.cfg, f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("settings.sqlite_path")
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return settings.NewSQLiteProvider(sqlitePath, f.logger)
	default:
		return nil, fmt.Errorf("unsupported settings provider type: %s", providerType)
	}
}
