// Package setup bootstraps the application dependencies in the correct
// order, ensuring each component has its requirements available before the
// gateway opens.
package setup

import (
	"github.com/robalyx/vigil/internal/history"
	"github.com/robalyx/vigil/internal/scoring"
	"github.com/robalyx/vigil/internal/setup/config"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config  *config.Config // Application configuration
	Logger  *zap.Logger    // Main application logger
	History history.Log    // Append-only message history log
	Scoring scoring.Client // Text-classification oracle client
}

// InitializeApp bootstraps all application dependencies. Configuration
// problems are returned as errors so the process refuses to start instead of
// running half-configured.
func InitializeApp(configDir string) (*App, error) {
	// Load app configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logger, err := GetLogger(cfg.Logging.Directory, cfg.Logging.Level, cfg.Logging.MaxLogsToKeep)
	if err != nil {
		return nil, err
	}

	// History log backs the author-analysis artifacts
	historyLog, err := history.NewFileLog(cfg.Bot.HistoryFile)
	if err != nil {
		return nil, err
	}

	scoringClient := scoring.NewPerspectiveClient(cfg.Scoring.Endpoint, cfg.Scoring.Key, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		History: historyLog,
		Scoring: scoringClient,
	}, nil
}

// Cleanup flushes buffered log entries on shutdown.
func (a *App) Cleanup() {
	_ = a.Logger.Sync()
}
