package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/de-tools/data-pump/pkg/pump/synthetic"
	"github.com/de-tools/data-pump/pkg/services/config"
	"github.com/de-tools/data-pump/pkg/services/pumps"
	"github.com/de-tools/data-pump/pkg/services/report"
	"github.com/de-tools/data-pump/pkg/store/duckdb"
	"github.com/de-tools/data-pump/pkg/store/duckdb/reports"
	"github.com/rs/zerolog"
)

// App holds everything a binary needs after configuration has been loaded.
type App struct {
	Config  *config.AppConfig
	Logger  zerolog.Logger
	Service *report.Service

	db     *sql.DB
	loader *pumps.Loader
}

// NewLogger builds the process logger at the configured level.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// New opens the report store, registers the built-in and configured pumps
// and assembles the report service.
func New(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*App, error) {
	ctx = logger.WithContext(ctx)

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath:  cfg.Store.Path,
		Threads: cfg.Store.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}

	store, err := reports.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create report store: %w", err)
	}

	profiles := config.NewEmptyRegistry()
	if cfg.Profiles != "" {
		profiles, err = config.NewRegistry(cfg.Profiles)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load profiles from %s: %w", cfg.Profiles, err)
		}
		names, _ := profiles.GetProfiles(ctx)
		logger.Info().Str("path", cfg.Profiles).Strs("profiles", names).Msg("profiles loaded")
	}

	registry := pump.NewRegistry()
	if err := synthetic.Register(registry); err != nil {
		db.Close()
		return nil, err
	}
	loader := pumps.NewLoader(profiles)
	if err := loader.Register(ctx, registry, cfg.Pumps); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register pumps: %w", err)
	}

	logger.Debug().Str("store", cfg.Store.Path).Strs("pumps", registry.List()).Msg("report service ready")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Service: report.NewService(store, report.NewEngine(registry)),
		db:      db,
		loader:  loader,
	}, nil
}

// Close releases pump connections and the report store.
func (a *App) Close() error {
	return errors.Join(a.loader.Close(), a.db.Close())
}
