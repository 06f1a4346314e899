// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, database opening and store setup to reduce
// boilerplate across commands.
package appctx

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/config"
	"github.com/lherron/pomokan/internal/db"
	"github.com/lherron/pomokan/internal/notify"
	"github.com/lherron/pomokan/internal/store"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// DB is the opened database connection (nil if NeedsDB is false)
	DB *db.DB

	// Store wraps DB (nil if NeedsDB is false)
	Store *store.Store
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
		a.Store = nil
	}
}

// Notifier returns the reload notifier for the configured webhooks
func (a *App) Notifier() *notify.Notifier {
	return notify.New(a.Config.ReloadWebhooks)
}

// Debugf logs only when log_level is debug
func (a *App) Debugf(format string, args ...any) {
	if a.Config != nil && a.Config.Debug() {
		log.Printf(format, args...)
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDB indicates whether to open the database.
	NeedsDB bool

	// Migrate applies pending migrations instead of refusing to run
	Migrate bool
}

// DefaultOptions returns default options (DB required, migrations must be current).
func DefaultOptions() Options {
	return Options{NeedsDB: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The database is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	app := &App{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Override DB path from --db flag if provided
	if dbFlag := cmd.Flag("db"); dbFlag != nil {
		if dbPath := dbFlag.Value.String(); dbPath != "" {
			app.Config.DBPath = dbPath
		}
	}

	if !opts.NeedsDB {
		return app, nil
	}

	database, err := db.Open(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Migrate {
		if _, err := database.MigrateWithInfo(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	} else if err := database.RequiresMigrationError(); err != nil {
		database.Close()
		return nil, err
	}

	app.DB = database
	app.Store = store.New(database)
	app.Store.SetLockTimeout(app.Config.LockTimeout)
	app.Debugf("opened %s (lock timeout %s)", app.Config.DBPath, app.Config.LockTimeout)
	return app, nil
}
