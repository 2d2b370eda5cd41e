package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/config"
	"github.com/sguter90/agrimaestro/pkg/database"
	"github.com/sguter90/agrimaestro/pkg/logging"
	"github.com/spf13/cobra"
)

type appContextKey struct{}

// App carries what every command needs. The database is opened on first use
// so commands like `rules show` work without Postgres.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	db     *database.DatabaseManager
}

// DB returns the database manager, connecting on first call
func (a *App) DB() (*database.DatabaseManager, error) {
	if a.db != nil {
		return a.db, nil
	}

	dm, err := database.NewDatabaseManager(a.Config.DSN(), a.Config.Database.HealthCheckInterval, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = dm
	return dm, nil
}

// Close releases the database connection if one was opened
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agrimaestro",
	Short: "AgriMaestro - Community Farm Sensor Platform",
	Long: `AgriMaestro ingests readings from field sensor devices, raises crop alerts
and serves the community dashboards.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		app := appFromContext(cmd.Context())
		app.Config = cfg
		app.Logger = logging.New(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
}

func appFromContext(ctx context.Context) *App {
	return ctx.Value(appContextKey{}).(*App)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &App{Logger: zerolog.Nop()}
	defer app.Close()

	ctx = context.WithValue(ctx, appContextKey{}, app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		app.Close()
		os.Exit(1)
	}
}
