package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/interrogation/internal/config"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/logging"
	"github.com/myrjola/interrogation/internal/sqlite"
	"github.com/spf13/cobra"
)

// application is shared by the commands. It is filled in by the root command's PersistentPreRunE.
type application struct {
	cfg       config.Config
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
	dbPath    string
	seed      int64
}

func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	app := &application{
		cfg:       config.Config{},
		logger:    nil,
		lookupEnv: lookupEnv,
		dbPath:    "",
		seed:      0,
	}
	rootCmd := &cobra.Command{
		Use:   "interrogation",
		Short: "Turn-based interrogation game",
		Long: `Interrogate suspects by attaching sensors until the combination that exposes them is found.

Commands are read line by line from standard input; type help once the game has started.
Progress is stored in the SQLite database at DATABASE_PATH.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		RunE:              app.play,
	}
	rootCmd.PersistentFlags().StringVar(&app.dbPath, "db", "", "SQLite database path, overrides DATABASE_PATH")
	rootCmd.PersistentFlags().Int64Var(&app.seed, "seed", 0, "seed for weakness patterns, overrides INTERROGATION_SEED")

	rootCmd.AddGroup(&cobra.Group{ID: "data", Title: "Data commands"})
	rootCmd.AddCommand(app.seedCmd(), app.logsCmd())
	return rootCmd
}

func (app *application) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	cfg, err := config.Load(app.lookupEnv)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = app.dbPath
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = app.seed
	}
	app.cfg = cfg
	app.logger = logging.NewLogger(cmd.ErrOrStderr(), cfg.Level())
	return nil
}

func (app *application) openDatabase(ctx context.Context) (*sqlite.Database, error) {
	db, err := sqlite.NewDatabase(ctx, app.cfg.DatabasePath, app.logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("path", app.cfg.DatabasePath))
	}
	app.logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("path", app.cfg.DatabasePath))
	return db, nil
}

func (app *application) closeDatabase(ctx context.Context, db *sqlite.Database) {
	if err := db.Close(ctx); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "failed to close database", errors.SlogError(err))
	}
}

func main() {
	if err := newRootCmd(os.LookupEnv).ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
