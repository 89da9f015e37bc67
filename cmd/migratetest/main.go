package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/sqlite"
	"github.com/myrjola/interrogation/internal/testhelpers"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err          error
		start        = time.Now()
		ctx          context.Context
		databasePath string
		ok           bool
		cancel       context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if databasePath, ok = os.LookupEnv("DATABASE_PATH"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "DATABASE_PATH not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, databasePath, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("path", databasePath), errors.SlogError(err))
		os.Exit(1)
	}

	// Fetch the number of suspects from the database and print it out as a simple smoke test.
	row := db.ReadOnly.QueryRowContext(ctx, `SELECT COUNT(*) FROM People`)
	var count int
	if err = row.Scan(&count); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error fetching people count", errors.SlogError(err))
		os.Exit(1)
	}
	if count == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "no people found, something is likely wrong")
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "people count", slog.Int("count", count))

	if err = db.Close(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
