package repositories

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/sqlite"
)

type GameLogRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
}

func NewGameLogRepository(db *sqlite.Database, logger *slog.Logger) *GameLogRepository {
	return &GameLogRepository{
		readWrite: sqlx.NewDb(db.ReadWrite, "sqlite3"),
		readOnly:  sqlx.NewDb(db.ReadOnly, "sqlite3"),
		logger:    logger.With(slog.String("source", "GameLogRepository")),
	}
}

// Append inserts entry as one GameLogs row and returns its Id.
func (r *GameLogRepository) Append(ctx context.Context, entry models.LogEntry) (int64, error) {
	stmt := `INSERT INTO GameLogs (PersonId, Action, Details, Timestamp)
VALUES (:PersonId, :Action, :Details, :Timestamp)`
	res, err := r.readWrite.NamedExecContext(ctx, stmt, entry)
	if err != nil {
		return 0, errors.Wrap(err, "insert game log",
			slog.Int64("person_id", entry.PersonID), slog.String("action", string(entry.Action)))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "last insert id")
	}
	return id, nil
}

// List returns log entries in insertion order. A personID of 0 lists every person and a limit of 0 lists everything.
func (r *GameLogRepository) List(ctx context.Context, personID int64, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	var entries []models.LogEntry
	stmt := `SELECT Id, PersonId, Action, COALESCE(Details, '') AS Details, Timestamp
FROM GameLogs
WHERE ? = 0 OR PersonId = ?
ORDER BY Id
LIMIT ?`
	if err := r.readOnly.SelectContext(ctx, &entries, stmt, personID, personID, limit); err != nil {
		return nil, errors.Wrap(err, "select game logs", slog.Int64("person_id", personID))
	}
	return entries, nil
}
