package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/sqlite"
)

var ErrPersonNotFound = errors.NewSentinel("person not found")

type PeopleRepository struct {
	readWrite *sqlx.DB
	readOnly  *sqlx.DB
	logger    *slog.Logger
}

func NewPeopleRepository(db *sqlite.Database, logger *slog.Logger) *PeopleRepository {
	return &PeopleRepository{
		readWrite: sqlx.NewDb(db.ReadWrite, "sqlite3"),
		readOnly:  sqlx.NewDb(db.ReadOnly, "sqlite3"),
		logger:    logger.With(slog.String("source", "PeopleRepository")),
	}
}

// List returns every person ordered by Id. People without a stored rank have an empty Rank.
func (r *PeopleRepository) List(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	stmt := `SELECT p.Id, p.Name, p.IsExposed, COALESCE(r.Rank, '') AS Rank
FROM People p
LEFT JOIN PersonRanks r ON r.PersonId = p.Id
ORDER BY p.Id`
	if err := r.readOnly.SelectContext(ctx, &people, stmt); err != nil {
		return nil, errors.Wrap(err, "select people")
	}
	return people, nil
}

// SaveRanks stores the rank of each person that has one.
func (r *PeopleRepository) SaveRanks(ctx context.Context, people []models.Person) error {
	tx, err := r.readWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer r.rollback(ctx, tx)

	for _, p := range people {
		if p.Rank == "" {
			continue
		}
		if err = saveRank(ctx, tx, p); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit ranks")
	}
	return nil
}

// Insert adds people with their ranks and returns them with the assigned IDs.
func (r *PeopleRepository) Insert(ctx context.Context, people []models.Person) ([]models.Person, error) {
	tx, err := r.readWrite.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	defer r.rollback(ctx, tx)

	inserted := make([]models.Person, 0, len(people))
	for _, p := range people {
		var res sql.Result
		if res, err = tx.NamedExecContext(ctx,
			`INSERT INTO People (Name, IsExposed) VALUES (:Name, :IsExposed)`, p); err != nil {
			return nil, errors.Wrap(err, "insert person", slog.String("name", p.Name))
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return nil, errors.Wrap(err, "last insert id")
		}
		if p.Rank != "" {
			if err = saveRank(ctx, tx, p); err != nil {
				return nil, err
			}
		}
		inserted = append(inserted, p)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit people")
	}
	return inserted, nil
}

// MarkExposed sets IsExposed of the person. Exposure is never undone.
func (r *PeopleRepository) MarkExposed(ctx context.Context, personID int64) error {
	res, err := r.readWrite.ExecContext(ctx, `UPDATE People SET IsExposed = 1 WHERE Id = ?`, personID)
	if err != nil {
		return errors.Wrap(err, "update people", slog.Int64("person_id", personID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrap(ErrPersonNotFound, "mark exposed", slog.Int64("person_id", personID))
	}
	return nil
}

func saveRank(ctx context.Context, tx *sqlx.Tx, p models.Person) error {
	stmt := `INSERT INTO PersonRanks (PersonId, Rank) VALUES (:Id, :Rank)
ON CONFLICT (PersonId) DO UPDATE SET Rank = excluded.Rank`
	if _, err := tx.NamedExecContext(ctx, stmt, p); err != nil {
		return errors.Wrap(err, "save rank", slog.Int64("person_id", p.ID), slog.String("rank", string(p.Rank)))
	}
	return nil
}

func (r *PeopleRepository) rollback(ctx context.Context, tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		err = errors.Wrap(err, "rollback")
		r.logger.LogAttrs(ctx, slog.LevelError, "could not rollback transaction", errors.SlogError(err))
	}
}
