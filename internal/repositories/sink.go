package repositories

import (
	"context"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/models"
)

// ActionLogSink writes what the turn controller emits to GameLogs and People.
type ActionLogSink struct {
	logs   *GameLogRepository
	people *PeopleRepository
}

func NewActionLogSink(logs *GameLogRepository, people *PeopleRepository) *ActionLogSink {
	return &ActionLogSink{
		logs:   logs,
		people: people,
	}
}

func (s *ActionLogSink) Append(ctx context.Context, entry models.LogEntry) error {
	if _, err := s.logs.Append(ctx, entry); err != nil {
		return errors.Wrap(err, "append")
	}
	return nil
}

func (s *ActionLogSink) MarkExposed(ctx context.Context, personID int64) error {
	if err := s.people.MarkExposed(ctx, personID); err != nil {
		return errors.Wrap(err, "mark exposed")
	}
	return nil
}
