// Package game implements the turn-based interrogation state machine.
//
// A Controller owns one Session and the suspect roster. Each operation either applies completely or returns an
// error without changing anything; see errors.go for the taxonomy. Successful operations emit log entries that are
// handed to a Sink after the in-memory state has been updated.
package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/logging"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/pattern"
	"github.com/myrjola/interrogation/internal/policy"
	"github.com/myrjola/interrogation/internal/roster"
	"github.com/myrjola/interrogation/internal/sensors"
)

// Sink persists what the controller emits. Calls are synchronous and happen after the state change.
type Sink interface {
	Append(ctx context.Context, entry models.LogEntry) error
	MarkExposed(ctx context.Context, personID int64) error
}

// Config tunes a Controller. Zero values get defaults.
type Config struct {
	// Rand draws the seeds for pattern regeneration. Defaults to a randomly seeded generator.
	Rand *rand.Rand
	// Now stamps log entries. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Result describes a successful operation.
type Result struct {
	// Target is the active target after the operation. It is the zero Suspect when there is none.
	Target models.Suspect
	// Entries are the log entries emitted by the operation in order.
	Entries []models.LogEntry
	// Effects are the rank policy effects that were applied.
	Effects []policy.Effect
	// Match is set by Activate.
	Match pattern.MatchResult
	Turn  int
	State State
}

// Victory is the answer of CheckVictory.
type Victory struct {
	TargetID      int64
	TargetExposed bool
	Exposed       int
	Total         int
}

// Complete reports whether every suspect has been exposed.
func (v Victory) Complete() bool {
	return v.Total > 0 && v.Exposed == v.Total
}

// Controller runs the interrogation. It owns the Session and is the only writer of the roster it was given.
//
// A Controller is not safe for concurrent use; commands are processed one at a time.
type Controller struct {
	session Session
	roster  *roster.Roster
	sink    Sink
	logger  *slog.Logger
	rng     *rand.Rand
	now     func() time.Time
}

// NewController creates a controller in the Idle state on turn 1.
func NewController(r *roster.Roster, sink Sink, logger *slog.Logger, cfg Config) *Controller {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // game randomness
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Controller{
		session: newSession(),
		roster:  r,
		sink:    sink,
		logger:  logger.With(slog.String("source", "Controller")),
		rng:     cfg.Rand,
		now:     cfg.Now,
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	s := c.session.clone()
	s.History = append([]models.LogEntry(nil), s.History...)
	return s
}

// Target returns the active target, if any.
func (c *Controller) Target() (models.Suspect, bool) {
	if c.session.TargetID == 0 {
		return models.Suspect{}, false
	}
	return c.roster.Get(c.session.TargetID)
}

// Suspects returns every suspect of the roster in ID order.
func (c *Controller) Suspects() []models.Suspect {
	return c.roster.All()
}

// Start picks a target and clears all attached sensors. An id of 0 picks the unexposed suspect with the lowest ID.
func (c *Controller) Start(ctx context.Context, id int64) (Result, error) {
	var (
		target models.Suspect
		ok     bool
	)
	if id == 0 {
		if target, ok = c.roster.NextEligible(); !ok {
			return Result{}, errors.Wrap(ErrNoEligibleTargets, "start")
		}
	} else {
		if target, ok = c.roster.Get(id); !ok {
			return Result{}, errors.Wrap(ErrUnknownSuspect, "start", slog.Int64("id", id))
		}
		if target.IsExposed {
			return Result{}, errors.Wrap(ErrSuspectExposed, "start", slog.Int64("id", id))
		}
	}

	t := c.begin(target)
	t.start(target)
	return c.commit(ctx, t)
}

// Attach puts the sensor named sensorName into slot.
func (c *Controller) Attach(ctx context.Context, slot int, sensorName string) (Result, error) {
	t, err := c.beginOnTarget("attach")
	if err != nil {
		return Result{}, err
	}
	if err = checkSlot(slot); err != nil {
		return Result{}, errors.Wrap(err, "attach")
	}
	sensor, err := sensors.Parse(sensorName)
	if err != nil {
		return Result{}, errors.Wrap(errors.Mark(err, ErrInvalidSensor), "attach")
	}
	attached := t.session.Attached
	switch {
	case attached.Count() >= sensors.Capacity:
		return Result{}, errors.Wrap(ErrSlotExhausted, "attach", slog.Int("slot", slot))
	case attached[slot].Valid():
		return Result{}, errors.Wrap(ErrSlotOccupied, "attach", slog.Int("slot", slot),
			slog.String("attached", attached[slot].String()))
	case attached.Set().Has(sensor):
		return Result{}, errors.Wrap(ErrDuplicateSensor, "attach", slog.String("sensor", sensor.String()))
	}

	t.attach(slot, sensor)
	return c.commit(ctx, t)
}

// Remove clears slot.
func (c *Controller) Remove(ctx context.Context, slot int) (Result, error) {
	t, err := c.beginOnTarget("remove")
	if err != nil {
		return Result{}, err
	}
	if err = checkSlot(slot); err != nil {
		return Result{}, errors.Wrap(err, "remove")
	}
	if !t.session.Attached[slot].Valid() {
		return Result{}, errors.Wrap(ErrEmptySlot, "remove", slog.Int("slot", slot))
	}

	t.remove(slot)
	return c.commit(ctx, t)
}

// Activate evaluates the attached sensors against the target's weakness pattern, applies the rank policy and
// consumes a turn. Every attached sensor must be Ready.
func (c *Controller) Activate(ctx context.Context) (Result, error) {
	t, err := c.beginOnTarget("activate")
	if err != nil {
		return Result{}, err
	}
	if t.session.Attached.Count() == 0 {
		return Result{}, errors.Wrap(ErrNoSensorsAttached, "activate")
	}
	for slot, sensor := range t.session.Attached {
		switch readiness, left := t.session.Readiness(slot); readiness {
		case Broken:
			return Result{}, errors.Wrap(ErrSensorBroken, "activate",
				slog.Int("slot", slot), slog.String("sensor", sensor.String()))
		case Recharging:
			return Result{}, errors.Wrap(ErrSensorRecharging, "activate",
				slog.Int("slot", slot), slog.String("sensor", sensor.String()), slog.Int("turns_left", left))
		case Ready:
		}
	}

	t.activate()
	return c.commit(ctx, t)
}

// EndTurn consumes a turn without activating.
func (c *Controller) EndTurn(ctx context.Context) (Result, error) {
	t, err := c.beginOnTarget("end turn")
	if err != nil {
		return Result{}, err
	}

	t.endTurn()
	return c.commit(ctx, t)
}

// CheckVictory reports exposure of the active target and the roster. It changes nothing.
func (c *Controller) CheckVictory() Victory {
	v := Victory{
		TargetID:      c.session.TargetID,
		TargetExposed: false,
		Exposed:       c.roster.ExposedCount(),
		Total:         c.roster.Len(),
	}
	if target, ok := c.Target(); ok {
		v.TargetExposed = target.IsExposed
	}
	return v
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= sensors.Capacity {
		return errors.Wrap(ErrInvalidSlot, "check slot", slog.Int("slot", slot))
	}
	return nil
}

func (c *Controller) begin(target models.Suspect) *transition {
	return &transition{
		session:  c.session.clone(),
		target:   target,
		entries:  nil,
		effects:  nil,
		match:    pattern.NoMatch,
		exposed:  false,
		now:      c.now,
		nextSeed: c.rng.Int64,
	}
}

// beginOnTarget starts a transition for operations that need an active, unexposed target.
func (c *Controller) beginOnTarget(op string) (*transition, error) {
	switch c.session.State {
	case Idle:
		return nil, errors.Wrap(ErrNoTarget, op)
	case Resolved:
		return nil, errors.Wrap(ErrTargetResolved, op, slog.Int64("id", c.session.TargetID))
	case Targeting, Activated:
	}
	target, ok := c.Target()
	if !ok {
		return nil, errors.Wrap(ErrNoTarget, op)
	}
	return c.begin(target), nil
}

// commit makes the transition the current state and then persists its entries.
func (c *Controller) commit(ctx context.Context, t *transition) (Result, error) {
	c.session = t.session
	c.session.History = append(c.session.History, t.entries...)
	c.roster.Put(t.target)

	result := Result{
		Target:  t.target,
		Entries: t.entries,
		Effects: t.effects,
		Match:   t.match,
		Turn:    c.session.Turn,
		State:   c.session.State,
	}

	ctx = logging.WithAttrs(ctx, slog.Int64("person_id", t.target.ID), slog.Int("turn", c.session.Turn))
	for _, entry := range t.entries {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "game action",
			slog.String("action", string(entry.Action)), slog.String("details", entry.Details))
	}
	return result, c.persist(ctx, t)
}

// persist hands the transition to the sink. In-memory state stays authoritative when that fails.
func (c *Controller) persist(ctx context.Context, t *transition) error {
	if c.sink == nil {
		return nil
	}
	var errs []error
	if t.exposed {
		if err := c.sink.MarkExposed(ctx, t.target.ID); err != nil {
			errs = append(errs, errors.Wrap(err, "mark exposed"))
		}
	}
	for _, entry := range t.entries {
		if err := c.sink.Append(ctx, entry); err != nil {
			errs = append(errs, errors.Wrap(err, "append game log", slog.String("action", string(entry.Action))))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(append([]error{ErrPersistence}, errs...)...)
	c.logger.LogAttrs(ctx, slog.LevelWarn, "could not persist game state", errors.SlogError(err))
	return err
}
