package game

import (
	"fmt"
	"time"

	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/pattern"
	"github.com/myrjola/interrogation/internal/policy"
	"github.com/myrjola/interrogation/internal/sensors"
)

// transition is a pending change to a session and its target.
//
// Operations build a transition from copies, so a rejected operation leaves the controller untouched. The
// controller commits the session and target in one step and hands the collected entries to the Sink afterwards.
type transition struct {
	session Session
	target  models.Suspect
	// entries are emitted in order and appended to the session history on commit.
	entries []models.LogEntry
	effects []policy.Effect
	match   pattern.MatchResult
	// exposed is set when the target became exposed during this transition.
	exposed bool

	now      func() time.Time
	nextSeed func() int64
}

func (t *transition) log(action models.Action, turn int, format string, args ...any) {
	t.entries = append(t.entries, models.LogEntry{
		ID:        0,
		PersonID:  t.target.ID,
		Action:    action,
		Details:   fmt.Sprintf("turn %d: ", turn) + fmt.Sprintf(format, args...),
		Timestamp: t.now(),
		Turn:      turn,
	})
}

func (t *transition) start(target models.Suspect) {
	t.target = target
	t.session.State = Targeting
	t.session.TargetID = target.ID
	t.session.Attached = Slots{}
	t.session.Wear = [sensors.Capacity]Wear{}
	t.log(models.ActionStart, t.session.Turn, "interrogating %s (%s)", target.Name, target.Rank.Title())
}

func (t *transition) attach(slot int, sensor sensors.Type) {
	t.session.Attached[slot] = sensor
	t.session.Wear[slot] = Wear{}
	t.session.State = Targeting
	t.log(models.ActionAttach, t.session.Turn, "attached %s sensor to slot %d", sensor, slot)
}

func (t *transition) remove(slot int) {
	sensor := t.session.Attached[slot]
	t.session.Attached[slot] = 0
	t.session.Wear[slot] = Wear{}
	t.session.State = Targeting
	t.log(models.ActionRemove, t.session.Turn, "removed %s sensor from slot %d", sensor, slot)
}

func (t *transition) activate() {
	attached := t.session.Attached.Set()
	for slot, sensor := range t.session.Attached {
		if sensor.Valid() {
			t.session.Wear[slot].Activations++
			t.session.Wear[slot].LastTurn = t.session.Turn
		}
	}
	t.match = pattern.Matches(attached, t.target.WeaknessPattern)
	t.log(models.ActionActivate, t.session.Turn, "activated %d sensors %s: %s", attached.Len(), attached, t.match)

	effect := policy.For(t.target.Rank).OnMatchResult(t.target, t.match)
	t.apply(effect)

	t.advanceTurn()
	if !t.target.IsExposed {
		t.session.State = Activated
	}
}

func (t *transition) endTurn() {
	t.log(models.ActionEndTurn, t.session.Turn, "turn ended with %d sensors attached", t.session.Attached.Count())
	t.session.State = Targeting
	t.advanceTurn()
}

// advanceTurn increments the turn and runs the turn hook of the target's rank. Exposed targets put up no defense.
func (t *transition) advanceTurn() {
	t.session.Turn++
	t.target.TurnsSinceReset++
	if t.target.IsExposed {
		return
	}
	t.apply(policy.For(t.target.Rank).OnTurnAdvance(t.target, t.session.Turn))
}

func (t *transition) apply(effect policy.Effect) {
	switch effect {
	case policy.NoEffect:
		return
	case policy.Exposed:
		t.target.IsExposed = true
		t.exposed = true
		t.session.State = Resolved
		t.log(models.ActionExposed, t.session.Turn, "%s has been exposed", t.target.Name)
	case policy.Counterattack:
		slot, ok := t.session.Attached.Lowest()
		if !ok {
			return
		}
		sensor := t.session.Attached[slot]
		t.session.Attached[slot] = 0
		t.session.Wear[slot] = Wear{}
		t.log(models.ActionCounterattack, t.session.Turn, "%s destroyed the %s sensor in slot %d",
			t.target.Name, sensor, slot)
	case policy.Reset:
		cleared := t.session.Attached.Count()
		t.session.Attached = Slots{}
		t.session.Wear = [sensors.Capacity]Wear{}
		t.target.WeaknessPattern = pattern.Regenerate(t.target.Rank, t.nextSeed(), t.target.WeaknessPattern)
		t.target.TurnsSinceReset = 0
		t.log(models.ActionReset, t.session.Turn, "%s regrouped: %d sensors cleared and weakness changed",
			t.target.Name, cleared)
	}
	t.effects = append(t.effects, effect)
}
