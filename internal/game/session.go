package game

import (
	"slices"

	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/sensors"
)

// State of the turn controller.
type State int

const (
	// Idle has no active target.
	Idle State = iota
	// Targeting has a target; sensors may be attached and removed.
	Targeting
	// Activated has evaluated an activation that did not expose the target.
	Activated
	// Resolved has exposed the active target.
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Targeting:
		return "targeting"
	case Activated:
		return "activated"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Slots maps slot index to the attached sensor type. The zero Type marks an empty slot.
type Slots [sensors.Capacity]sensors.Type

// Set returns the attached sensor types.
func (s Slots) Set() sensors.Set {
	return sensors.NewSet(s[:]...)
}

// Count is the number of occupied slots.
func (s Slots) Count() int {
	n := 0
	for _, t := range s {
		if t.Valid() {
			n++
		}
	}
	return n
}

// Lowest returns the lowest occupied slot index.
func (s Slots) Lowest() (int, bool) {
	for i, t := range s {
		if t.Valid() {
			return i, true
		}
	}
	return 0, false
}

// Wear is the use an attached sensor has seen since it was attached. A freshly attached sensor has none.
type Wear struct {
	Activations int
	// LastTurn is the turn of the latest activation.
	LastTurn int
}

// Readiness of an attached sensor for the next activation.
type Readiness int

const (
	Ready Readiness = iota
	// Recharging sensors are still in their cooldown.
	Recharging
	// Broken sensors have reached sensors.MaxActivations and must be replaced.
	Broken
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case Recharging:
		return "recharging"
	case Broken:
		return "broken"
	default:
		return "unknown"
	}
}

// Session is the live game state owned by a Controller.
type Session struct {
	State State
	// Turn starts at 1 and only ever increases.
	Turn int
	// TargetID is 0 while no target has been chosen.
	TargetID int64
	Attached Slots
	// Wear is indexed by slot like Attached.
	Wear    [sensors.Capacity]Wear
	History []models.LogEntry
}

func newSession() Session {
	return Session{
		State:    Idle,
		Turn:     1,
		TargetID: 0,
		Attached: Slots{},
		Wear:     [sensors.Capacity]Wear{},
		History:  nil,
	}
}

// Readiness reports whether the sensor in slot can take part in the next activation. Recharging sensors also report
// the turns left in their cooldown. Empty slots are Ready.
func (s Session) Readiness(slot int) (Readiness, int) {
	sensor, wear := s.Attached[slot], s.Wear[slot]
	switch {
	case !sensor.Valid() || wear.Activations == 0:
		return Ready, 0
	case wear.Activations >= sensors.MaxActivations:
		return Broken, 0
	}
	if left := wear.LastTurn + sensor.Cooldown() - s.Turn; left > 0 {
		return Recharging, left
	}
	return Ready, 0
}

// clone returns a copy whose History can be appended to without touching the original.
func (s Session) clone() Session {
	s.History = slices.Clip(s.History)
	return s
}
