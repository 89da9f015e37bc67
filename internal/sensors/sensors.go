// Package sensors is the catalog of sensor types a player can attach to a suspect.
package sensors

import (
	"log/slog"
	"math/bits"
	"strings"

	"github.com/myrjola/interrogation/internal/errors"
)

// Type is one of the eight sensor types. The zero value is not a valid sensor and marks an empty slot.
type Type uint8

const (
	Audio Type = iota + 1
	Chemical
	Thermal
	Pulse
	Motion
	Magnetic
	Signal
	Light
)

// Capacity is the number of sensor slots available per session, one per declared sensor type.
const Capacity = int(Light)

// MaxActivations is how often an attached sensor can be activated before it breaks and has to be replaced.
const MaxActivations = 3

var ErrInvalidSensor = errors.NewSentinel("invalid sensor type")

var names = [...]string{
	Audio:    "audio",
	Chemical: "chemical",
	Thermal:  "thermal",
	Pulse:    "pulse",
	Motion:   "motion",
	Magnetic: "magnetic",
	Signal:   "signal",
	Light:    "light",
}

var descriptions = [...]string{
	Audio:    "picks up voice stress",
	Chemical: "samples sweat and breath",
	Thermal:  "reads skin temperature",
	Pulse:    "tracks heart rate",
	Motion:   "detects fidgeting",
	Magnetic: "disrupts concealed electronics",
	Signal:   "intercepts radio traffic",
	Light:    "measures pupil response",
}

// cooldowns is the number of turns a sensor needs after an activation before it can be activated again.
var cooldowns = [...]int{
	Audio:    0,
	Chemical: 2,
	Thermal:  1,
	Pulse:    1,
	Motion:   2,
	Magnetic: 3,
	Signal:   2,
	Light:    1,
}

// All returns every sensor type in catalog order.
func All() []Type {
	all := make([]Type, 0, Capacity)
	for t := Audio; t <= Light; t++ {
		all = append(all, t)
	}
	return all
}

// Parse resolves a sensor name case-insensitively. Surrounding whitespace is ignored.
func Parse(name string) (Type, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for t := Audio; t <= Light; t++ {
		if names[t] == normalized {
			return t, nil
		}
	}
	return 0, errors.Wrap(ErrInvalidSensor, "parse sensor", slog.String("name", name))
}

// Valid reports whether t is one of the catalog types.
func (t Type) Valid() bool {
	return t >= Audio && t <= Light
}

func (t Type) String() string {
	if !t.Valid() {
		return "none"
	}
	return names[t]
}

// Description is a one-line flavor text shown when listing sensors.
func (t Type) Description() string {
	if !t.Valid() {
		return ""
	}
	return descriptions[t]
}

// Cooldown is the number of turns that must pass after an activation before t can be activated again.
func (t Type) Cooldown() int {
	if !t.Valid() {
		return 0
	}
	return cooldowns[t]
}

// Set is an unordered set of sensor types stored as a bitmask.
type Set uint16

// NewSet creates a set holding types. Invalid types are ignored.
func NewSet(types ...Type) Set {
	var s Set
	for _, t := range types {
		s = s.Add(t)
	}
	return s
}

func (s Set) Add(t Type) Set {
	if !t.Valid() {
		return s
	}
	return s | 1<<t
}

func (s Set) Has(t Type) bool {
	return t.Valid() && s&(1<<t) != 0
}

func (s Set) Len() int {
	return bits.OnesCount16(uint16(s))
}

func (s Set) Empty() bool {
	return s == 0
}

// SubsetOf reports whether every type in s is also in other.
func (s Set) SubsetOf(other Set) bool {
	return s&^other == 0
}

// Types lists the members in catalog order.
func (s Set) Types() []Type {
	types := make([]Type, 0, s.Len())
	for t := Audio; t <= Light; t++ {
		if s.Has(t) {
			types = append(types, t)
		}
	}
	return types
}

func (s Set) String() string {
	types := s.Types()
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
