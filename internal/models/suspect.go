package models

import "github.com/myrjola/interrogation/internal/sensors"

// Person is a row of the persisted People table.
type Person struct {
	ID        int64  `db:"Id"        yaml:"id"`
	Name      string `db:"Name"      yaml:"name"`
	IsExposed bool   `db:"IsExposed" yaml:"exposed"`
	// Rank is empty until one has been assigned and stored in PersonRanks.
	Rank Rank `db:"Rank" yaml:"rank,omitempty"`
}

// Suspect is a roster entry under interrogation.
//
// IsExposed only ever goes from false to true. WeaknessPattern is hidden from the player.
type Suspect struct {
	ID              int64
	Name            string
	Rank            Rank
	IsExposed       bool
	WeaknessPattern sensors.Set
	TurnsSinceReset int
}
