package models

import "time"

// Action is the persisted vocabulary of the GameLogs.Action column.
type Action string

const (
	ActionStart         Action = "Start"
	ActionAttach        Action = "Attach"
	ActionRemove        Action = "Remove"
	ActionActivate      Action = "Activate"
	ActionEndTurn       Action = "EndTurn"
	ActionCounterattack Action = "Counterattack"
	ActionReset         Action = "Reset"
	ActionExposed       Action = "Exposed"
)

// LogEntry records one action taken against a suspect.
type LogEntry struct {
	ID        int64     `db:"Id"        yaml:"id,omitempty"`
	PersonID  int64     `db:"PersonId"  yaml:"person_id"`
	Action    Action    `db:"Action"    yaml:"action"`
	Details   string    `db:"Details"   yaml:"details"`
	Timestamp time.Time `db:"Timestamp" yaml:"timestamp"`
	// Turn is the session turn the entry was emitted in. It is not a column; Details mentions it instead.
	Turn int `db:"-" yaml:"turn,omitempty"`
}
