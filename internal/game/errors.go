package game

import "github.com/myrjola/interrogation/internal/errors"

// Roots of the error taxonomy. Every error returned by the Controller matches exactly one of them with errors.Is.
var (
	// ErrValidation is bad player input. Nothing changed.
	ErrValidation = errors.NewSentinel("validation error")
	// ErrState is an operation that is not allowed in the current controller state. Nothing changed.
	ErrState = errors.NewSentinel("state error")
	// ErrNoEligibleTargets means every suspect is already exposed. Nothing changed.
	ErrNoEligibleTargets = errors.NewSentinel("no eligible targets")
	// ErrPersistence means the operation was applied in memory but could not be written to the database.
	ErrPersistence = errors.NewSentinel("persistence failure")
)

var (
	// ErrInvalidSensor marks a sensors.ErrInvalidSensor raised while attaching.
	ErrInvalidSensor   = errors.Extend(ErrValidation, "invalid sensor type")
	ErrInvalidSlot     = errors.Extend(ErrValidation, "invalid slot index")
	ErrSlotExhausted   = errors.Extend(ErrValidation, "all sensor slots are occupied")
	ErrSlotOccupied    = errors.Extend(ErrValidation, "slot is already occupied")
	ErrDuplicateSensor = errors.Extend(ErrValidation, "sensor type is already attached")
	ErrEmptySlot       = errors.Extend(ErrValidation, "slot is empty")
	ErrUnknownSuspect  = errors.Extend(ErrValidation, "unknown suspect")
	ErrSuspectExposed  = errors.Extend(ErrValidation, "suspect is already exposed")

	ErrNoTarget          = errors.Extend(ErrState, "no active target, use start first")
	ErrTargetResolved    = errors.Extend(ErrState, "target is already exposed, use start to pick the next one")
	ErrNoSensorsAttached = errors.Extend(ErrState, "no sensors attached")
	ErrSensorRecharging  = errors.Extend(ErrState, "sensor is recharging")
	ErrSensorBroken      = errors.Extend(ErrState, "sensor is broken, replace it")
)
