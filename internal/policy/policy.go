// Package policy holds the rank-specific defenses a suspect puts up during interrogation.
//
// Every rank maps to a Policy with two hooks. The turn controller only calls the hooks and applies the returned
// Effect, so it never branches on rank itself.
package policy

import (
	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/pattern"
)

// Effect is what the controller has to do after a hook ran.
type Effect int

const (
	// NoEffect leaves the session untouched.
	NoEffect Effect = iota
	// Reset clears all attached sensors and regenerates the weakness pattern.
	Reset
	// Counterattack clears the attached sensor in the lowest occupied slot.
	Counterattack
	// Exposed marks the suspect as exposed.
	Exposed
)

func (e Effect) String() string {
	switch e {
	case NoEffect:
		return "none"
	case Reset:
		return "reset"
	case Counterattack:
		return "counterattack"
	case Exposed:
		return "exposed"
	default:
		return "unknown"
	}
}

// ResetInterval is the turn cadence of organization leader resets.
const ResetInterval = 10

// Policy bundles the hooks of one rank.
type Policy struct {
	// OnTurnAdvance runs after the session turn number has been incremented to turn.
	OnTurnAdvance func(suspect models.Suspect, turn int) Effect
	// OnMatchResult runs after an activation has been evaluated.
	OnMatchResult func(suspect models.Suspect, result pattern.MatchResult) Effect
}

var table = map[models.Rank]Policy{
	models.RankFootSoldier: {
		OnTurnAdvance: never,
		OnMatchResult: exposeOnly,
	},
	models.RankSquadLeader: {
		OnTurnAdvance: never,
		OnMatchResult: counterattackOnNoMatch,
	},
	models.RankSeniorCommander: {
		OnTurnAdvance: never,
		OnMatchResult: counterattackOnNoMatch,
	},
	models.RankOrganizationLeader: {
		OnTurnAdvance: resetEveryInterval,
		OnMatchResult: counterattackOnNoMatch,
	},
}

// For returns the policy of rank. Unknown ranks get the foot soldier policy.
func For(rank models.Rank) Policy {
	if p, ok := table[rank]; ok {
		return p
	}
	return table[models.RankFootSoldier]
}

func never(models.Suspect, int) Effect {
	return NoEffect
}

func resetEveryInterval(_ models.Suspect, turn int) Effect {
	if turn > 0 && turn%ResetInterval == 0 {
		return Reset
	}
	return NoEffect
}

func exposeOnly(_ models.Suspect, result pattern.MatchResult) Effect {
	if result == pattern.ExactMatch {
		return Exposed
	}
	return NoEffect
}

func counterattackOnNoMatch(suspect models.Suspect, result pattern.MatchResult) Effect {
	if result == pattern.NoMatch {
		return Counterattack
	}
	return exposeOnly(suspect, result)
}
