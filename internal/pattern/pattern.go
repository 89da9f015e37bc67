// Package pattern generates and evaluates the hidden sensor combination each suspect is vulnerable to.
//
// Generation is a pure function of rank and seed so that sessions can be replayed in tests.
package pattern

import (
	"math/rand/v2"

	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/sensors"
)

// MatchResult is the only thing the player learns about a pattern.
type MatchResult int

const (
	// NoMatch means the attached sensors share nothing with the pattern or include a type outside of it.
	NoMatch MatchResult = iota
	// PartialMatch means the attached sensors are a proper, non-empty subset of the pattern.
	PartialMatch
	// ExactMatch means the attached sensors equal the pattern.
	ExactMatch
)

func (m MatchResult) String() string {
	switch m {
	case ExactMatch:
		return "exact match"
	case PartialMatch:
		return "partial match"
	case NoMatch:
		return "no match"
	default:
		return "unknown"
	}
}

// Size is the number of sensors a pattern holds for rank.
func Size(rank models.Rank) int {
	switch rank {
	case models.RankFootSoldier:
		return 1
	case models.RankSquadLeader:
		return 2 //nolint:mnd // pattern size
	case models.RankSeniorCommander, models.RankOrganizationLeader:
		return 3 //nolint:mnd // pattern size
	default:
		return 1
	}
}

// Generate draws Size(rank) distinct sensor types. The same rank and seed always give the same pattern.
func Generate(rank models.Rank, seed int64) sensors.Set {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)) //nolint:gosec // not for security
	all := sensors.All()
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return sensors.NewSet(all[:Size(rank)]...)
}

// Regenerate draws a new pattern for rank that differs from previous.
//
// Seeds following seed are tried in order, so the result stays deterministic.
func Regenerate(rank models.Rank, seed int64, previous sensors.Set) sensors.Set {
	for i := int64(0); ; i++ {
		next := Generate(rank, seed+i)
		if next != previous {
			return next
		}
	}
}

// Matches compares the attached sensors against a pattern.
func Matches(attached, pattern sensors.Set) MatchResult {
	switch {
	case attached == pattern:
		return ExactMatch
	case !attached.Empty() && attached.SubsetOf(pattern):
		return PartialMatch
	default:
		return NoMatch
	}
}
