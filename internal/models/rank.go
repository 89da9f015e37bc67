package models

import (
	"log/slog"
	"strings"

	"github.com/myrjola/interrogation/internal/errors"
)

// Rank is a suspect's position in the organization. Higher ranks defend themselves harder.
type Rank string

const (
	RankFootSoldier        Rank = "foot_soldier"
	RankSquadLeader        Rank = "squad_leader"
	RankSeniorCommander    Rank = "senior_commander"
	RankOrganizationLeader Rank = "organization_leader"
)

var ErrInvalidRank = errors.NewSentinel("invalid rank")

// Ranks lists every rank from the easiest to the hardest.
func Ranks() []Rank {
	return []Rank{RankFootSoldier, RankSquadLeader, RankSeniorCommander, RankOrganizationLeader}
}

// ParseRank accepts the snake_case rank names case-insensitively.
func ParseRank(s string) (Rank, error) {
	r := Rank(strings.ToLower(strings.TrimSpace(s)))
	if r.Level() < 0 {
		return "", errors.Wrap(ErrInvalidRank, "parse rank", slog.String("rank", s))
	}
	return r, nil
}

// Level orders ranks by difficulty starting from 0. Unknown ranks return -1.
func (r Rank) Level() int {
	switch r {
	case RankFootSoldier:
		return 0
	case RankSquadLeader:
		return 1
	case RankSeniorCommander:
		return 2 //nolint:mnd // rank order
	case RankOrganizationLeader:
		return 3 //nolint:mnd // rank order
	default:
		return -1
	}
}

// Title is the human-readable rank name.
func (r Rank) Title() string {
	switch r {
	case RankFootSoldier:
		return "Foot Soldier"
	case RankSquadLeader:
		return "Squad Leader"
	case RankSeniorCommander:
		return "Senior Commander"
	case RankOrganizationLeader:
		return "Organization Leader"
	default:
		return string(r)
	}
}
