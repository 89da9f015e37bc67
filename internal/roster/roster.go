// Package roster is the in-memory view of the persisted People table.
package roster

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/pattern"
)

// Roster holds the suspects of a session ordered by ascending ID.
//
// It hands out copies; changes are written back with Put so that callers can prepare a change and commit it only when
// the whole operation succeeded.
type Roster struct {
	suspects []models.Suspect
	index    map[int64]int
}

// New builds a roster from persisted people. Each suspect gets a weakness pattern generated from a seed drawn with
// nextSeed. People must have a rank; see AssignRanks.
func New(people []models.Person, nextSeed func() int64) *Roster {
	sorted := slices.Clone(people)
	slices.SortFunc(sorted, func(a, b models.Person) int { return cmp.Compare(a.ID, b.ID) })

	r := &Roster{
		suspects: make([]models.Suspect, 0, len(sorted)),
		index:    make(map[int64]int, len(sorted)),
	}
	for _, p := range sorted {
		if _, dup := r.index[p.ID]; dup {
			continue
		}
		r.index[p.ID] = len(r.suspects)
		r.suspects = append(r.suspects, models.Suspect{
			ID:              p.ID,
			Name:            p.Name,
			Rank:            p.Rank,
			IsExposed:       p.IsExposed,
			WeaknessPattern: pattern.Generate(p.Rank, nextSeed()),
			TurnsSinceReset: 0,
		})
	}
	return r
}

// Get returns a copy of the suspect with id.
func (r *Roster) Get(id int64) (models.Suspect, bool) {
	i, ok := r.index[id]
	if !ok {
		return models.Suspect{}, false
	}
	return r.suspects[i], true
}

// Put replaces the stored suspect with the same ID. Unknown suspects are ignored and exposure is never undone.
func (r *Roster) Put(s models.Suspect) {
	i, ok := r.index[s.ID]
	if !ok {
		return
	}
	if r.suspects[i].IsExposed {
		s.IsExposed = true
	}
	r.suspects[i] = s
}

// NextEligible returns the unexposed suspect with the lowest ID.
func (r *Roster) NextEligible() (models.Suspect, bool) {
	for _, s := range r.suspects {
		if !s.IsExposed {
			return s, true
		}
	}
	return models.Suspect{}, false
}

// All returns copies of every suspect in ID order.
func (r *Roster) All() []models.Suspect {
	return slices.Clone(r.suspects)
}

func (r *Roster) Len() int {
	return len(r.suspects)
}

// ExposedCount is the number of exposed suspects.
func (r *Roster) ExposedCount() int {
	n := 0
	for _, s := range r.suspects {
		if s.IsExposed {
			n++
		}
	}
	return n
}

// AssignRanks gives every person without a rank one, either forced or drawn with rng, and returns the people that
// were changed. people is updated in place.
func AssignRanks(people []models.Person, forced models.Rank, rng *rand.Rand) []models.Person {
	var assigned []models.Person
	ranks := models.Ranks()
	for i := range people {
		if people[i].Rank.Level() >= 0 {
			continue
		}
		if forced.Level() >= 0 {
			people[i].Rank = forced
		} else {
			people[i].Rank = ranks[rng.IntN(len(ranks))]
		}
		assigned = append(assigned, people[i])
	}
	return assigned
}
