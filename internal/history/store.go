package history

import (
	"fmt"
	"sort"
)

// Store holds the chronological goal histories of every team in the
// dataset plus the set of fixtures already persisted. It implements
// features.Histories.
//
// Store is not safe for concurrent use; it is owned by the poll loop.
type Store struct {
	dataset Dataset

	all   map[string][]int
	home  map[string][]int
	away  map[string][]int
	known map[string]bool
	rows  int
}

// LoadStats summarises a rebuild.
type LoadStats struct {
	Rows       int
	Incomplete int
	Duplicates int
	Teams      int
}

// NewStore returns an empty store over ds. Call Load before use.
func NewStore(ds Dataset) *Store {
	s := &Store{dataset: ds}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.all = make(map[string][]int)
	s.home = make(map[string][]int)
	s.away = make(map[string][]int)
	s.known = make(map[string]bool)
	s.rows = 0
}

// Load rebuilds every history from the full dataset. Records are ordered by
// (date, time), keeping file order for ties. Repeated fixture ids keep the
// first occurrence. On error the previous state is left untouched.
func (s *Store) Load() (LoadStats, error) {
	res, err := s.dataset.ReadAll()
	if err != nil {
		return LoadStats{}, fmt.Errorf("load dataset: %w", err)
	}

	records := res.Records
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].Time < records[j].Time
	})

	next := &Store{dataset: s.dataset}
	next.reset()
	stats := LoadStats{Incomplete: res.Incomplete}
	for _, rec := range records {
		if next.known[rec.FixtureID] {
			stats.Duplicates++
			continue
		}
		next.extend(rec)
	}

	s.all, s.home, s.away, s.known, s.rows = next.all, next.home, next.away, next.known, next.rows
	stats.Rows = s.rows
	stats.Teams = len(s.all)
	return stats, nil
}

// Append persists rec and then extends both teams' histories. Nothing in
// memory changes if the write fails.
func (s *Store) Append(rec MatchRecord) error {
	if s.known[rec.FixtureID] {
		return fmt.Errorf("append fixture %s: %w", rec.FixtureID, ErrDuplicate)
	}
	if err := s.dataset.Append(rec); err != nil {
		return fmt.Errorf("append fixture %s: %w", rec.FixtureID, err)
	}
	s.extend(rec)
	return nil
}

func (s *Store) extend(rec MatchRecord) {
	s.all[rec.HomeTeamID] = append(s.all[rec.HomeTeamID], rec.HomeGoals)
	s.all[rec.AwayTeamID] = append(s.all[rec.AwayTeamID], rec.AwayGoals)
	s.home[rec.HomeTeamID] = append(s.home[rec.HomeTeamID], rec.HomeGoals)
	s.away[rec.AwayTeamID] = append(s.away[rec.AwayTeamID], rec.AwayGoals)
	s.known[rec.FixtureID] = true
	s.rows++
}

// Known reports whether the fixture is already persisted.
func (s *Store) Known(fixtureID string) bool { return s.known[fixtureID] }

// Len returns the number of records loaded or appended.
func (s *Store) Len() int { return s.rows }

// Teams returns the number of distinct teams seen.
func (s *Store) Teams() int { return len(s.all) }

// The returned slices are shared with the store and must not be modified.

func (s *Store) Goals(teamID string) []int     { return s.all[teamID] }
func (s *Store) HomeGoals(teamID string) []int { return s.home[teamID] }
func (s *Store) AwayGoals(teamID string) []int { return s.away[teamID] }
