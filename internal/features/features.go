// Package features derives the per-team scoring statistics used by the
// half-time decision policy. Everything here is pure: no I/O, no clock.
//
// An empty history yields an undefined statistic, never zero. Undefined
// values propagate: a combined average with an undefined operand is itself
// undefined.
package features

import (
	"fmt"
	"math"
)

// DroughtWindow is the number of most recent matches inspected by the
// scoring-drought flag.
const DroughtWindow = 5

// Histories exposes chronological (oldest first) goals-scored sequences per
// team. Implementations must return sequences that only contain matches
// played before the one being evaluated.
type Histories interface {
	Goals(teamID string) []int
	HomeGoals(teamID string) []int
	AwayGoals(teamID string) []int
}

// --------------------------------------------------------------------------
// Tri-state flag
// --------------------------------------------------------------------------

// Flag is a boolean that may be unknown.
type Flag int8

const (
	Unknown Flag = iota
	No
	Yes
)

// Known reports whether the flag carries a value.
func (f Flag) Known() bool { return f != Unknown }

func (f Flag) String() string {
	switch f {
	case No:
		return "false"
	case Yes:
		return "true"
	default:
		return "undefined"
	}
}

// --------------------------------------------------------------------------
// Feature set
// --------------------------------------------------------------------------

// Set is the feature snapshot for one fixture, computed from the state
// before that fixture.
type Set struct {
	// Directional averages drive the decision policy.
	HomeTeamHomeAvg  *float64
	AwayTeamAwayAvg  *float64
	CombinedHomeAway *float64

	// Overall averages are informational only.
	HomeTeamAvg *float64
	AwayTeamAvg *float64
	CombinedAvg *float64

	HomeNoGoalLast5 Flag
	AwayNoGoalLast5 Flag
}

func (s Set) String() string {
	return fmt.Sprintf("home_home=%s away_away=%s combined=%s home_drought=%s away_drought=%s",
		FormatAvg(s.HomeTeamHomeAvg), FormatAvg(s.AwayTeamAwayAvg), FormatAvg(s.CombinedHomeAway),
		s.HomeNoGoalLast5, s.AwayNoGoalLast5)
}

// Compute builds the feature set for home vs away from h.
func Compute(h Histories, homeID, awayID string) Set {
	s := Set{
		HomeTeamHomeAvg: Mean(h.HomeGoals(homeID)),
		AwayTeamAwayAvg: Mean(h.AwayGoals(awayID)),
		HomeTeamAvg:     Mean(h.Goals(homeID)),
		AwayTeamAvg:     Mean(h.Goals(awayID)),
		HomeNoGoalLast5: Drought(h.Goals(homeID)),
		AwayNoGoalLast5: Drought(h.Goals(awayID)),
	}
	s.CombinedHomeAway = Sum(s.HomeTeamHomeAvg, s.AwayTeamAwayAvg)
	s.CombinedAvg = Sum(s.HomeTeamAvg, s.AwayTeamAvg)
	return s
}

// Mean returns the arithmetic mean, or nil for an empty sequence.
func Mean(goals []int) *float64 {
	if len(goals) == 0 {
		return nil
	}
	total := 0
	for _, g := range goals {
		total += g
	}
	m := float64(total) / float64(len(goals))
	return &m
}

// Sum adds two optional values; the result is nil if either is nil.
func Sum(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

// Drought reports whether the last DroughtWindow entries are all zero.
// Fewer entries than the window yields Unknown.
func Drought(goals []int) Flag {
	if len(goals) < DroughtWindow {
		return Unknown
	}
	for _, g := range goals[len(goals)-DroughtWindow:] {
		if g != 0 {
			return No
		}
	}
	return Yes
}

// Round2 rounds to two decimals, as stored in the dataset.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAvg renders an optional average with two decimals, or "n/a".
func FormatAvg(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
