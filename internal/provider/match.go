// Package provider defines the canonical match representation shared by the
// upstream data source, the historical dataset and the decision policy.
//
// Upstream payloads are validated once at the boundary (see apifootball) and
// turned into a Match with named optional fields. Nothing downstream inspects
// raw JSON.
package provider

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Status codes (API-Football fixture.status.short)
// --------------------------------------------------------------------------

const (
	StatusHalfTime   = "HT"
	StatusSecondHalf = "2H"
	StatusExtraTime  = "ET"
	StatusBreakTime  = "BT"
	StatusPenalties  = "P"
	StatusFinished   = "FT"
)

// liveFamily is the set of statuses in which the half-time score is final and
// the match is still being played.
var liveFamily = map[string]bool{
	StatusHalfTime:   true,
	StatusSecondHalf: true,
	StatusExtraTime:  true,
	StatusBreakTime:  true,
	StatusPenalties:  true,
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Score is a home/away pair where either side may be unknown.
type Score struct {
	Home *int
	Away *int
}

// Complete reports whether both sides are known.
func (s Score) Complete() bool {
	return s.Home != nil && s.Away != nil
}

// Is reports whether the score is exactly home-away.
func (s Score) Is(home, away int) bool {
	return s.Complete() && *s.Home == home && *s.Away == away
}

func (s Score) String() string {
	return fmt.Sprintf("%s-%s", side(s.Home), side(s.Away))
}

func side(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprint(*v)
}

// Team identifies one side of a fixture.
type Team struct {
	ID   string
	Name string
}

// League carries competition metadata for a fixture.
type League struct {
	ID      int
	Name    string
	Country string
	Round   string
}

// Match is one fixture as reported by the data source, either live or finished.
type Match struct {
	FixtureID string
	Kickoff   time.Time
	Status    string
	Elapsed   *int

	League League
	Home   Team
	Away   Team

	Goals    Score
	HalfTime Score
	FullTime Score
}

// IsFinished reports whether the match has ended in regulation time.
func (m Match) IsFinished() bool {
	return m.Status == StatusFinished
}

// IsLive reports whether the match is past half-time and still in play.
func (m Match) IsLive() bool {
	return liveFamily[m.Status]
}

// Date returns the kickoff date as YYYY-MM-DD in UTC.
func (m Match) Date() string {
	return m.Kickoff.UTC().Format("2006-01-02")
}

// Time returns the kickoff time as HH:MM in UTC.
func (m Match) Time() string {
	return m.Kickoff.UTC().Format("15:04")
}

// IntPtr is a convenience for building scores.
func IntPtr(v int) *int {
	return &v
}
