// Package history owns the persistent match dataset and the per-team goal
// histories rebuilt from it.
//
// The dataset is append-only: a row is written once when a finished fixture
// is admitted and is never rewritten. The in-memory histories are a pure
// function of the dataset, so they are rebuilt from scratch on every load.
package history

import (
	"fmt"
	"strconv"

	"github.com/albapepper/halftime-watch/internal/features"
)

// Columns is the dataset header, in write order.
var Columns = []string{
	"fixture_id", "date", "time",
	"league_id", "league_name", "country", "round",
	"home_team_id", "home_team", "away_team_id", "away_team",
	"home_goals", "away_goals",
	"ht_home", "ht_away", "ft_home", "ft_away",
	"avg_goal_home_team", "avg_goal_away_team", "avg_goal_combined",
	"avg_goal_home_team_home", "avg_goal_away_team_away", "avg_goal_combined_home_away",
	"home_team_no_goal_last5", "away_team_no_goal_last5",
}

// requiredColumns must be present in any dataset header.
var requiredColumns = []string{
	"fixture_id", "date", "time",
	"home_team_id", "away_team_id",
	"home_goals", "away_goals", "ht_home", "ht_away",
}

// MatchRecord is one finished fixture as persisted.
type MatchRecord struct {
	FixtureID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM

	LeagueID   int
	LeagueName string
	Country    string
	Round      string

	HomeTeamID string
	HomeTeam   string
	AwayTeamID string
	AwayTeam   string

	HomeGoals int
	AwayGoals int
	HTHome    int
	HTAway    int
	FTHome    *int
	FTAway    *int

	// Features is the pre-match snapshot attached at admission.
	Features features.Set
}

// fields renders the record keyed by column name.
func (r MatchRecord) fields() map[string]string {
	f := r.Features
	return map[string]string{
		"fixture_id":   r.FixtureID,
		"date":         r.Date,
		"time":         r.Time,
		"league_id":    strconv.Itoa(r.LeagueID),
		"league_name":  r.LeagueName,
		"country":      r.Country,
		"round":        r.Round,
		"home_team_id": r.HomeTeamID,
		"home_team":    r.HomeTeam,
		"away_team_id": r.AwayTeamID,
		"away_team":    r.AwayTeam,
		"home_goals":   strconv.Itoa(r.HomeGoals),
		"away_goals":   strconv.Itoa(r.AwayGoals),
		"ht_home":      strconv.Itoa(r.HTHome),
		"ht_away":      strconv.Itoa(r.HTAway),
		"ft_home":      formatInt(r.FTHome),
		"ft_away":      formatInt(r.FTAway),

		"avg_goal_home_team":          formatFloat(f.HomeTeamAvg),
		"avg_goal_away_team":          formatFloat(f.AwayTeamAvg),
		"avg_goal_combined":           formatFloat(f.CombinedAvg),
		"avg_goal_home_team_home":     formatFloat(f.HomeTeamHomeAvg),
		"avg_goal_away_team_away":     formatFloat(f.AwayTeamAwayAvg),
		"avg_goal_combined_home_away": formatFloat(f.CombinedHomeAway),
		"home_team_no_goal_last5":     formatFlag(f.HomeNoGoalLast5),
		"away_team_no_goal_last5":     formatFlag(f.AwayNoGoalLast5),
	}
}

// --------------------------------------------------------------------------
// Cell encoding. Undefined values are written as empty cells.
// --------------------------------------------------------------------------

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(features.Round2(*v), 'f', 2, 64)
}

func formatFlag(f features.Flag) string {
	switch f {
	case features.Yes:
		return "1"
	case features.No:
		return "0"
	default:
		return ""
	}
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write goals as floats ("2.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		n = int(f)
	}
	return &n, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseFlag(s string) features.Flag {
	switch s {
	case "1", "1.0", "true", "True":
		return features.Yes
	case "0", "0.0", "false", "False":
		return features.No
	default:
		return features.Unknown
	}
}
