package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/halftime-watch/internal/provider"
)

// --------------------------------------------------------------------------
// Raw payload types
// --------------------------------------------------------------------------

type rawScore struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type rawTeam struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

type rawFixture struct {
	Fixture struct {
		ID     *int   `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Country string `json:"country"`
		Round   string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home rawTeam `json:"home"`
		Away rawTeam `json:"away"`
	} `json:"teams"`
	Goals rawScore `json:"goals"`
	Score struct {
		HalfTime rawScore `json:"halftime"`
		FullTime rawScore `json:"fulltime"`
	} `json:"score"`
}

// toMatch validates a raw fixture and converts it. Identity fields and the
// kickoff are required; scores stay optional.
func (r rawFixture) toMatch() (provider.Match, error) {
	if r.Fixture.ID == nil || *r.Fixture.ID <= 0 {
		return provider.Match{}, fmt.Errorf("missing fixture id")
	}
	if r.Teams.Home.ID == nil || r.Teams.Away.ID == nil {
		return provider.Match{}, fmt.Errorf("fixture %d: missing team id", *r.Fixture.ID)
	}
	kickoff, err := time.Parse(time.RFC3339, r.Fixture.Date)
	if err != nil {
		return provider.Match{}, fmt.Errorf("fixture %d: bad date %q: %w", *r.Fixture.ID, r.Fixture.Date, err)
	}

	return provider.Match{
		FixtureID: strconv.Itoa(*r.Fixture.ID),
		Kickoff:   kickoff,
		Status:    r.Fixture.Status.Short,
		Elapsed:   r.Fixture.Status.Elapsed,
		League: provider.League{
			ID:      r.League.ID,
			Name:    r.League.Name,
			Country: r.League.Country,
			Round:   r.League.Round,
		},
		Home:     provider.Team{ID: strconv.Itoa(*r.Teams.Home.ID), Name: r.Teams.Home.Name},
		Away:     provider.Team{ID: strconv.Itoa(*r.Teams.Away.ID), Name: r.Teams.Away.Name},
		Goals:    provider.Score{Home: r.Goals.Home, Away: r.Goals.Away},
		HalfTime: provider.Score{Home: r.Score.HalfTime.Home, Away: r.Score.HalfTime.Away},
		FullTime: provider.Score{Home: r.Score.FullTime.Home, Away: r.Score.FullTime.Away},
	}, nil
}

// decodeFixtures converts a fixtures response, dropping entries that fail
// validation.
func (c *Client) decodeFixtures(raw json.RawMessage) ([]provider.Match, error) {
	var items []rawFixture
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	matches := make([]provider.Match, 0, len(items))
	for _, item := range items {
		m, err := item.toMatch()
		if err != nil {
			c.logger.Warn("Dropping malformed fixture", "error", err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// --------------------------------------------------------------------------
// Endpoints
// --------------------------------------------------------------------------

// FetchLive returns every in-play fixture of the given leagues. Results
// include matches that just finished and are still listed as live.
func (c *Client) FetchLive(ctx context.Context, leagueIDs []int) ([]provider.Match, error) {
	ids := make([]string, len(leagueIDs))
	for i, id := range leagueIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{"live": {strings.Join(ids, "-")}}
	if len(ids) == 0 {
		params.Set("live", "all")
	}

	raw, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, wrap("fetch live", err)
	}
	matches, err := c.decodeFixtures(raw)
	return matches, wrap("fetch live", err)
}

// FetchUpcoming returns the next fixtures of a league, with dates expressed
// in loc.
func (c *Client) FetchUpcoming(ctx context.Context, leagueID, season, next int, loc *time.Location) ([]provider.Match, error) {
	params := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
		"next":   {strconv.Itoa(next)},
	}
	if loc != nil {
		params.Set("timezone", loc.String())
	}

	raw, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, wrap(fmt.Sprintf("fetch upcoming league=%d", leagueID), err)
	}
	matches, err := c.decodeFixtures(raw)
	return matches, wrap(fmt.Sprintf("fetch upcoming league=%d", leagueID), err)
}

// FetchFinished returns every finished fixture of a league season.
func (c *Client) FetchFinished(ctx context.Context, leagueID, season int) ([]provider.Match, error) {
	params := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {strconv.Itoa(season)},
		"status": {provider.StatusFinished},
	}

	raw, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, wrap(fmt.Sprintf("fetch finished league=%d", leagueID), err)
	}
	matches, err := c.decodeFixtures(raw)
	return matches, wrap(fmt.Sprintf("fetch finished league=%d", leagueID), err)
}
