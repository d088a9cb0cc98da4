package fixture

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/halftime-watch/internal/schedule"
)

// Discover collects the fixtures kicking off on the local day of now across
// all leagues and derives the active window. A failing league is recorded
// and skipped; an error is returned only when every league failed.
func (p *Poller) Discover(ctx context.Context, now time.Time) (DiscoveryResult, error) {
	loc := p.opts.Location
	day := schedule.DayKey(now, loc)
	result := DiscoveryResult{Day: day}

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoveryWorkers)
	for _, league := range p.opts.Leagues {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, p.opts.RequestTimeout)
			defer cancel()

			matches, err := p.deps.Source.FetchUpcoming(reqCtx, league, p.opts.Season, upcomingPerLeague, loc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				result.Errors = append(result.Errors, fmt.Sprintf("league %d: %v", league, err))
				p.logger.Warn("Fixture discovery failed", "league_id", league, "error", err)
				return nil
			}
			for _, m := range matches {
				if schedule.DayKey(m.Kickoff, loc) == day {
					result.Fixtures = append(result.Fixtures, m)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if len(p.opts.Leagues) > 0 && failed == len(p.opts.Leagues) {
		return result, fmt.Errorf("fixture discovery failed for all %d leagues", failed)
	}

	sort.SliceStable(result.Fixtures, func(i, j int) bool {
		return result.Fixtures[i].Kickoff.Before(result.Fixtures[j].Kickoff)
	})
	kickoffs := make([]time.Time, len(result.Fixtures))
	for i, m := range result.Fixtures {
		kickoffs[i] = m.Kickoff.In(loc)
	}
	result.Window, result.HasWindow = schedule.ComputeWindow(kickoffs)

	return result, nil
}

// logDiscovery writes the day's plan, one line per kickoff.
func (p *Poller) logDiscovery(res DiscoveryResult) {
	p.logger.Info("Fixtures discovered", "summary", res.Summary())
	for _, m := range res.Fixtures {
		p.logger.Info("Fixture today",
			"fixture_id", m.FixtureID,
			"kickoff", m.Kickoff.In(p.opts.Location).Format("15:04"),
			"league", m.League.Name,
			"home", m.Home.Name, "away", m.Away.Name)
	}
}
