package seed

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/halftime-watch/internal/admission"
	"github.com/albapepper/halftime-watch/internal/provider"
)

// FinishedSource lists finished fixtures of a league season.
type FinishedSource interface {
	FetchFinished(ctx context.Context, leagueID, season int) ([]provider.Match, error)
}

// Admitter offers finished matches to the dataset.
type Admitter interface {
	Admit(m provider.Match) (admission.Outcome, error)
}

// Backfill fetches every finished fixture of the given leagues and admits
// them oldest first, so each row's features only see earlier matches.
// Fixtures already in the dataset are skipped; existing rows are never
// touched. Fetches run on up to workers goroutines; admission is sequential.
func Backfill(
	ctx context.Context,
	src FinishedSource,
	admitter Admitter,
	leagues []int,
	season int,
	workers int,
	logger *slog.Logger,
) Result {
	var result Result
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		matches []provider.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, league := range leagues {
		g.Go(func() error {
			var lr Result
			ms, err := src.FetchFinished(gctx, league, season)
			if err != nil {
				lr.AddErrorf("league %d: %v", league, err)
				logger.Warn("Backfill fetch failed", "league_id", league, "error", err)
			} else {
				lr.LeaguesFetched = 1
				logger.Info("Finished fixtures fetched", "league_id", league, "season", season, "count", len(ms))
			}

			mu.Lock()
			defer mu.Unlock()
			result.Add(lr)
			matches = append(matches, ms...)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		result.AddErrorf("backfill interrupted: %v", err)
		return result
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].Kickoff.Equal(matches[j].Kickoff) {
			return matches[i].Kickoff.Before(matches[j].Kickoff)
		}
		return matches[i].FixtureID < matches[j].FixtureID
	})

	for _, m := range matches {
		if !m.IsFinished() {
			continue
		}
		result.Fetched++
		out, err := admitter.Admit(m)
		switch out {
		case admission.Admitted:
			result.Admitted++
		case admission.DuplicateSkipped:
			result.Duplicates++
		case admission.IncompleteSkipped:
			result.Incomplete++
		case admission.WriteFailed:
			// A failed write leaves later rows without this match in their
			// history; stop rather than persist skewed features.
			result.AddError(err.Error())
			logger.Error("Backfill stopped on write failure", "fixture_id", m.FixtureID, "error", err)
			return result
		}
	}

	logger.Info("Backfill complete", "summary", result.Summary())
	return result
}
