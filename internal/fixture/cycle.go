package fixture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/halftime-watch/internal/admission"
	"github.com/albapepper/halftime-watch/internal/decision"
	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/provider"
	"github.com/albapepper/halftime-watch/internal/schedule"
)

// Poller owns the poll loop state.
type Poller struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	// state is touched only by the loop goroutine.
	state schedule.State

	mu     sync.RWMutex
	status Status
}

// NewPoller creates a poller. Options default to a 5 minute interval, a 15
// second request timeout and UTC.
func NewPoller(deps Deps, opts Options, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Minute
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Poller{deps: deps, opts: opts, logger: logger, now: time.Now}
}

// RunCycle performs one poll: reload the dataset, fetch live fixtures, admit
// the finished ones, then evaluate the rest. A dataset or fetch failure
// abandons the cycle; a failure on one match never stops the others.
func (p *Poller) RunCycle(ctx context.Context) (result CycleResult) {
	result.StartedAt = p.now()
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		p.publishCycle(result)
	}()

	stats, err := p.deps.Store.Load()
	if err != nil {
		result.Abandoned = true
		result.AddErrorf("%v", err)
		p.logger.Error("Dataset load failed, abandoning cycle", "error", err)
		return result
	}
	if stats.Duplicates > 0 || stats.Incomplete > 0 {
		p.logger.Debug("Dataset rows skipped on load",
			"duplicates", stats.Duplicates, "incomplete", stats.Incomplete)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	matches, err := p.deps.Source.FetchLive(fetchCtx, p.opts.Leagues)
	cancel()
	if err != nil {
		result.Abandoned = true
		result.AddErrorf("%v", err)
		p.logger.Error("Live fetch failed, abandoning cycle", "error", err)
		result.DatasetRows = p.deps.Store.Len()
		return result
	}
	result.Fetched = len(matches)

	for _, m := range matches {
		if m.IsFinished() {
			p.admit(m, &result)
		}
	}
	for _, m := range matches {
		if !m.IsFinished() {
			if ctx.Err() != nil {
				result.AddErrorf("cycle interrupted: %v", ctx.Err())
				break
			}
			p.evaluate(ctx, m, &result)
		}
	}

	result.DatasetRows = p.deps.Store.Len()
	p.logger.Info("Poll cycle complete", "summary", result.Summary())
	return result
}

func (p *Poller) admit(m provider.Match, result *CycleResult) {
	out, err := p.deps.Admitter.Admit(m)
	switch out {
	case admission.Admitted:
		result.Admitted++
	case admission.DuplicateSkipped:
		result.Duplicates++
	case admission.IncompleteSkipped:
		result.Incomplete++
	case admission.WriteFailed:
		result.AddErrorf("%v", err)
		p.logger.Error("Dataset append failed", "fixture_id", m.FixtureID, "error", err)
	}
}

func (p *Poller) evaluate(ctx context.Context, m provider.Match, result *CycleResult) {
	fs := features.Compute(p.deps.Store, m.Home.ID, m.Away.ID)

	sendCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	d, err := p.deps.Evaluator.Handle(sendCtx, m, fs)
	cancel()

	if d.Outcome != decision.Ineligible {
		result.Evaluations = append(result.Evaluations, Evaluation{
			FixtureID: m.FixtureID,
			Home:      m.Home.Name,
			Away:      m.Away.Name,
			Status:    m.Status,
			Outcome:   d.Outcome.String(),
			Reason:    d.Reason,
		})
	}

	var de *decision.DeliveryError
	switch {
	case errors.As(err, &de):
		result.DeliveryFailed++
		result.AddErrorf("%v", err)
	case err != nil:
		result.AddErrorf("fixture %s: %v", m.FixtureID, err)
	case d.Outcome.Notifies():
		result.Notified++
	case d.Outcome == decision.Suppress:
		result.Suppressed++
	default:
		result.Ineligible++
	}
}
