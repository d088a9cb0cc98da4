// Package fixture runs the live-fixture poll loop: daily discovery of the
// active window, then one poll cycle per interval that admits finished
// matches into the dataset and evaluates live ones for notification.
//
// Cycles run strictly one at a time. The only state shared with other
// goroutines is the Status snapshot published at the end of each step.
package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/halftime-watch/internal/admission"
	"github.com/albapepper/halftime-watch/internal/decision"
	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/history"
	"github.com/albapepper/halftime-watch/internal/provider"
	"github.com/albapepper/halftime-watch/internal/schedule"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// upcomingPerLeague is how many upcoming fixtures discovery asks for.
	upcomingPerLeague = 10
	// discoveryWorkers bounds concurrent discovery requests.
	discoveryWorkers = 4
)

// --------------------------------------------------------------------------
// Dependencies
// --------------------------------------------------------------------------

// Source is the upstream fixture feed.
type Source interface {
	FetchLive(ctx context.Context, leagueIDs []int) ([]provider.Match, error)
	FetchUpcoming(ctx context.Context, leagueID, season, next int, loc *time.Location) ([]provider.Match, error)
}

// Store is the historical dataset as seen by the poll loop.
type Store interface {
	features.Histories
	Load() (history.LoadStats, error)
	Len() int
	Teams() int
}

// Admitter offers finished matches to the dataset.
type Admitter interface {
	Admit(m provider.Match) (admission.Outcome, error)
}

// Evaluator applies the notification policy to a live match.
type Evaluator interface {
	Handle(ctx context.Context, m provider.Match, fs features.Set) (decision.Decision, error)
	Notified() *decision.NotifiedSet
}

// Deps holds the collaborators of a Poller.
type Deps struct {
	Source    Source
	Store     Store
	Admitter  Admitter
	Evaluator Evaluator
	// Digest receives the daily fixture summary; nil disables it.
	Digest decision.Sink
}

// Options configures a Poller.
type Options struct {
	Leagues        []int
	Season         int
	Location       *time.Location
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Evaluation is the verdict for one live match in a cycle.
type Evaluation struct {
	FixtureID string `json:"fixture_id"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason"`
}

// CycleResult tracks the outcome of one poll cycle.
type CycleResult struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Abandoned bool          `json:"abandoned"`

	DatasetRows int `json:"dataset_rows"`
	Fetched     int `json:"fetched"`

	Admitted   int `json:"admitted"`
	Duplicates int `json:"duplicates"`
	Incomplete int `json:"incomplete"`

	Notified       int `json:"notified"`
	Suppressed     int `json:"suppressed"`
	Ineligible     int `json:"ineligible"`
	DeliveryFailed int `json:"delivery_failed"`

	Evaluations []Evaluation `json:"evaluations,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
}

// AddErrorf records a formatted error message.
func (r *CycleResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary.
func (r *CycleResult) Summary() string {
	status := "ok"
	if r.Abandoned {
		status = "ABANDONED"
	}
	return fmt.Sprintf(
		"fetched=%d admitted=%d duplicates=%d incomplete=%d notified=%d suppressed=%d ineligible=%d delivery_failed=%d errors=%d status=%s dur=%s",
		r.Fetched, r.Admitted, r.Duplicates, r.Incomplete,
		r.Notified, r.Suppressed, r.Ineligible, r.DeliveryFailed,
		len(r.Errors), status, r.Duration.Round(time.Millisecond),
	)
}

// DiscoveryResult tracks the outcome of a daily fixture discovery.
type DiscoveryResult struct {
	Day       string
	Fixtures  []provider.Match
	Window    schedule.Window
	HasWindow bool
	Errors    []string
}

// Summary returns a human-readable summary.
func (r *DiscoveryResult) Summary() string {
	window := "none"
	if r.HasWindow {
		window = r.Window.String()
	}
	return fmt.Sprintf("day=%s fixtures=%d window=%s errors=%d",
		r.Day, len(r.Fixtures), window, len(r.Errors))
}
