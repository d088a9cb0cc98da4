// Package decision applies the half-time 0-0 notification policy to live
// matches and delivers at most one notification per fixture.
package decision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/provider"
)

// Threshold is the combined home/away scoring average a match must exceed.
const Threshold = 2.5

// Outcome is the policy verdict for one live match.
type Outcome int

const (
	Ineligible Outcome = iota
	Suppress
	NotifyInsufficientData
	NotifyPartialData
	NotifyFull
)

func (o Outcome) String() string {
	switch o {
	case Ineligible:
		return "ineligible"
	case Suppress:
		return "suppress"
	case NotifyInsufficientData:
		return "notify_insufficient_data"
	case NotifyPartialData:
		return "notify_partial_data"
	case NotifyFull:
		return "notify_full"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Notifies reports whether the outcome requires a notification.
func (o Outcome) Notifies() bool {
	return o == NotifyInsufficientData || o == NotifyPartialData || o == NotifyFull
}

// Decision is an outcome with a short reason for logs.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Sink delivers a formatted notification.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// DeliveryError wraps a failed Sink call. The fixture stays eligible.
type DeliveryError struct {
	FixtureID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver fixture %s: %v", e.FixtureID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Engine evaluates live matches and owns the NotifiedSet. It is not safe
// for concurrent use.
type Engine struct {
	sink     Sink
	notified *NotifiedSet
	logger   *slog.Logger
}

// NewEngine creates an engine delivering through sink.
func NewEngine(sink Sink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{sink: sink, notified: NewNotifiedSet(), logger: logger}
}

// Notified exposes the set of fixtures already notified.
func (e *Engine) Notified() *NotifiedSet { return e.notified }

// Evaluate applies the policy. It reads the NotifiedSet but never changes it.
func (e *Engine) Evaluate(m provider.Match, fs features.Set) Decision {
	switch {
	case !m.IsLive():
		return Decision{Ineligible, fmt.Sprintf("status %q is not past half-time", m.Status)}
	case !m.HalfTime.Is(0, 0):
		return Decision{Ineligible, fmt.Sprintf("half-time score %s", m.HalfTime)}
	case e.notified.Contains(m.FixtureID):
		return Decision{Ineligible, "already notified"}
	}

	if fs.CombinedHomeAway == nil {
		return Decision{NotifyInsufficientData, "no directional history for at least one team"}
	}
	if *fs.CombinedHomeAway <= Threshold {
		return Decision{Suppress, fmt.Sprintf("combined average %.2f <= %.1f", *fs.CombinedHomeAway, Threshold)}
	}
	if fs.HomeNoGoalLast5 == features.Yes || fs.AwayNoGoalLast5 == features.Yes {
		return Decision{Suppress, "scoring drought in last 5"}
	}
	if !fs.HomeNoGoalLast5.Known() || !fs.AwayNoGoalLast5.Known() {
		return Decision{NotifyPartialData, "last-5 data missing"}
	}
	return Decision{NotifyFull, fmt.Sprintf("combined average %.2f", *fs.CombinedHomeAway)}
}

// Handle evaluates m and, for a notify outcome, makes exactly one delivery
// attempt. The fixture is marked notified only after a successful send.
func (e *Engine) Handle(ctx context.Context, m provider.Match, fs features.Set) (Decision, error) {
	d := e.Evaluate(m, fs)
	log := e.logger.With("fixture_id", m.FixtureID, "outcome", d.Outcome.String())

	if !d.Outcome.Notifies() {
		if d.Outcome == Suppress {
			log.Info("Notification suppressed", "reason", d.Reason, "features", fs.String())
		} else {
			log.Debug("Fixture ineligible", "reason", d.Reason)
		}
		return d, nil
	}

	text := FormatMessage(d.Outcome, m, fs)
	if err := e.sink.Send(ctx, text); err != nil {
		log.Warn("Notification delivery failed", "error", err)
		return d, &DeliveryError{FixtureID: m.FixtureID, Err: err}
	}
	e.notified.Add(m.FixtureID)
	log.Info("Notification sent", "home", m.Home.Name, "away", m.Away.Name, "reason", d.Reason)
	return d, nil
}
