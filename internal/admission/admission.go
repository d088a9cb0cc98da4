// Package admission turns finished fixtures into dataset records, exactly
// once per fixture, with features computed from the state before the match.
package admission

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/history"
	"github.com/albapepper/halftime-watch/internal/provider"
)

// Outcome is the result of offering one finished match to the dataset.
type Outcome int

const (
	Admitted Outcome = iota
	DuplicateSkipped
	IncompleteSkipped
	// WriteFailed means the record could not be persisted; the fixture
	// stays unknown and is offered again on the next cycle.
	WriteFailed
)

func (o Outcome) String() string {
	switch o {
	case Admitted:
		return "admitted"
	case DuplicateSkipped:
		return "duplicate"
	case IncompleteSkipped:
		return "incomplete"
	case WriteFailed:
		return "write_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// IncompleteRecordError describes why a finished match cannot be stored.
type IncompleteRecordError struct {
	FixtureID string
	Missing   string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("fixture %s: missing %s", e.FixtureID, e.Missing)
}

// Store is the subset of history.Store used for admission.
type Store interface {
	features.Histories
	Known(fixtureID string) bool
	Append(rec history.MatchRecord) error
}

// Admitter appends finished matches to the store.
type Admitter struct {
	store  Store
	logger *slog.Logger
}

// New creates an Admitter over store.
func New(store Store, logger *slog.Logger) *Admitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admitter{store: store, logger: logger}
}

// Admit records m if it is new and complete. IncompleteSkipped comes with an
// *IncompleteRecordError and WriteFailed with the write error.
func (a *Admitter) Admit(m provider.Match) (Outcome, error) {
	if a.store.Known(m.FixtureID) {
		a.logger.Debug("Fixture already in dataset", "fixture_id", m.FixtureID)
		return DuplicateSkipped, nil
	}
	if err := complete(m); err != nil {
		a.logger.Warn("Skipping incomplete fixture", "fixture_id", m.FixtureID, "error", err)
		return IncompleteSkipped, err
	}

	rec := Record(m, features.Compute(a.store, m.Home.ID, m.Away.ID))
	if err := a.store.Append(rec); err != nil {
		if errors.Is(err, history.ErrDuplicate) {
			return DuplicateSkipped, nil
		}
		return WriteFailed, fmt.Errorf("admit fixture %s: %w", m.FixtureID, err)
	}

	a.logger.Info("Fixture admitted",
		"fixture_id", m.FixtureID,
		"home", m.Home.Name, "away", m.Away.Name,
		"score", m.Goals.String(), "ht", m.HalfTime.String())
	return Admitted, nil
}

func complete(m provider.Match) error {
	if !m.HalfTime.Complete() {
		return &IncompleteRecordError{FixtureID: m.FixtureID, Missing: "half-time score"}
	}
	if !m.Goals.Complete() {
		return &IncompleteRecordError{FixtureID: m.FixtureID, Missing: "final score"}
	}
	return nil
}

// Record builds the dataset row for a complete match.
func Record(m provider.Match, fs features.Set) history.MatchRecord {
	return history.MatchRecord{
		FixtureID:  m.FixtureID,
		Date:       m.Date(),
		Time:       m.Time(),
		LeagueID:   m.League.ID,
		LeagueName: m.League.Name,
		Country:    m.League.Country,
		Round:      m.League.Round,
		HomeTeamID: m.Home.ID,
		HomeTeam:   m.Home.Name,
		AwayTeamID: m.Away.ID,
		AwayTeam:   m.Away.Name,
		HomeGoals:  *m.Goals.Home,
		AwayGoals:  *m.Goals.Away,
		HTHome:     *m.HalfTime.Home,
		HTAway:     *m.HalfTime.Away,
		FTHome:     m.FullTime.Home,
		FTAway:     m.FullTime.Away,
		Features:   fs,
	}
}
