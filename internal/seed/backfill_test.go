package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/halftime-watch/internal/admission"
	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/history"
	"github.com/albapepper/halftime-watch/internal/provider"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeFinished struct {
	mu       sync.Mutex
	byLeague map[int][]provider.Match
	failing  map[int]bool
	calls    []int
}

func (f *fakeFinished) FetchFinished(_ context.Context, league, _ int) ([]provider.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, league)
	if f.failing[league] {
		return nil, errors.New("boom")
	}
	return f.byLeague[league], nil
}

func ft(id string, day int, home, away string, hg, ag int) provider.Match {
	return provider.Match{
		FixtureID: id,
		Kickoff:   time.Date(2025, 8, day, 18, 0, 0, 0, time.UTC),
		Status:    provider.StatusFinished,
		Home:      provider.Team{ID: home, Name: home},
		Away:      provider.Team{ID: away, Name: away},
		Goals:     provider.Score{Home: provider.IntPtr(hg), Away: provider.IntPtr(ag)},
		HalfTime:  provider.Score{Home: provider.IntPtr(0), Away: provider.IntPtr(0)},
		FullTime:  provider.Score{Home: provider.IntPtr(hg), Away: provider.IntPtr(ag)},
	}
}

func TestBackfillAdmitsChronologically(t *testing.T) {
	ds := history.NewCSVDataset(filepath.Join(t.TempDir(), "m.csv"))
	store := history.NewStore(ds)
	src := &fakeFinished{byLeague: map[int][]provider.Match{
		39:  {ft("3", 20, "A", "B", 1, 1), ft("1", 2, "A", "C", 2, 0)},
		203: {ft("2", 10, "A", "D", 4, 0)},
	}}

	res := Backfill(context.Background(), src, admission.New(store, quiet), []int{39, 203}, 2025, 2, quiet)

	assert.Equal(t, 3, res.Admitted)
	assert.Equal(t, 2, res.LeaguesFetched)
	assert.Empty(t, res.Errors)

	read, err := ds.ReadAll()
	require.NoError(t, err)
	require.Len(t, read.Records, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{read.Records[0].FixtureID, read.Records[1].FixtureID, read.Records[2].FixtureID})
	last := read.Records[2].Features
	require.NotNil(t, last.HomeTeamHomeAvg)
	assert.Equal(t, 3.0, *last.HomeTeamHomeAvg)
	assert.Equal(t, features.Unknown, last.HomeNoGoalLast5)
}

func TestBackfillSkipsKnownAndContinuesPastFailures(t *testing.T) {
	ds := history.NewCSVDataset(filepath.Join(t.TempDir(), "m.csv"))
	store := history.NewStore(ds)
	admitter := admission.New(store, quiet)
	_, err := admitter.Admit(ft("1", 2, "A", "C", 2, 0))
	require.NoError(t, err)

	incomplete := ft("4", 21, "A", "B", 1, 0)
	incomplete.HalfTime = provider.Score{}
	src := &fakeFinished{
		byLeague: map[int][]provider.Match{39: {ft("1", 2, "A", "C", 2, 0), ft("3", 20, "A", "B", 1, 1), incomplete}},
		failing:  map[int]bool{140: true},
	}

	res := Backfill(context.Background(), src, admitter, []int{39, 140}, 2025, 4, quiet)

	assert.Equal(t, 1, res.Admitted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Incomplete)
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Summary(), "admitted=1")
	assert.ElementsMatch(t, []int{39, 140}, src.calls)
}

func TestResultAdd(t *testing.T) {
	a := Result{Admitted: 1, Errors: []string{"x"}}
	a.Add(Result{Admitted: 2, Duplicates: 1, Errors: []string{"y"}})
	a.AddError("z")
	assert.Equal(t, 3, a.Admitted)
	assert.Equal(t, 1, a.Duplicates)
	assert.Equal(t, []string{"x", "y", "z"}, a.Errors)
}

type failingAdmitter struct {
	failOn string
	seen   []string
}

func (a *failingAdmitter) Admit(m provider.Match) (admission.Outcome, error) {
	a.seen = append(a.seen, m.FixtureID)
	if m.FixtureID == a.failOn {
		return admission.WriteFailed, errors.New("disk full")
	}
	return admission.Admitted, nil
}

func TestBackfillStopsOnWriteFailure(t *testing.T) {
	src := &fakeFinished{
		byLeague: map[int][]provider.Match{
			39:  {ft("1", 2, "A", "B", 1, 0), ft("3", 20, "A", "B", 0, 0)},
			140: {ft("2", 10, "C", "D", 2, 2)},
		},
		failing: map[int]bool{203: true},
	}
	admitter := &failingAdmitter{failOn: "2"}

	res := Backfill(context.Background(), src, admitter, []int{39, 140, 203}, 2025, 3, quiet)

	assert.Equal(t, []string{"1", "2"}, admitter.seen)
	assert.Equal(t, 1, res.Admitted)
	assert.Equal(t, 2, res.LeaguesFetched)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors, "league 203: boom")
	assert.Contains(t, res.Errors[1], "disk full")
}
