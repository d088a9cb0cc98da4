package admission

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/history"
	"github.com/albapepper/halftime-watch/internal/provider"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) (*history.Store, *history.CSVDataset) {
	t.Helper()
	ds := history.NewCSVDataset(filepath.Join(t.TempDir(), "matches.csv"))
	s := history.NewStore(ds)
	_, err := s.Load()
	require.NoError(t, err)
	return s, ds
}

func finished(id string, day int, home, away string, hg, ag, hth, hta int) provider.Match {
	return provider.Match{
		FixtureID: id,
		Kickoff:   time.Date(2025, 8, day, 18, 0, 0, 0, time.UTC),
		Status:    provider.StatusFinished,
		League:    provider.League{ID: 203, Name: "Süper Lig", Country: "Turkey"},
		Home:      provider.Team{ID: home, Name: home},
		Away:      provider.Team{ID: away, Name: away},
		Goals:     provider.Score{Home: provider.IntPtr(hg), Away: provider.IntPtr(ag)},
		HalfTime:  provider.Score{Home: provider.IntPtr(hth), Away: provider.IntPtr(hta)},
		FullTime:  provider.Score{Home: provider.IntPtr(hg), Away: provider.IntPtr(ag)},
	}
}

func TestAdmitIsIdempotent(t *testing.T) {
	s, ds := newStore(t)
	a := New(s, quiet)
	m := finished("100", 1, "A", "B", 2, 1, 1, 0)

	out, err := a.Admit(m)
	require.NoError(t, err)
	assert.Equal(t, Admitted, out)

	for i := 0; i < 3; i++ {
		out, err = a.Admit(m)
		require.NoError(t, err)
		assert.Equal(t, DuplicateSkipped, out)
	}

	res, err := ds.ReadAll()
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, []int{2}, s.HomeGoals("A"))
	assert.Equal(t, []int{1}, s.AwayGoals("B"))
}

func TestAdmitDuplicateAcrossReload(t *testing.T) {
	s, ds := newStore(t)
	_, err := New(s, quiet).Admit(finished("100", 1, "A", "B", 2, 1, 1, 0))
	require.NoError(t, err)

	fresh := history.NewStore(ds)
	_, err = fresh.Load()
	require.NoError(t, err)

	out, err := New(fresh, quiet).Admit(finished("100", 1, "A", "B", 2, 1, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, DuplicateSkipped, out)
}

func TestAdmitIncomplete(t *testing.T) {
	s, ds := newStore(t)
	m := finished("100", 1, "A", "B", 2, 1, 0, 0)
	m.HalfTime = provider.Score{}

	out, err := New(s, quiet).Admit(m)
	assert.Equal(t, IncompleteSkipped, out)
	var ie *IncompleteRecordError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "half-time score", ie.Missing)

	res, err := ds.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.False(t, s.Known("100"))
	assert.Nil(t, s.Goals("A"))
}

func TestAdmitNoLookAhead(t *testing.T) {
	s, ds := newStore(t)
	a := New(s, quiet)

	_, err := a.Admit(finished("1", 1, "A", "B", 3, 0, 1, 0))
	require.NoError(t, err)
	_, err = a.Admit(finished("2", 8, "A", "C", 1, 1, 0, 0))
	require.NoError(t, err)

	res, err := ds.ReadAll()
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	first := res.Records[0].Features
	assert.Nil(t, first.HomeTeamHomeAvg, "first match has no prior history")
	assert.Nil(t, first.CombinedHomeAway)

	second := res.Records[1].Features
	require.NotNil(t, second.HomeTeamHomeAvg)
	assert.Equal(t, 3.0, *second.HomeTeamHomeAvg, "only the earlier match counts")
	assert.Nil(t, second.AwayTeamAwayAvg)
}

func TestAdmitDroughtSnapshot(t *testing.T) {
	s, ds := newStore(t)
	a := New(s, quiet)
	for i := 1; i <= 5; i++ {
		_, err := a.Admit(finished(string(rune('0'+i)), i, "A", "X", 0, 1, 0, 0))
		require.NoError(t, err)
	}
	_, err := a.Admit(finished("9", 20, "A", "B", 1, 0, 0, 0))
	require.NoError(t, err)

	res, err := ds.ReadAll()
	require.NoError(t, err)
	require.Len(t, res.Records, 6)
	assert.Equal(t, features.Unknown, res.Records[4].Features.HomeNoGoalLast5)
	assert.Equal(t, features.Yes, res.Records[5].Features.HomeNoGoalLast5)
}

type failingStore struct {
	*history.Store
}

func (failingStore) Append(history.MatchRecord) error { return errors.New("disk full") }

func TestAdmitWriteFailure(t *testing.T) {
	s, _ := newStore(t)
	out, err := New(failingStore{s}, quiet).Admit(finished("1", 1, "A", "B", 1, 0, 0, 0))
	assert.Equal(t, WriteFailed, out)
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, s.Known("1"))
}
