package decision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/halftime-watch/internal/features"
	"github.com/albapepper/halftime-watch/internal/provider"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingSink struct {
	sent []string
	err  error
}

func (s *recordingSink) Send(_ context.Context, text string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, text)
	return nil
}

func live(id, status string, hth, hta int) provider.Match {
	return provider.Match{
		FixtureID: id,
		Status:    status,
		Elapsed:   provider.IntPtr(47),
		League:    provider.League{ID: 39, Name: "Premier League", Country: "England"},
		Home:      provider.Team{ID: "1", Name: "Brighton & Hove"},
		Away:      provider.Team{ID: "2", Name: "Wolves"},
		Goals:     provider.Score{Home: provider.IntPtr(0), Away: provider.IntPtr(0)},
		HalfTime:  provider.Score{Home: provider.IntPtr(hth), Away: provider.IntPtr(hta)},
	}
}

func f(v float64) *float64 { return &v }

func fullSet(home, away float64, hd, ad features.Flag) features.Set {
	return features.Set{
		HomeTeamHomeAvg:  f(home),
		AwayTeamAwayAvg:  f(away),
		CombinedHomeAway: features.Sum(f(home), f(away)),
		HomeNoGoalLast5:  hd,
		AwayNoGoalLast5:  ad,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		m    provider.Match
		fs   features.Set
		want Outcome
	}{
		{"first half", live("1", "1H", 0, 0), fullSet(2, 2, features.No, features.No), Ineligible},
		{"not started", live("1", "NS", 0, 0), fullSet(2, 2, features.No, features.No), Ineligible},
		{"finished", live("1", "FT", 0, 0), fullSet(2, 2, features.No, features.No), Ineligible},
		{"ht not 0-0", live("1", "HT", 1, 0), fullSet(2, 2, features.No, features.No), Ineligible},
		{"ht unknown", func() provider.Match { m := live("1", "HT", 0, 0); m.HalfTime = provider.Score{}; return m }(), fullSet(2, 2, features.No, features.No), Ineligible},
		{"no history", live("1", "HT", 0, 0), features.Set{HomeTeamHomeAvg: f(3)}, NotifyInsufficientData},
		{"exactly threshold", live("1", "2H", 0, 0), fullSet(1.25, 1.25, features.No, features.No), Suppress},
		{"just above threshold", live("1", "2H", 0, 0), fullSet(1.26, 1.25, features.No, features.No), NotifyFull},
		{"below threshold partial", live("1", "HT", 0, 0), fullSet(1, 1, features.Unknown, features.Unknown), Suppress},
		{"home drought", live("1", "ET", 0, 0), fullSet(2, 2, features.Yes, features.No), Suppress},
		{"away drought partial", live("1", "BT", 0, 0), fullSet(2, 2, features.Unknown, features.Yes), Suppress},
		{"home flag unknown", live("1", "P", 0, 0), fullSet(2, 2, features.Unknown, features.No), NotifyPartialData},
		{"both unknown", live("1", "HT", 0, 0), fullSet(2, 2, features.Unknown, features.Unknown), NotifyPartialData},
		{"full", live("1", "HT", 0, 0), fullSet(1.5, 5.0/3.0, features.No, features.No), NotifyFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&recordingSink{}, quiet)
			got := e.Evaluate(tt.m, tt.fs)
			assert.Equal(t, tt.want, got.Outcome, got.Reason)
		})
	}
}

func TestEvaluateDoesNotMarkNotified(t *testing.T) {
	e := NewEngine(&recordingSink{}, quiet)
	m := live("7", "HT", 0, 0)
	fs := fullSet(2, 2, features.No, features.No)

	assert.Equal(t, NotifyFull, e.Evaluate(m, fs).Outcome)
	assert.Equal(t, NotifyFull, e.Evaluate(m, fs).Outcome)
	assert.Zero(t, e.Notified().Len())
}

func TestHandleNotifiesOnce(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(sink, quiet)
	m := live("7", "HT", 0, 0)
	fs := fullSet(2, 2, features.No, features.No)

	d, err := e.Handle(context.Background(), m, fs)
	require.NoError(t, err)
	assert.Equal(t, NotifyFull, d.Outcome)

	m.Status = "2H"
	d, err = e.Handle(context.Background(), m, fs)
	require.NoError(t, err)
	assert.Equal(t, Ineligible, d.Outcome)

	assert.Len(t, sink.sent, 1)
	assert.True(t, e.Notified().Contains("7"))
}

func TestHandleDeliveryFailureStaysEligible(t *testing.T) {
	sink := &recordingSink{err: errors.New("telegram down")}
	e := NewEngine(sink, quiet)
	m := live("7", "HT", 0, 0)
	fs := fullSet(2, 2, features.No, features.No)

	d, err := e.Handle(context.Background(), m, fs)
	var de *DeliveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "7", de.FixtureID)
	assert.Equal(t, NotifyFull, d.Outcome)
	assert.False(t, e.Notified().Contains("7"))

	sink.err = nil
	d, err = e.Handle(context.Background(), m, fs)
	require.NoError(t, err)
	assert.Equal(t, NotifyFull, d.Outcome)
	assert.Len(t, sink.sent, 1)
	assert.True(t, e.Notified().Contains("7"))
}

func TestHandleSuppressDoesNotSend(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(sink, quiet)

	d, err := e.Handle(context.Background(), live("7", "HT", 0, 0), fullSet(1, 1, features.No, features.No))
	require.NoError(t, err)
	assert.Equal(t, Suppress, d.Outcome)
	assert.Empty(t, sink.sent)
	assert.False(t, e.Notified().Contains("7"))
}

func TestFormatMessage(t *testing.T) {
	m := live("7", "HT", 0, 0)

	full := FormatMessage(NotifyFull, m, fullSet(1.5, 5.0/3.0, features.No, features.No))
	assert.Contains(t, full, "🔔 <b>HT 0-0</b>")
	assert.Contains(t, full, "Brighton &amp; Hove")
	assert.Contains(t, full, "Premier League (England)")
	assert.Contains(t, full, "Score: 0-0 | HT: 0-0 | 47'")
	assert.Contains(t, full, "Combined avg: 3.17")
	assert.Contains(t, full, "Home avg (home): 1.50")
	assert.Contains(t, full, "Away avg (away): 1.67")

	partial := FormatMessage(NotifyPartialData, m, fullSet(2, 2, features.Unknown, features.No))
	assert.Contains(t, partial, "Combined avg: 4.00")
	assert.Contains(t, partial, "Last-5 data missing")
	assert.NotContains(t, partial, "Home avg (home)")

	insufficient := FormatMessage(NotifyInsufficientData, m, features.Set{})
	assert.Contains(t, insufficient, "insufficient data")
	assert.NotContains(t, insufficient, "Combined avg")
}

func TestNotifiedSetIDs(t *testing.T) {
	s := NewNotifiedSet()
	s.Add("b")
	s.Add("a")
	s.Add("b")
	assert.Equal(t, []string{"a", "b"}, s.IDs())
	assert.Equal(t, 2, s.Len())
}
