package apifootball

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/halftime-watch/internal/provider"
)

const liveFixture = `{
  "get": "fixtures",
  "errors": [],
  "results": 2,
  "response": [
    {
      "fixture": {"id": 1001, "date": "2025-08-16T14:00:00+00:00", "status": {"short": "HT", "elapsed": 45}},
      "league": {"id": 39, "name": "Premier League", "country": "England", "round": "Regular Season - 1"},
      "teams": {"home": {"id": 33, "name": "Home FC"}, "away": {"id": 34, "name": "Away FC"}},
      "goals": {"home": 0, "away": 0},
      "score": {"halftime": {"home": 0, "away": 0}, "fulltime": {"home": null, "away": null}}
    },
    {
      "fixture": {"id": null, "date": "2025-08-16T14:00:00+00:00", "status": {"short": "HT"}},
      "teams": {"home": {"id": 1}, "away": {"id": 2}}
    }
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, "secret", 6000, 5*time.Second, logger)
}

func TestFetchLive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fixtures", r.URL.Path)
		assert.Equal(t, "39-203", r.URL.Query().Get("live"))
		assert.Equal(t, "secret", r.Header.Get("x-apisports-key"))
		_, _ = io.WriteString(w, liveFixture)
	})

	matches, err := c.FetchLive(context.Background(), []int{39, 203})
	require.NoError(t, err)
	require.Len(t, matches, 1, "malformed entry is dropped")

	m := matches[0]
	assert.Equal(t, "1001", m.FixtureID)
	assert.Equal(t, "2025-08-16", m.Date())
	assert.Equal(t, "14:00", m.Time())
	assert.Equal(t, "33", m.Home.ID)
	assert.Equal(t, "Away FC", m.Away.Name)
	assert.True(t, m.IsLive())
	assert.True(t, m.HalfTime.Is(0, 0))
	assert.False(t, m.FullTime.Complete())
	require.NotNil(t, m.Elapsed)
	assert.Equal(t, 45, *m.Elapsed)
}

func TestFetchFinishedParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "203", q.Get("league"))
		assert.Equal(t, "2025", q.Get("season"))
		assert.Equal(t, "FT", q.Get("status"))
		_, _ = io.WriteString(w, `{"errors": {}, "results": 0, "response": []}`)
	})

	matches, err := c.FetchFinished(context.Background(), 203, 2025)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFetchUpcomingTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Europe/Istanbul", r.URL.Query().Get("timezone"))
		assert.Equal(t, "10", r.URL.Query().Get("next"))
		_, _ = io.WriteString(w, `{"errors": [], "response": []}`)
	})

	_, err = c.FetchUpcoming(context.Background(), 39, 2025, 10, loc)
	require.NoError(t, err)
}

func TestDataSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusInternalServerError, "boom"},
		{"api errors", http.StatusOK, `{"errors": {"token": "Error/Missing application key"}, "response": []}`},
		{"api error list", http.StatusOK, `{"errors": ["rate limit"], "response": []}`},
		{"bad json", http.StatusOK, `{"errors": [], "response": {`},
		{"bad response shape", http.StatusOK, `{"errors": [], "response": {"a": 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.FetchLive(context.Background(), []int{39})
			var dsErr *provider.DataSourceError
			require.True(t, errors.As(err, &dsErr), "got %v", err)
			assert.Equal(t, "fetch live", dsErr.Op)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "k", 6000, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.FetchLive(context.Background(), []int{39})
	var dsErr *provider.DataSourceError
	assert.ErrorAs(t, err, &dsErr)
}
