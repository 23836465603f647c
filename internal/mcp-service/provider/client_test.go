package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", nil, zap.NewNop())
}

func TestFetchOddsForwardsQueryParams(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"apiKey":     r.URL.Query().Get("apiKey"),
			"regions":    r.URL.Query().Get("regions"),
			"markets":    r.URL.Query().Get("markets"),
			"oddsFormat": r.URL.Query().Get("oddsFormat"),
			"dateFormat": r.URL.Query().Get("dateFormat"),
		}
		assert.Equal(t, "/sports/baseball_mlb/odds", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"ev1","home_team":"Red Sox","away_team":"Yankees","commence_time":"2026-01-16T00:05:00Z","bookmakers":[]}]`))
	})

	games, err := c.FetchOdds(context.Background(), "baseball_mlb", []string{"h2h", "spreads"}, "us")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "ev1", games[0].ID)
	assert.Equal(t, "Red Sox", games[0].HomeTeam)

	assert.Equal(t, "test-key", gotQuery["apiKey"])
	assert.Equal(t, "us", gotQuery["regions"])
	assert.Equal(t, "h2h,spreads", gotQuery["markets"])
	assert.Equal(t, "decimal", gotQuery["oddsFormat"])
	assert.Equal(t, "iso", gotQuery["dateFormat"])
}

func TestFetchOddsNon2xxReturnsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := c.FetchOdds(context.Background(), "baseball_mlb", []string{"h2h"}, "us")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.Contains(t, httpErr.Error(), "429")
}

func TestFetchOddsunexpectedShapeReturnsSchemaError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"not an array"}`))
	})

	_, err := c.FetchOdds(context.Background(), "baseball_mlb", []string{"h2h"}, "us")
	require.Error(t, err)

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestFetchEventsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown sport", http.StatusNotFound)
	})

	_, err := c.FetchEvents(context.Background(), "cricket_test")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestFetchEventOddsRestrictsBookmaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/baseball_mlb/events/ev1/odds", r.URL.Path)
		assert.Equal(t, "draftkings", r.URL.Query().Get("bookmakers"))
		assert.Equal(t, "us", r.URL.Query().Get("regions"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ev1","home_team":"Red Sox","away_team":"Yankees","commence_time":"2026-01-16T00:05:00Z","bookmakers":[{"key":"draftkings","title":"DraftKings","markets":[{"key":"batter_home_runs","outcomes":[{"name":"Over","description":"Aaron Judge","price":2.35,"point":0.5}]}]}]}`))
	})

	game, err := c.FetchEventOdds(context.Background(), "baseball_mlb", "ev1", []string{"batter_home_runs"}, "draftkings")
	require.NoError(t, err)
	require.NotNil(t, game)
	require.Len(t, game.Bookmakers, 1)
	require.Len(t, game.Bookmakers[0].Markets, 1)

	o := game.Bookmakers[0].Markets[0].Outcomes[0]
	assert.Equal(t, "Aaron Judge", o.Description)
	require.NotNil(t, o.Point)
	assert.Equal(t, 0.5, *o.Point)
}
