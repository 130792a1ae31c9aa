// Package f1 fetches race results and standings from a Jolpica/Ergast-style
// API, caching every response through a gridcache.Cache so repeated queries
// for the same season and round cost no network round-trip.
package f1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/apexanalytics/gridcache"
)

// DefaultBaseURL is the public Jolpica endpoint serving Ergast-compatible
// data.
const DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

// DefaultTimeout bounds each API request.
const DefaultTimeout = 30 * time.Second

// ErrNoCache indicates no cache was provided.
var ErrNoCache = errors.New("f1: no cache provided")

// memoCapacity bounds the decoded-object memo. Small: it only spares the
// JSON decode for keys that are already hot in the byte cache.
const memoCapacity = 64

// Result is one classified finisher of a race.
type Result struct {
	Position    int
	Points      float64
	Driver      string
	Code        string
	Constructor string
}

// DriverStanding is one row of the championship standings.
type DriverStanding struct {
	Position    int
	Points      float64
	Wins        int
	Driver      string
	Code        string
	Constructor string
}

// ConstructorStanding is one row of the constructors' championship.
type ConstructorStanding struct {
	Position    int
	Points      float64
	Wins        int
	Constructor string
}

// Client fetches F1 data with two layers of reuse: a decoded-object memo
// for hot keys and the byte-level cache for everything else.
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *gridcache.Cache
	memo    *expirable.LRU[string, any]
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL. Default is the public Jolpica
// endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithLogger sets the logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client backed by the given cache.
func NewClient(cache *gridcache.Cache, opts ...Option) (*Client, error) {
	if cache == nil {
		return nil, ErrNoCache
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		cache:   cache,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Memo entries expire with the cache so a stale decode can never
	// outlive the bytes it was decoded from.
	c.memo = expirable.NewLRU[string, any](memoCapacity, nil, cache.TTL())

	return c, nil
}

// Results returns the race classification for a season and round.
func (c *Client) Results(ctx context.Context, season, round int) ([]Result, error) {
	return memoized(ctx, c, resultsKey(season, round), func(ctx context.Context) ([]Result, error) {
		path := fmt.Sprintf("/%d/%d/results.json", season, round)
		var resp ergastResponse
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return nil, err
		}
		races := resp.MRData.RaceTable.Races
		if len(races) == 0 {
			return nil, nil
		}
		results := make([]Result, 0, len(races[0].Results))
		for _, r := range races[0].Results {
			results = append(results, Result{
				Position:    atoi(r.Position),
				Points:      atof(r.Points),
				Driver:      r.Driver.GivenName + " " + r.Driver.FamilyName,
				Code:        r.Driver.Code,
				Constructor: r.Constructor.Name,
			})
		}
		return results, nil
	})
}

// DriverStandings returns the drivers' championship standings for a season.
func (c *Client) DriverStandings(ctx context.Context, season int) ([]DriverStanding, error) {
	return memoized(ctx, c, driverStandingsKey(season), func(ctx context.Context) ([]DriverStanding, error) {
		path := fmt.Sprintf("/%d/driverStandings.json", season)
		var resp ergastResponse
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return nil, err
		}
		lists := resp.MRData.StandingsTable.StandingsLists
		if len(lists) == 0 {
			return nil, nil
		}
		standings := make([]DriverStanding, 0, len(lists[0].DriverStandings))
		for _, s := range lists[0].DriverStandings {
			row := DriverStanding{
				Position: atoi(s.Position),
				Points:   atof(s.Points),
				Wins:     atoi(s.Wins),
				Driver:   s.Driver.GivenName + " " + s.Driver.FamilyName,
				Code:     s.Driver.Code,
			}
			if len(s.Constructors) > 0 {
				row.Constructor = s.Constructors[len(s.Constructors)-1].Name
			}
			standings = append(standings, row)
		}
		return standings, nil
	})
}

// ConstructorStandings returns the constructors' championship standings for
// a season.
func (c *Client) ConstructorStandings(ctx context.Context, season int) ([]ConstructorStanding, error) {
	return memoized(ctx, c, constructorStandingsKey(season), func(ctx context.Context) ([]ConstructorStanding, error) {
		path := fmt.Sprintf("/%d/constructorStandings.json", season)
		var resp ergastResponse
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return nil, err
		}
		lists := resp.MRData.StandingsTable.StandingsLists
		if len(lists) == 0 {
			return nil, nil
		}
		standings := make([]ConstructorStanding, 0, len(lists[0].ConstructorStandings))
		for _, s := range lists[0].ConstructorStandings {
			standings = append(standings, ConstructorStanding{
				Position:    atoi(s.Position),
				Points:      atof(s.Points),
				Wins:        atoi(s.Wins),
				Constructor: s.Constructor.Name,
			})
		}
		return standings, nil
	})
}

// memoized layers the decoded-object memo over the byte cache.
func memoized[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.memo.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := gridcache.Fetch(ctx, c.cache, key, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	c.memo.Add(key, v)
	return v, nil
}

// getJSON performs a GET against the API and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug("fetching", zap.String("url", url))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// atoi parses Ergast's stringly-typed integers, defaulting to 0.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// atof parses Ergast's stringly-typed points values, defaulting to 0.
func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
