package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skycast/internal/weather"
)

// WeatherResult is the typed cache-state triple handed to presentation code.
type WeatherResult struct {
	Loading bool
	Err     error
	Data    *weather.WeatherData
}

// SearchResult mirrors WeatherResult for city-search queries.
type SearchResult struct {
	Loading bool
	Err     error
	Data    []weather.CityCandidate
}

// Weather is the typed front-end for weather queries. A query is only active
// when its argument is present; otherwise the idle zero result is returned
// and nothing is fetched.
type Weather struct {
	store *Store
	svc   *weather.Service
}

// NewWeather creates the weather query front-end. The freshness window
// defaults to 10 minutes.
func NewWeather(svc *weather.Service, opts Options) *Weather {
	return &Weather{store: NewStore(opts), svc: svc}
}

// Store exposes the underlying keyed store for subscriptions and pruning.
func (w *Weather) Store() *Store {
	return w.store
}

// ByCity returns the cached or freshly fetched weather for a city name.
func (w *Weather) ByCity(ctx context.Context, city string) (WeatherResult, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return WeatherResult{}, nil
	}

	key := "weather:city:" + strings.ToLower(city)
	snap, err := w.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		data, err := w.svc.ByCity(ctx, city)
		if err != nil {
			return nil, err
		}
		return &data, nil
	})
	if err != nil {
		return WeatherResult{Loading: snap.IsLoading()}, err
	}
	return toWeatherResult(snap), nil
}

// ByCoords returns the weather for a coordinate pair. Nil coordinates keep
// the query disabled. The cache key rounds both coordinates to four decimal
// places (roughly 11 m), so coordinates that only differ beyond that share
// one cached entry; the fetch itself still uses the full-precision values.
func (w *Weather) ByCoords(ctx context.Context, lat, lon *float64) (WeatherResult, error) {
	if lat == nil || lon == nil {
		return WeatherResult{}, nil
	}

	la, lo := *lat, *lon
	key := fmt.Sprintf("weather:coords:%.4f,%.4f", la, lo)
	snap, err := w.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		data, err := w.svc.ByCoords(ctx, la, lo)
		if err != nil {
			return nil, err
		}
		return &data, nil
	})
	if err != nil {
		return WeatherResult{Loading: snap.IsLoading()}, err
	}
	return toWeatherResult(snap), nil
}

func toWeatherResult(snap Snapshot) WeatherResult {
	res := WeatherResult{Loading: snap.IsLoading(), Err: snap.Err}
	if data, ok := snap.Data.(*weather.WeatherData); ok {
		res.Data = data
	}
	return res
}

// CitySearch is the typed front-end for geocoding searches. Queries shorter
// than MinQueryLen stay disabled.
type CitySearch struct {
	store *Store
	svc   *weather.Service
	limit int
}

// MinQueryLen is the minimum city-search query length that triggers a fetch.
const MinQueryLen = 3

// NewCitySearch creates the search front-end. The freshness window for
// search results is shorter than for weather; pass it via opts (5 minutes
// is the product default).
func NewCitySearch(svc *weather.Service, opts Options) *CitySearch {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	return &CitySearch{store: NewStore(opts), svc: svc, limit: weather.DefaultSearchLimit}
}

// Store exposes the underlying keyed store for subscriptions and pruning.
func (c *CitySearch) Store() *Store {
	return c.store
}

// Search returns city candidates for the query. The underlying search never
// fails; a degraded backend shows up as an empty candidate list.
func (c *CitySearch) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLen {
		return SearchResult{}, nil
	}

	key := "cities:" + strings.ToLower(query)
	snap, err := c.store.Get(ctx, key, func(ctx context.Context) (any, error) {
		return c.svc.SearchCities(ctx, query, c.limit), nil
	})
	if err != nil {
		return SearchResult{Loading: snap.IsLoading()}, err
	}

	res := SearchResult{Loading: snap.IsLoading(), Err: snap.Err}
	if data, ok := snap.Data.([]weather.CityCandidate); ok {
		res.Data = data
	}
	return res, nil
}
