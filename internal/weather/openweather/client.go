package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"skycast/internal/weather"
)

const (
	// DefaultBaseURL serves the current-conditions and forecast endpoints.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultGeoURL serves the direct-geocoding endpoint.
	DefaultGeoURL = "https://api.openweathermap.org/geo/1.0"

	// DefaultLang is the language requested for condition descriptions.
	DefaultLang = "vi"
)

// Config holds the explicit construction parameters for a Client.
// The zero value of every optional field gets a sensible default.
type Config struct {
	APIKey  string
	BaseURL string
	GeoURL  string
	Lang    string

	// HTTPClient is the shared outbound client; defaults to a 15s-timeout one.
	HTTPClient *http.Client

	// RateLimit caps outbound requests per second; Burst is the bucket size.
	RateLimit float64
	Burst     int
}

// Client talks to the OpenWeatherMap HTTP API and normalizes its responses
// into domain records. All methods are safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	geoURL  string
	lang    string
	http    *http.Client
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
}

// New creates a Client. The API key may be empty; requests made without one
// simply fail at the provider.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.GeoURL == "" {
		cfg.GeoURL = DefaultGeoURL
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		geoURL:  cfg.GeoURL,
		lang:    cfg.Lang,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		circuit: cb,
	}
}

// Current fetches and normalizes point-in-time conditions for the
// coordinates. Temperatures are rounded to whole degrees; the UV index is
// always 0 because this endpoint never provides it.
func (c *Client) Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	values.Set("lang", c.lang)

	resp, err := c.do(ctx, fmt.Sprintf("%s/weather?%s", c.baseURL, values.Encode()))
	if err != nil {
		return weather.CurrentWeather{}, err
	}
	defer resp.Body.Close()

	// Required blocks decode through pointers so an absent block reads as
	// nil instead of silently zero-filled values.
	var payload struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Main *struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind *struct {
			Speed float64 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Sys *struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
		Coord *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Visibility int `json:"visibility"`
		Timezone   int `json:"timezone"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentWeather{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	if len(payload.Weather) == 0 {
		return weather.CurrentWeather{}, fmt.Errorf("%w: missing weather condition element", weather.ErrParse)
	}
	switch {
	case payload.Main == nil:
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather payload without main block", weather.ErrParse)
	case payload.Wind == nil:
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather payload without wind block", weather.ErrParse)
	case payload.Sys == nil:
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather payload without sys block", weather.ErrParse)
	case payload.Coord == nil:
		return weather.CurrentWeather{}, fmt.Errorf("%w: current weather payload without coord block", weather.ErrParse)
	}

	return weather.CurrentWeather{
		ID:            payload.ID,
		Name:          payload.Name,
		Country:       payload.Sys.Country,
		Temp:          roundInt(payload.Main.Temp),
		FeelsLike:     roundInt(payload.Main.FeelsLike),
		Humidity:      payload.Main.Humidity,
		Pressure:      payload.Main.Pressure,
		Visibility:    payload.Visibility,
		UVIndex:       0,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		WeatherCode:   payload.Weather[0].Main,
		Description:   payload.Weather[0].Description,
		Icon:          payload.Weather[0].Icon,
		Sunrise:       payload.Sys.Sunrise,
		Sunset:        payload.Sys.Sunset,
		Timezone:      payload.Timezone,
		Coords:        weather.Coord{Lat: payload.Coord.Lat, Lon: payload.Coord.Lon},
	}, nil
}

// Forecast fetches the full 5-day/3-hour list as raw samples in provider
// order. Pop stays a [0,1] fraction here; scaling happens at normalization.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]weather.RawSample, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	values.Set("lang", c.lang)

	resp, err := c.do(ctx, fmt.Sprintf("%s/forecast?%s", c.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		City struct {
			Timezone int `json:"timezone"`
		} `json:"city"`
		List []struct {
			Dt   *int64 `json:"dt"`
			Main *struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  int     `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []struct {
				Main        string `json:"main"`
				Description string `json:"description"`
				Icon        string `json:"icon"`
			} `json:"weather"`
			Pop float64 `json:"pop"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}

	samples := make([]weather.RawSample, 0, len(payload.List))
	for _, item := range payload.List {
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("%w: forecast entry without weather condition", weather.ErrParse)
		}
		if item.Dt == nil {
			return nil, fmt.Errorf("%w: forecast entry without timestamp", weather.ErrParse)
		}
		if item.Main == nil {
			return nil, fmt.Errorf("%w: forecast entry without main block", weather.ErrParse)
		}
		samples = append(samples, weather.RawSample{
			Timestamp:   *item.Dt,
			Temp:        item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			WeatherCode: item.Weather[0].Main,
			Description: item.Weather[0].Description,
			Icon:        item.Weather[0].Icon,
			Pop:         item.Pop,
			TZOffset:    payload.City.Timezone,
		})
	}
	return samples, nil
}

// Geocode resolves a free-form place query via the direct-geocoding endpoint.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]weather.CityCandidate, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", fmt.Sprintf("%d", limit))
	values.Set("appid", c.apiKey)

	resp, err := c.do(ctx, fmt.Sprintf("%s/direct?%s", c.geoURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var results []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}

	candidates := make([]weather.CityCandidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, weather.CityCandidate{
			Name:    r.Name,
			Country: r.Country,
			Lat:     r.Lat,
			Lon:     r.Lon,
		})
	}
	return candidates, nil
}
