package weather

import "context"

// Client abstracts the weather provider's HTTP endpoints. Implemented by the
// openweather package; tests substitute fakes.
type Client interface {
	// Current fetches point-in-time conditions for the given coordinates.
	Current(ctx context.Context, lat, lon float64) (CurrentWeather, error)

	// Forecast fetches the full 5-day/3-hour forecast list as raw samples.
	Forecast(ctx context.Context, lat, lon float64) ([]RawSample, error)

	// Geocode resolves a free-form place query to candidate locations.
	Geocode(ctx context.Context, query string, limit int) ([]CityCandidate, error)
}
