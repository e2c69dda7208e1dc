package weather

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxHourly is the number of forecast list entries taken verbatim as
	// hourly samples.
	MaxHourly = 24

	// MaxDaily is the number of calendar-day aggregates returned.
	MaxDaily = 7

	// DefaultSearchLimit is the geocoding result cap for city search.
	DefaultSearchLimit = 5
)

var validate = validator.New()

// coordsQuery carries the coordinate-range invariant.
type coordsQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// Service composes the provider client and the daily aggregator into the
// normalized {current, hourly, daily} view.
type Service struct {
	client Client
}

// NewService creates a new Service around an explicitly constructed client.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// ByCity resolves a city name through geocoding and fetches its weather.
// Zero geocoding hits yield ErrCityNotFound; any downstream failure is
// surfaced as ErrFetch.
func (s *Service) ByCity(ctx context.Context, name string) (WeatherData, error) {
	candidates, err := s.client.Geocode(ctx, name, 1)
	if err != nil {
		return WeatherData{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if len(candidates) == 0 {
		return WeatherData{}, fmt.Errorf("%w: %q", ErrCityNotFound, name)
	}
	return s.ByCoords(ctx, candidates[0].Lat, candidates[0].Lon)
}

// ByCoords fetches current conditions and the forecast for the coordinates
// concurrently and composes the normalized WeatherData.
func (s *Service) ByCoords(ctx context.Context, lat, lon float64) (WeatherData, error) {
	if err := validate.Struct(coordsQuery{Lat: lat, Lon: lon}); err != nil {
		return WeatherData{}, fmt.Errorf("%w: invalid coordinates (%v, %v)", ErrFetch, lat, lon)
	}

	var (
		wg          sync.WaitGroup
		current     CurrentWeather
		samples     []RawSample
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = s.client.Current(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		samples, forecastErr = s.client.Forecast(ctx, lat, lon)
	}()
	wg.Wait()

	if currentErr != nil {
		return WeatherData{}, fmt.Errorf("%w: %v", ErrFetch, currentErr)
	}
	if forecastErr != nil {
		return WeatherData{}, fmt.Errorf("%w: %v", ErrFetch, forecastErr)
	}

	return WeatherData{
		Current: current,
		Hourly:  normalizeHourly(samples),
		Daily:   BuildDaily(samples, MaxDaily),
	}, nil
}

// SearchCities returns geocoding candidates for a free-form query. Search is
// advisory: any failure degrades to an empty result instead of an error.
func (s *Service) SearchCities(ctx context.Context, query string, limit int) []CityCandidate {
	if strings.TrimSpace(query) == "" {
		return []CityCandidate{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	candidates, err := s.client.Geocode(ctx, query, limit)
	if err != nil {
		log.Printf("city search failed for %q: %v", query, err)
		return []CityCandidate{}
	}
	return candidates
}

// normalizeHourly takes the first MaxHourly samples verbatim, rounding
// temperatures and scaling pop to a percentage. The hourly sequence is
// strictly chronological; a sample whose timestamp does not advance past
// the previous one is dropped and logged.
func normalizeHourly(samples []RawSample) []HourlyForecast {
	hourly := make([]HourlyForecast, 0, MaxHourly)
	var lastTS int64
	for _, s := range samples {
		if len(hourly) >= MaxHourly {
			break
		}
		if len(hourly) > 0 && s.Timestamp <= lastTS {
			log.Printf("dropping out-of-order forecast sample: timestamp %d does not advance past %d", s.Timestamp, lastTS)
			continue
		}
		lastTS = s.Timestamp
		hourly = append(hourly, HourlyForecast{
			Time:        s.Timestamp,
			Temp:        roundInt(s.Temp),
			FeelsLike:   roundInt(s.FeelsLike),
			Humidity:    s.Humidity,
			WindSpeed:   s.WindSpeed,
			WeatherCode: s.WeatherCode,
			Description: s.Description,
			Icon:        s.Icon,
			Pop:         s.Pop * 100,
		})
	}
	return hourly
}
