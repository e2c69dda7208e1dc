package weather

import "errors"

var (
	// ErrNetwork indicates a transport-level failure talking to the provider.
	ErrNetwork = errors.New("weather provider unreachable")

	// ErrParse indicates the provider response did not have the expected shape.
	ErrParse = errors.New("unexpected weather provider response")

	// ErrCityNotFound is returned when geocoding yields zero results.
	ErrCityNotFound = errors.New("city not found")

	// ErrFetch is the coarse failure surfaced by the composite weather
	// operations. Callers only need to tell it apart from ErrCityNotFound.
	ErrFetch = errors.New("failed to fetch weather data")
)
