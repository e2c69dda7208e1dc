package weather

import (
	"fmt"
	"strings"
)

// Condition represents a normalized high-level weather condition derived
// from the provider's icon code.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionSnow         Condition = "snow"
	ConditionMist         Condition = "mist"
)

// ConditionFromIcon maps a provider icon code (e.g. "01d", "10n") to a
// normalized condition category.
func ConditionFromIcon(icon string) Condition {
	if len(icon) < 2 {
		return ConditionUnknown
	}
	switch icon[:2] {
	case "01":
		return ConditionClear
	case "02", "03", "04":
		return ConditionClouds
	case "09":
		return ConditionDrizzle
	case "10":
		return ConditionRain
	case "11":
		return ConditionThunderstorm
	case "13":
		return ConditionSnow
	case "50":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}

// IsNightIcon reports whether an icon code carries the night suffix.
func IsNightIcon(icon string) bool {
	return strings.HasSuffix(icon, "n")
}

// Coord is a geographic point in floating-point degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CurrentWeather is the point-in-time conditions for one location.
// Temperature fields are rounded to whole degrees Celsius.
type CurrentWeather struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	Temp          int     `json:"temp"`
	FeelsLike     int     `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	Visibility    int     `json:"visibility"`
	UVIndex       float64 `json:"uv_index"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection int     `json:"wind_direction"`
	WeatherCode   string  `json:"weather_code"`
	Description   string  `json:"weather_description"`
	Icon          string  `json:"icon"`
	Sunrise       int64   `json:"sunrise"`
	Sunset        int64   `json:"sunset"`
	Timezone      int     `json:"timezone"` // UTC offset in seconds
	Coords        Coord   `json:"coords"`
}

// HourlyForecast is one 3-hour-resolution forecast sample.
// Pop is a percentage in [0,100].
type HourlyForecast struct {
	Time        int64   `json:"time"`
	Temp        int     `json:"temp"`
	FeelsLike   int     `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	WeatherCode string  `json:"weather_code"`
	Description string  `json:"weather_description"`
	Icon        string  `json:"icon"`
	Pop         float64 `json:"pop"`
}

// DailyForecast is one calendar-day aggregate reduced from that day's raw
// 3-hour samples.
type DailyForecast struct {
	Date        int64   `json:"date"` // epoch seconds at UTC day start
	TempMin     int     `json:"temp_min"`
	TempMax     int     `json:"temp_max"`
	TempDay     int     `json:"temp_day"`
	TempNight   int     `json:"temp_night"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	WeatherCode string  `json:"weather_code"`
	Description string  `json:"weather_description"`
	Icon        string  `json:"icon"`
	Pop         float64 `json:"pop"` // percentage, max across the day
	UVIndex     float64 `json:"uv_index"`
}

// WeatherData is the aggregate root returned by a weather query. Immutable
// once returned; callers never mutate it in place.
type WeatherData struct {
	Current CurrentWeather   `json:"current"`
	Hourly  []HourlyForecast `json:"hourly"`
	Daily   []DailyForecast  `json:"daily"`
}

// CityCandidate is a single geocoding search result.
type CityCandidate struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (c CityCandidate) String() string {
	return fmt.Sprintf("%s, %s (%.4f, %.4f)", c.Name, c.Country, c.Lat, c.Lon)
}

// RawSample is one provider forecast list entry before normalization.
// Pop is still the provider's [0,1] fraction; TZOffset is the location's
// UTC offset in seconds as reported by the forecast payload.
type RawSample struct {
	Timestamp   int64
	Temp        float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	WeatherCode string
	Description string
	Icon        string
	Pop         float64
	TZOffset    int
}
