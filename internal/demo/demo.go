// Package demo provides a deterministic-shape fallback dataset: the values
// vary within fixed ranges but the structure is constant, so presentation
// code can rely on exactly 24 hourly and 7 daily entries being present.
package demo

import (
	"math"
	"math/rand"
	"time"

	"skycast/internal/common"
	"skycast/internal/weather"
)

// Dataset builds the fallback WeatherData for the default city.
func Dataset() weather.WeatherData {
	now := time.Now().Unix()

	current := weather.CurrentWeather{
		ID:            1581130,
		Name:          "Hà Nội",
		Country:       "VN",
		Temp:          28,
		FeelsLike:     32,
		Humidity:      78,
		Pressure:      1013,
		Visibility:    10000,
		UVIndex:       6,
		WindSpeed:     3.2,
		WindDirection: 180,
		WeatherCode:   "Clouds",
		Description:   "có mây",
		Icon:          "02d",
		Sunrise:       now - 3600,
		Sunset:        now + 7200,
		Timezone:      25200,
		Coords:        weather.Coord{Lat: 21.0285, Lon: 105.8542},
	}

	hourly := make([]weather.HourlyForecast, 0, 24)
	for i := 0; i < 24; i++ {
		code, desc, icon := hourlyCondition(i)
		hourly = append(hourly, weather.HourlyForecast{
			Time:        now + int64(i)*3600,
			Temp:        int(math.Round(28 + math.Sin(float64(i)*0.3)*5 + rand.Float64()*3)),
			FeelsLike:   int(math.Round(30 + math.Sin(float64(i)*0.3)*5 + rand.Float64()*3)),
			Humidity:    70 + rand.Intn(20),
			WindSpeed:   2 + rand.Float64()*4,
			WeatherCode: code,
			Description: desc,
			Icon:        icon,
			Pop:         rand.Float64() * 100,
		})
	}

	daily := make([]weather.DailyForecast, 0, 7)
	for i := 0; i < 7; i++ {
		code, desc, icon := dailyCondition(i)
		daily = append(daily, weather.DailyForecast{
			Date:        now + int64(i)*86400,
			TempMin:     22 + rand.Intn(3),
			TempMax:     32 + rand.Intn(5),
			TempDay:     28 + rand.Intn(4),
			TempNight:   24 + rand.Intn(3),
			Humidity:    65 + rand.Intn(25),
			WindSpeed:   2 + rand.Float64()*3,
			WeatherCode: code,
			Description: desc,
			Icon:        icon,
			Pop:         rand.Float64() * 100,
			UVIndex:     3 + rand.Float64()*7,
		})
	}

	return weather.WeatherData{Current: current, Hourly: hourly, Daily: daily}
}

// Cities returns the fixed demo city list.
func Cities() []weather.CityCandidate {
	return []weather.CityCandidate{
		{Name: "Hà Nội", Country: "VN", Lat: 21.0285, Lon: 105.8542},
		{Name: "Hồ Chí Minh", Country: "VN", Lat: 10.8231, Lon: 106.6297},
		{Name: "Đà Nẵng", Country: "VN", Lat: 16.0471, Lon: 108.2068},
		{Name: "Hải Phòng", Country: "VN", Lat: 20.8449, Lon: 106.6881},
		{Name: "Cần Thơ", Country: "VN", Lat: 10.0452, Lon: 105.7469},
	}
}

// SearchCities filters the demo city list by case-insensitive substring.
func SearchCities(query string) []weather.CityCandidate {
	var matches []weather.CityCandidate
	for _, c := range Cities() {
		if common.ContainsFold(c.Name, query) {
			matches = append(matches, c)
		}
	}
	return matches
}

func hourlyCondition(i int) (code, desc, icon string) {
	switch {
	case i%4 == 0:
		return "Rain", "mưa nhẹ", "10d"
	case i%3 == 0:
		return "Clouds", "có mây", "02d"
	default:
		return "Clear", "trời quang", "01d"
	}
}

func dailyCondition(i int) (code, desc, icon string) {
	switch {
	case i%3 == 0:
		return "Rain", "mưa vừa", "10d"
	case i%2 == 0:
		return "Clouds", "có mây", "02d"
	default:
		return "Clear", "nắng đẹp", "01d"
	}
}
