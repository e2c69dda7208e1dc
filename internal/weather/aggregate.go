package weather

import (
	"math"
	"sort"
	"time"
)

const (
	dayHourStart = 6
	dayHourEnd   = 18
)

// BuildDaily groups raw forecast samples by the UTC calendar date of their
// timestamp and reduces each group to one DailyForecast. At most maxDays
// days are returned, in chronological order.
//
// Note the grouping key is the UTC date while the day/night split inside a
// group uses the location-local hour; samples near local midnight can land
// in the neighbouring UTC day. Preserved on purpose, see aggregator tests.
func BuildDaily(samples []RawSample, maxDays int) []DailyForecast {
	if len(samples) == 0 || maxDays <= 0 {
		return nil
	}

	groups := make(map[string][]RawSample)
	for _, s := range samples {
		key := time.Unix(s.Timestamp, 0).UTC().Format("2006-01-02")
		groups[key] = append(groups[key], s)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	daily := make([]DailyForecast, 0, maxDays)
	for _, k := range keys {
		if len(daily) >= maxDays {
			break
		}
		dayStart, err := time.Parse("2006-01-02", k)
		if err != nil {
			continue
		}
		daily = append(daily, aggregateDay(dayStart.Unix(), groups[k]))
	}
	return daily
}

// aggregateDay reduces one calendar-day group of samples, in provider order,
// to a single DailyForecast. The group is never empty by construction.
func aggregateDay(dayStart int64, samples []RawSample) DailyForecast {
	minTemp := samples[0].Temp
	maxTemp := samples[0].Temp
	maxPop := samples[0].Pop

	var daySum, nightSum float64
	var dayCount, nightCount int

	for _, s := range samples {
		if s.Temp < minTemp {
			minTemp = s.Temp
		}
		if s.Temp > maxTemp {
			maxTemp = s.Temp
		}
		if s.Pop > maxPop {
			maxPop = s.Pop
		}
		if isDaytime(s) {
			daySum += s.Temp
			dayCount++
		} else {
			nightSum += s.Temp
			nightCount++
		}
	}

	rep := samples[len(samples)/2]

	tempDay := roundInt(rep.Temp)
	if dayCount > 0 {
		tempDay = roundInt(daySum / float64(dayCount))
	}
	tempNight := roundInt(rep.Temp)
	if nightCount > 0 {
		tempNight = roundInt(nightSum / float64(nightCount))
	}

	return DailyForecast{
		Date:        dayStart,
		TempMin:     roundInt(minTemp),
		TempMax:     roundInt(maxTemp),
		TempDay:     tempDay,
		TempNight:   tempNight,
		Humidity:    rep.Humidity,
		WindSpeed:   rep.WindSpeed,
		WeatherCode: rep.WeatherCode,
		Description: rep.Description,
		Icon:        rep.Icon,
		Pop:         maxPop * 100,
		UVIndex:     0, // the 3-hour feed carries no UV data
	}
}

// isDaytime classifies a sample by its location-local hour, [6,18] inclusive.
func isDaytime(s RawSample) bool {
	h := time.Unix(s.Timestamp, 0).UTC().Add(time.Duration(s.TZOffset) * time.Second).Hour()
	return h >= dayHourStart && h <= dayHourEnd
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
