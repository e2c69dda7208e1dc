package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"skycast/internal/weather"
)

type stubClient struct {
	calls    int32
	geocode  func(query string, limit int) ([]weather.CityCandidate, error)
	forecast func() ([]weather.RawSample, error)
}

func (s *stubClient) Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	atomic.AddInt32(&s.calls, 1)
	return weather.CurrentWeather{Name: "Hà Nội", Country: "VN", Temp: 28}, nil
}

func (s *stubClient) Forecast(ctx context.Context, lat, lon float64) ([]weather.RawSample, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.forecast != nil {
		return s.forecast()
	}
	return []weather.RawSample{{
		Timestamp:   time.Now().Unix(),
		Temp:        28,
		WeatherCode: "Clear",
		Description: "trời quang",
		Icon:        "01d",
	}}, nil
}

func (s *stubClient) Geocode(ctx context.Context, query string, limit int) ([]weather.CityCandidate, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.geocode != nil {
		return s.geocode(query, limit)
	}
	return []weather.CityCandidate{{Name: "Hà Nội", Country: "VN", Lat: 21.0285, Lon: 105.8542}}, nil
}

func TestWeatherByCity_DisabledWithoutArgument(t *testing.T) {
	client := &stubClient{}
	w := NewWeather(weather.NewService(client), fastOptions())

	for _, city := range []string{"", "   "} {
		res, err := w.ByCity(context.Background(), city)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Loading || res.Err != nil || res.Data != nil {
			t.Fatalf("expected idle result for %q, got %+v", city, res)
		}
	}
	if n := atomic.LoadInt32(&client.calls); n != 0 {
		t.Fatalf("disabled query must not fetch, got %d client calls", n)
	}
}

func TestWeatherByCoords_DisabledWithoutBoth(t *testing.T) {
	client := &stubClient{}
	w := NewWeather(weather.NewService(client), fastOptions())

	lat := 21.0285
	for _, pair := range [][2]*float64{{nil, nil}, {&lat, nil}, {nil, &lat}} {
		res, err := w.ByCoords(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Loading || res.Err != nil || res.Data != nil {
			t.Fatalf("expected idle result, got %+v", res)
		}
	}
	if n := atomic.LoadInt32(&client.calls); n != 0 {
		t.Fatalf("disabled query must not fetch, got %d client calls", n)
	}
}

func TestWeatherByCity_ResolvedPayload(t *testing.T) {
	w := NewWeather(weather.NewService(&stubClient{}), fastOptions())

	res, err := w.ByCity(context.Background(), "Hà Nội")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err != nil || res.Data == nil {
		t.Fatalf("expected resolved data, got %+v", res)
	}
	if res.Data.Current.Name != "Hà Nội" {
		t.Fatalf("unexpected payload: %+v", res.Data.Current)
	}
}

func TestWeatherByCity_CaseInsensitiveKey(t *testing.T) {
	client := &stubClient{}
	w := NewWeather(weather.NewService(client), fastOptions())

	if _, err := w.ByCity(context.Background(), "Hanoi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := atomic.LoadInt32(&client.calls)
	if _, err := w.ByCity(context.Background(), "hanoi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := atomic.LoadInt32(&client.calls); after != before {
		t.Fatalf("expected cache hit for case-variant city, got %d extra calls", after-before)
	}
}

func TestCitySearch_MinQueryLength(t *testing.T) {
	client := &stubClient{}
	cs := NewCitySearch(weather.NewService(client), fastOptions())

	res, err := cs.Search(context.Background(), "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Loading || res.Data != nil {
		t.Fatalf("short query must stay disabled, got %+v", res)
	}
	if n := atomic.LoadInt32(&client.calls); n != 0 {
		t.Fatalf("disabled search must not fetch, got %d calls", n)
	}
}

func TestCitySearch_DegradedBackendYieldsEmpty(t *testing.T) {
	client := &stubClient{
		geocode: func(query string, limit int) ([]weather.CityCandidate, error) {
			return nil, weather.ErrNetwork
		},
	}
	cs := NewCitySearch(weather.NewService(client), fastOptions())

	res, err := cs.Search(context.Background(), "Hanoi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Err != nil {
		t.Fatalf("search must never surface an error, got %v", res.Err)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected empty candidates, got %d", len(res.Data))
	}
}
