package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"skycast/internal/config"
	"skycast/internal/demo"
	"skycast/internal/geoloc"
	"skycast/internal/query"
	"skycast/internal/weather"
	"skycast/internal/weather/openweather"
)

type app struct {
	cfg      *config.AppConfig
	weather  *query.Weather
	search   *query.CitySearch
	janitor  *query.Janitor
	resolver *geoloc.Resolver
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client := openweather.New(openweather.Config{
		APIKey:    cfg.OpenWeatherAPIKey,
		BaseURL:   cfg.WeatherBaseURL,
		GeoURL:    cfg.GeoBaseURL,
		Lang:      cfg.Lang,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.RateBurst,
	})
	svc := weather.NewService(client)

	weatherQ := query.NewWeather(svc, query.Options{
		TTL:         cfg.WeatherTTL,
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	})
	searchQ := query.NewCitySearch(svc, query.Options{
		TTL:         cfg.SearchTTL,
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	})

	janitor := query.NewJanitor(cfg.JanitorInterval, weatherQ.Store(), searchQ.Store())

	resolver := geoloc.NewResolver(geoloc.EnvSource{}, geoloc.Options{
		HighAccuracy: true,
		Timeout:      cfg.GeoTimeout,
		MaximumAge:   cfg.GeoMaxAge,
	})

	return &app{
		cfg:      cfg,
		weather:  weatherQ,
		search:   searchQ,
		janitor:  janitor,
		resolver: resolver,
	}, nil
}

func main() {
	a, err := newApp()
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	if err := a.janitor.Start(); err != nil {
		log.Fatalf("failed to start cache janitor: %v", err)
	}
	defer a.janitor.Stop()

	var output string

	rootCmd := &cobra.Command{
		Use:   "skycast",
		Short: "Weather lookup for a city or coordinates",
	}
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text, json)")

	var lat, lon float64
	getCmd := &cobra.Command{
		Use:   "get [city]",
		Short: "Fetch current, hourly and daily weather",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			var res query.WeatherResult
			var err error
			switch {
			case len(args) == 1:
				res, err = a.weather.ByCity(ctx, args[0])
			case cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon"):
				res, err = a.weather.ByCoords(ctx, &lat, &lon)
			default:
				return fmt.Errorf("provide a city name or both --lat and --lon")
			}
			if err != nil {
				return err
			}
			renderWeather(res, output)
			return nil
		},
	}
	getCmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	getCmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cities by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			res, err := a.search.Search(ctx, args[0])
			if err != nil {
				return err
			}
			candidates := res.Data
			if len(candidates) == 0 {
				candidates = demo.SearchCities(args[0])
			}
			renderCities(candidates, output)
			return nil
		},
	}

	locateCmd := &cobra.Command{
		Use:   "locate",
		Short: "Fetch weather for the device position",
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := a.resolver.CurrentPosition(cmd.Context())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			res, err := a.weather.ByCoords(ctx, &pos.Latitude, &pos.Longitude)
			if err != nil {
				return err
			}
			renderWeather(res, output)
			return nil
		},
	}

	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Print the demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			printWeather(demo.Dataset(), output)
			renderCities(demo.Cities(), output)
			return nil
		},
	}

	rootCmd.AddCommand(getCmd, searchCmd, locateCmd, demoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// renderWeather prints a completed query result. A failed query shows the
// error banner followed by the demo dataset; demo data never masks an
// in-flight or disabled query.
func renderWeather(res query.WeatherResult, output string) {
	if res.Err != nil || res.Data == nil {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "weather lookup failed: %v\n", res.Err)
		}
		fmt.Println("showing demo data:")
		printWeather(demo.Dataset(), output)
		return
	}
	printWeather(*res.Data, output)
}

func printWeather(data weather.WeatherData, output string) {
	if output == "json" {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode weather data: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}

	cur := data.Current
	fmt.Printf("%s, %s  %d°C (feels like %d°C)  %s\n", cur.Name, cur.Country, cur.Temp, cur.FeelsLike, cur.Description)
	fmt.Printf("humidity %d%%  pressure %dhPa  wind %.1fm/s  condition %s\n",
		cur.Humidity, cur.Pressure, cur.WindSpeed, weather.ConditionFromIcon(cur.Icon))

	fmt.Println("\nhourly:")
	for _, h := range data.Hourly {
		t := time.Unix(h.Time, 0).UTC().Add(time.Duration(cur.Timezone) * time.Second)
		fmt.Printf("  %s  %3d°C  pop %3.0f%%  %s\n", t.Format("02/01 15:04"), h.Temp, h.Pop, h.Description)
	}

	fmt.Println("\ndaily:")
	for _, d := range data.Daily {
		t := time.Unix(d.Date, 0).UTC()
		fmt.Printf("  %s  %d°C..%d°C (day %d°C, night %d°C)  pop %3.0f%%  %s\n",
			t.Format("Mon 02/01"), d.TempMin, d.TempMax, d.TempDay, d.TempNight, d.Pop, d.Description)
	}
}

func renderCities(candidates []weather.CityCandidate, output string) {
	if output == "json" {
		out, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode candidates: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}
	for _, c := range candidates {
		fmt.Printf("  %s\n", c)
	}
}
