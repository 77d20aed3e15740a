// Package weather fetches a current-conditions snapshot from Open-Meteo and
// keeps it refreshed in the background.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Snapshot is the current weather. Temperatures are Celsius; the view layer
// converts per the configured unit.
type Snapshot struct {
	ConditionText string // e.g. "Clear", "Rain"
	ConditionKind string // one of sunny/cloudy/rain/snow/fog/storm
	PrecipProbPct *int   // 0..100, nil when the API has no value
	TempC         *float64
	FeelsLikeC    *float64
	FetchedAt     time.Time
}

// NeverFetched reports whether no fetch has ever succeeded.
func (s Snapshot) NeverFetched() bool { return s.FetchedAt.IsZero() }

// CToF converts Celsius to Fahrenheit, passing nil through.
func CToF(c *float64) *float64 {
	if c == nil {
		return nil
	}
	f := (*c * 9.0 / 5.0) + 32.0
	return &f
}

// mapWeatherCode maps an Open-Meteo WMO weather code to display text and a
// coarse condition kind. https://open-meteo.com/en/docs
func mapWeatherCode(code *int) (string, string) {
	if code == nil {
		return "-", "cloudy"
	}
	switch c := *code; {
	case c == 0:
		return "Clear", "sunny"
	case c == 1 || c == 2:
		return "Partly cloudy", "cloudy"
	case c == 3:
		return "Overcast", "cloudy"
	case c == 45 || c == 48:
		return "Fog", "fog"
	case c == 51 || c == 53 || c == 55:
		return "Drizzle", "rain"
	case c == 56 || c == 57:
		return "Freezing drizzle", "snow"
	case c == 61 || c == 63 || c == 65:
		return "Rain", "rain"
	case c == 66 || c == 67:
		return "Freezing rain", "snow"
	case c == 71 || c == 73 || c == 75 || c == 77:
		return "Snow", "snow"
	case c >= 80 && c <= 82:
		return "Showers", "rain"
	case c == 95 || c == 96 || c == 99:
		return "Thunderstorm", "storm"
	default:
		return "Weather", "cloudy"
	}
}

// nearestHourIndex finds the hourly index matching the current-weather time.
// Exact match first, else the first hour at or after it, else the last entry.
// ISO timestamps compare correctly as strings.
func nearestHourIndex(times []string, target string) int {
	for i, t := range times {
		if t == target {
			return i
		}
	}
	for i, t := range times {
		if t >= target {
			return i
		}
	}
	if len(times) == 0 {
		return 0
	}
	return len(times) - 1
}

// Fetcher fetches a weather snapshot for a location.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (Snapshot, error)
}

// OpenMeteo fetches from the Open-Meteo forecast API. No API key needed.
type OpenMeteo struct {
	client  *http.Client
	baseURL string
}

// NewOpenMeteo creates a fetcher with the given request timeout.
func NewOpenMeteo(timeout time.Duration) *OpenMeteo {
	return &OpenMeteo{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://api.open-meteo.com/v1/forecast",
	}
}

// NewOpenMeteoAt creates a fetcher against an alternate endpoint (tests).
func NewOpenMeteoAt(baseURL string, timeout time.Duration) *OpenMeteo {
	f := NewOpenMeteo(timeout)
	f.baseURL = baseURL
	return f
}

type openMeteoResponse struct {
	CurrentWeather struct {
		WeatherCode *int     `json:"weathercode"`
		Temperature *float64 `json:"temperature"`
		Time        string   `json:"time"`
	} `json:"current_weather"`
	Hourly struct {
		Time                     []string   `json:"time"`
		PrecipitationProbability []*int     `json:"precipitation_probability"`
		ApparentTemperature      []*float64 `json:"apparent_temperature"`
	} `json:"hourly"`
}

// Fetch retrieves current condition, precipitation probability, temperature,
// and feels-like for the location.
func (f *OpenMeteo) Fetch(ctx context.Context, lat, lon float64) (Snapshot, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")
	q.Set("hourly", "precipitation_probability,apparent_temperature")
	q.Set("temperature_unit", "celsius")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("weather API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read weather response: %w", err)
	}

	var data openMeteoResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return Snapshot{}, fmt.Errorf("decode weather response: %w", err)
	}

	text, kind := mapWeatherCode(data.CurrentWeather.WeatherCode)
	snap := Snapshot{
		ConditionText: text,
		ConditionKind: kind,
		TempC:         data.CurrentWeather.Temperature,
		FetchedAt:     time.Now(),
	}

	if cur := data.CurrentWeather.Time; cur != "" && len(data.Hourly.Time) > 0 {
		idx := nearestHourIndex(data.Hourly.Time, cur)
		if idx < len(data.Hourly.PrecipitationProbability) {
			snap.PrecipProbPct = data.Hourly.PrecipitationProbability[idx]
		}
		if idx < len(data.Hourly.ApparentTemperature) {
			snap.FeelsLikeC = data.Hourly.ApparentTemperature[idx]
		}
	}

	return snap, nil
}
