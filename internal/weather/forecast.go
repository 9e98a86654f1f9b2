// Package weather implements the forecast client: it resolves a city to
// coordinates and fetches independent probabilistic forecasts from NOAA
// and Open-Meteo, converting raw temperatures into outcome probabilities
// via the probability kernel.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/nagavaishak/celsius-go/internal/kernel"
)

const defaultTimeout = 30 * time.Second

// ForecastError wraps network failures, malformed responses, and unknown
// cities surfaced by the forecast client.
type ForecastError struct {
	City string
	Op   string
	Err  error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("weather: %s forecast for %q: %v", e.Op, e.City, e.Err)
}

func (e *ForecastError) Unwrap() error { return e.Err }

// ProbabilisticForecast is an outcome probability derived from a single
// forecast source, along with the normal-distribution parameters used to
// derive it.
type ProbabilisticForecast struct {
	Probability float64
	Confidence  float64
	MeanTemp    float64
	StdDev      float64
	Model       string
}

// Client fetches forecasts from NOAA and Open-Meteo over HTTP.
type Client struct {
	httpClient *http.Client
	noaaBase   string
	meteoBase  string
}

// NewClient creates a forecast client with the given HTTP timeout. A zero
// timeout uses the default of 30s.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		noaaBase:   "https://api.weather.gov",
		meteoBase:  "https://api.open-meteo.com/v1",
	}
}

// FetchProbabilisticForecast performs the NOAA two-hop lookup: grid-point
// metadata, then the hourly forecast for that grid point. It takes the
// first forecast period, converts °F→°C as needed, and assumes a fixed
// 24h-horizon standard deviation of 2.5°C (confidence 0.95, model tag
// "NOAA-NBM").
func (c *Client) FetchProbabilisticForecast(ctx context.Context, cityName string, thresholdC float64) (ProbabilisticForecast, error) {
	city, ok := FindCity(cityName)
	if !ok {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "noaa", Err: fmt.Errorf("unknown city")}
	}

	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", c.noaaBase, city.Latitude, city.Longitude)
	var points noaaPointsResponse
	if err := c.getJSON(ctx, pointsURL, &points); err != nil {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "noaa", Err: err}
	}
	if points.Properties.ForecastHourly == "" {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "noaa", Err: fmt.Errorf("missing forecastHourly URL")}
	}

	var hourly noaaForecastResponse
	if err := c.getJSON(ctx, points.Properties.ForecastHourly, &hourly); err != nil {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "noaa", Err: err}
	}
	if len(hourly.Properties.Periods) == 0 {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "noaa", Err: fmt.Errorf("no forecast periods")}
	}

	period := hourly.Properties.Periods[0]
	meanTemp := period.Temperature
	if period.TemperatureUnit == "F" {
		meanTemp = FahrenheitToCelsius(meanTemp)
	}

	const stdDev = 2.5
	return ProbabilisticForecast{
		Probability: kernel.ProbAbove(meanTemp, thresholdC, stdDev),
		Confidence:  0.95,
		MeanTemp:    meanTemp,
		StdDev:      stdDev,
		Model:       "NOAA-NBM",
	}, nil
}

// FetchOpenMeteo fetches 72h of hourly temperatures, uses the first 24
// hours for the mean and sample variance, and floors std dev at 2.0°C
// (confidence 0.90, model tag "Open-Meteo").
func (c *Client) FetchOpenMeteo(ctx context.Context, cityName string, thresholdC float64) (ProbabilisticForecast, error) {
	city, ok := FindCity(cityName)
	if !ok {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "open-meteo", Err: fmt.Errorf("unknown city")}
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", city.Latitude))
	params.Set("longitude", fmt.Sprintf("%.4f", city.Longitude))
	params.Set("hourly", "temperature_2m")
	params.Set("temperature_unit", "celsius")
	params.Set("forecast_days", "3")

	endpoint := fmt.Sprintf("%s/forecast?%s", c.meteoBase, params.Encode())

	var data openMeteoHourlyResponse
	if err := c.getJSON(ctx, endpoint, &data); err != nil {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "open-meteo", Err: err}
	}
	if len(data.Hourly.Temperature2m) < 24 {
		return ProbabilisticForecast{}, &ForecastError{City: cityName, Op: "open-meteo", Err: fmt.Errorf("fewer than 24 hourly temperatures returned")}
	}

	window := data.Hourly.Temperature2m[:24]
	mean := 0.0
	for _, t := range window {
		mean += t
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, t := range window {
		d := t - mean
		variance += d * d
	}
	variance /= float64(len(window) - 1)

	stdDev := math.Sqrt(variance)
	if stdDev < 2.0 {
		stdDev = 2.0
	}

	return ProbabilisticForecast{
		Probability: kernel.ProbAbove(mean, thresholdC, stdDev),
		Confidence:  0.90,
		MeanTemp:    mean,
		StdDev:      stdDev,
		Model:       "Open-Meteo",
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CelsiusToFahrenheit converts Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 { return c*9/5 + 32 }

// FahrenheitToCelsius converts Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 { return (f - 32) * 5 / 9 }

type noaaPointsResponse struct {
	Properties struct {
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

type noaaForecastResponse struct {
	Properties struct {
		Periods []struct {
			Temperature     float64 `json:"temperature"`
			TemperatureUnit string  `json:"temperatureUnit"`
		} `json:"periods"`
	} `json:"properties"`
}

type openMeteoHourlyResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}
