package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const (
	openMeteoGeoBaseURL      = "https://geocoding-api.open-meteo.com"
	openMeteoForecastBaseURL = "https://api.open-meteo.com"
)

var weatherCityPattern = regexp.MustCompile(`(?i)weather\s+in\s+([a-zA-Z\s]+)`)

type openMeteo struct {
	client       *http.Client
	geoBase      string
	forecastBase string
}

// NewOpenMeteo creates the weather source. A fetch is two steps: geocode the
// city named in a "weather in <place>" phrase, then read the first hourly
// temperature sample of the forecast for the resolved coordinates.
func NewOpenMeteo(client *http.Client, geoBaseURL, forecastBaseURL string) Source {
	return &openMeteo{
		client:       client,
		geoBase:      strings.TrimRight(geoBaseURL, "/"),
		forecastBase: strings.TrimRight(forecastBaseURL, "/"),
	}
}

func (o *openMeteo) Key() Key      { return KeyOpenMeteo }
func (o *openMeteo) Title() string { return "Open-Meteo" }
func (o *openMeteo) Description() string {
	return "Weather forecast (no API key)."
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

func (o *openMeteo) Fetch(ctx context.Context, query string) (*Result, error) {
	empty := &Result{Key: KeyOpenMeteo, Title: o.Title(), Used: false, Items: []Item{}}

	m := weatherCityPattern.FindStringSubmatch(query)
	if m == nil {
		return empty, nil
	}
	city := strings.TrimSpace(m[1])
	if city == "" {
		return empty, nil
	}

	var geo geocodingResponse
	geoURL := fmt.Sprintf("%s/v1/search?name=%s&count=1", o.geoBase, url.QueryEscape(city))
	if err := o.getJSON(ctx, geoURL, &geo); err != nil {
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}
	if len(geo.Results) == 0 {
		return empty, nil
	}
	loc := geo.Results[0]

	var forecast forecastResponse
	forecastURL := fmt.Sprintf(
		"%s/v1/forecast?latitude=%v&longitude=%v&hourly=temperature_2m&forecast_days=1",
		o.forecastBase, loc.Latitude, loc.Longitude,
	)
	if err := o.getJSON(ctx, forecastURL, &forecast); err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}
	if len(forecast.Hourly.Temperature2m) == 0 {
		return empty, nil
	}
	sample := forecast.Hourly.Temperature2m[0]

	data, _ := json.Marshal(map[string]float64{
		"latitude":    loc.Latitude,
		"longitude":   loc.Longitude,
		"sampleTempC": sample,
	})
	return &Result{
		Key:   KeyOpenMeteo,
		Title: o.Title(),
		Used:  true,
		Items: []Item{{
			Title:   fmt.Sprintf("Weather for %s, %s", loc.Name, loc.Country),
			Snippet: fmt.Sprintf("First-hour temperature: %v°C", sample),
			Data:    data,
		}},
	}, nil
}

func (o *openMeteo) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
