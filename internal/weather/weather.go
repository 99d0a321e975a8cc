// Package weather answers /w via the OpenWeather geocoding and current
// conditions endpoints.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	geoDirectURL = "https://api.openweathermap.org/geo/1.0/direct"
	geoZipURL    = "https://api.openweathermap.org/geo/1.0/zip"
	currentURL   = "https://api.openweathermap.org/data/2.5/weather"
)

var usZipRe = regexp.MustCompile(`^\d{5}$`)

// Service resolves place queries to current conditions.
type Service struct {
	http   *http.Client
	apiKey string

	// Endpoint bases, swapped out by tests.
	geoDirect string
	geoZip    string
	current   string
}

// New creates the service. An empty key makes every lookup report that
// weather is not configured.
func New(apiKey string) *Service {
	return &Service{
		http:      &http.Client{Timeout: 15 * time.Second},
		apiKey:    apiKey,
		geoDirect: geoDirectURL,
		geoZip:    geoZipURL,
		current:   currentURL,
	}
}

type place struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Lookup returns chat-ready current conditions for the query. Errors come
// back as user-facing text.
func (s *Service) Lookup(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Usage: `/w <city or US zip>`"
	}
	if s.apiKey == "" {
		return "🌦️ Weather is not configured."
	}

	loc, err := s.geocode(ctx, query)
	if err != nil {
		return fmt.Sprintf("🤷 Couldn't find %q.", query)
	}

	cond, err := s.conditions(ctx, loc)
	if err != nil {
		return "⚠️ Weather lookup failed, try again later."
	}
	return cond
}

// geocode tries the direct endpoint first, then the zip endpoint for
// bare 5-digit US queries.
func (s *Service) geocode(ctx context.Context, query string) (place, error) {
	if usZipRe.MatchString(query) {
		q := url.Values{"zip": {query + ",US"}, "appid": {s.apiKey}}
		var p place
		if err := s.getJSON(ctx, s.geoZip+"?"+q.Encode(), &p); err == nil && p.Name != "" {
			return p, nil
		}
	}

	q := url.Values{"q": {query}, "limit": {"1"}, "appid": {s.apiKey}}
	var hits []place
	if err := s.getJSON(ctx, s.geoDirect+"?"+q.Encode(), &hits); err != nil {
		return place{}, err
	}
	if len(hits) == 0 {
		return place{}, fmt.Errorf("no match for %q", query)
	}
	return hits[0], nil
}

func (s *Service) conditions(ctx context.Context, loc place) (string, error) {
	q := url.Values{
		"lat":   {fmt.Sprintf("%.4f", loc.Lat)},
		"lon":   {fmt.Sprintf("%.4f", loc.Lon)},
		"units": {"imperial"},
		"appid": {s.apiKey},
	}
	var out struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := s.getJSON(ctx, s.current+"?"+q.Encode(), &out); err != nil {
		return "", err
	}

	desc := "unknown"
	if len(out.Weather) > 0 {
		desc = out.Weather[0].Description
	}
	where := loc.Name
	if loc.Country != "" {
		where += ", " + loc.Country
	}
	tempC := (out.Main.Temp - 32) * 5 / 9
	return fmt.Sprintf("🌦️ %s: %s, %.0f°F (%.0f°C), feels like %.0f°F, humidity %d%%, wind %.0f mph",
		where, desc, out.Main.Temp, tempC, out.Main.FeelsLike, out.Main.Humidity, out.Wind.Speed), nil
}

func (s *Service) getJSON(ctx context.Context, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweather %d", resp.StatusCode)
	}
	return json.Unmarshal(body, dst)
}
