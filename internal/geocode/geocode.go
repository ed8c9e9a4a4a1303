// Package geocode resolves free-text addresses to coordinates through a
// Nominatim-compatible HTTP provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/geo"
)

// ErrUnavailable indicates the provider is unconfigured, unreachable, or
// returned nothing usable. Callers are expected to degrade gracefully: day
// recommendation remains manually possible without a coordinate.
var ErrUnavailable = errors.New("geocode: provider unavailable")

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}

// Client is an HTTP Geocoder with response caching and provider-mandated
// request throttling (public Nominatim allows one request per second).
type Client struct {
	cfg     *config.GeocoderConfig
	client  *http.Client
	results *cache.Cache
	limiter *rate.Limiter
}

// NewClient creates a geocoder client from configuration.
func NewClient(cfg *config.GeocoderConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		results: cache.New(time.Duration(cfg.CacheTTLMinutes)*time.Minute, 30*time.Minute),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

// result models one entry of a Nominatim search response.
type result struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves address to a coordinate. Failures of any kind surface as
// ErrUnavailable with the cause attached; the call is bounded by the client
// timeout and the passed context.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	if c.cfg.URL == "" {
		return geo.Coordinate{}, fmt.Errorf("%w: no provider URL configured", ErrUnavailable)
	}

	if cached, found := c.results.Get(address); found {
		return cached.(geo.Coordinate), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	coord, err := c.fetch(ctx, address)
	if err != nil {
		log.Printf("Geocoding %q failed: %v", address, err)
		return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.results.SetDefault(address, coord)
	return coord, nil
}

func (c *Client) fetch(ctx context.Context, address string) (geo.Coordinate, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+q.Encode(), nil)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var results []result
	if err := json.Unmarshal(body, &results); err != nil {
		return geo.Coordinate{}, fmt.Errorf("failed to unmarshal provider response: %w", err)
	}
	if len(results) == 0 {
		return geo.Coordinate{}, errors.New("no match for address")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("bad latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("bad longitude %q: %w", results[0].Lon, err)
	}

	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}
