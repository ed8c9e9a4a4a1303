package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldservice-backend/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.GeocoderConfig{
		URL:             url,
		UserAgent:       "fieldservice-test/1.0",
		TimeoutSeconds:  2,
		CacheTTLMinutes: 5,
		RequestsPerSec:  100,
	})
}

func TestGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12 Oak Lane, Pittsburgh PA", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "fieldservice-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat": "40.4406", "lon": "-79.9959"}]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	coord, err := c.Geocode(context.Background(), "12 Oak Lane, Pittsburgh PA")
	require.NoError(t, err)
	assert.InDelta(t, 40.4406, coord.Lat, 1e-9)
	assert.InDelta(t, -79.9959, coord.Lon, 1e-9)
}

func TestGeocodeCachesResults(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`[{"lat": "40.0", "lon": "-75.0"}]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Geocode(context.Background(), "same address")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeocodeUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "no match",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"not": "an array"}`))
			},
		},
		{
			name: "unparseable coordinate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"lat": "north-ish", "lon": "-75.0"}]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := newTestClient(server.URL)
			_, err := c.Geocode(context.Background(), "1 Nowhere Rd")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGeocodeNoProviderConfigured(t *testing.T) {
	c := newTestClient("")
	_, err := c.Geocode(context.Background(), "1 Main St")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGeocodeCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat": "40.0", "lon": "-75.0"}]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(server.URL)
	_, err := c.Geocode(ctx, "1 Main St")
	assert.ErrorIs(t, err, ErrUnavailable)
}
