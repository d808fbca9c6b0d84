package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLocator_Locate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"city":"Beverly Hills","region":"California","postal":"90210","loc":"34.0901,-118.4065"}`))
	}))
	defer srv.Close()

	locator := NewIPLocator(nil, WithIPInfoURL(srv.URL))
	loc, err := locator.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Beverly Hills, California", loc.Label())
	assert.Equal(t, "90210", loc.Postal)
	assert.InDelta(t, 34.0901, loc.Latitude, 0.0001)
	assert.InDelta(t, -118.4065, loc.Longitude, 0.0001)
}

func TestIPLocator_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	locator := NewIPLocator(nil, WithIPInfoURL(srv.URL))
	_, err := locator.Locate(context.Background())
	assert.ErrorContains(t, err, "unexpected status 429")
}

func TestIPLocator_MalformedLoc(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"city":"Miami","region":"Florida","postal":"33101","loc":"garbage"}`))
	}))
	defer srv.Close()

	locator := NewIPLocator(nil, WithIPInfoURL(srv.URL))
	loc, err := locator.Locate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, loc.Latitude)
	assert.Zero(t, loc.Longitude)
	assert.Equal(t, "33101", loc.Postal)
}

func TestIPLocation_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Miami, Florida", IPLocation{City: "Miami", Region: "Florida"}.Label())
	assert.Equal(t, "Miami", IPLocation{City: "Miami"}.Label())
	assert.Equal(t, "Florida", IPLocation{Region: "Florida"}.Label())
}
