package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callNearest(t *testing.T, cfg NearestToolConfig, args string) NearestZipcodesOutput {
	t.Helper()
	fn, _ := NewNearestZipcodesTool(cfg, nil)
	raw, err := fn(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	var out NearestZipcodesOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNearestZipcodesTool_WithZip(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{"zip_code":"90210"}`)

	assert.Equal(t, "Beverly Hills, CA", out.LocationName)
	require.Len(t, out.Zipcodes, 5)
	assert.Equal(t, "90210", out.Zipcodes[0])
}

func TestNearestZipcodesTool_UnknownZipSentinel(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{"zip_code":"00000"}`)
	assert.Empty(t, out.Zipcodes)
}

func TestNearestZipcodesTool_WithLocation(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{"location":"Beverly Hills, CA"}`)

	assert.Equal(t, "Beverly Hills, CA", out.LocationName)
	require.Len(t, out.Zipcodes, 5)
	assert.Equal(t, "90210", out.Zipcodes[0])
}

func TestNearestZipcodesTool_ZipBeatsLocation(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{"zip_code":"33101","location":"Beverly Hills"}`)

	assert.Equal(t, "Miami, FL", out.LocationName)
	assert.Equal(t, "33101", out.Zipcodes[0])
}

func TestNearestZipcodesTool_UnknownLocationSentinel(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{"location":"Atlantis"}`)
	assert.Empty(t, out.Zipcodes)
	assert.Empty(t, out.LocationName)
}

func TestNearestZipcodesTool_IPFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"city":"Beverly Hills","region":"California","postal":"90210","loc":"34.0901,-118.4065"}`))
	}))
	defer srv.Close()

	cfg := NearestToolConfig{
		Index:   loadTestIndex(t),
		Locator: NewIPLocator(nil, WithIPInfoURL(srv.URL)),
	}
	out := callNearest(t, cfg, `{}`)

	assert.Equal(t, "Beverly Hills, California", out.LocationName)
	require.Len(t, out.Zipcodes, 5)
	assert.Equal(t, "90210", out.Zipcodes[0])
}

func TestNearestZipcodesTool_IPFailureSentinel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := NearestToolConfig{
		Index:   loadTestIndex(t),
		Locator: NewIPLocator(nil, WithIPInfoURL(srv.URL)),
	}
	out := callNearest(t, cfg, `{}`)
	assert.Empty(t, out.Zipcodes)
	assert.Empty(t, out.LocationName)
}

func TestNearestZipcodesTool_NoLocatorSentinel(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t)}
	out := callNearest(t, cfg, `{}`)
	assert.Empty(t, out.Zipcodes)
}

func TestNearestZipcodesTool_Count(t *testing.T) {
	t.Parallel()

	cfg := NearestToolConfig{Index: loadTestIndex(t), Count: 2}
	out := callNearest(t, cfg, `{"zip_code":"90210"}`)
	assert.Len(t, out.Zipcodes, 2)
}
