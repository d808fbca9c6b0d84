package census

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPovertyRates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DP03_0119PE", r.URL.Query().Get("get"))
		assert.Equal(t, "zip code tabulation area:90210,33101", r.URL.Query().Get("for"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`[["DP03_0119PE","zip code tabulation area"],["7.2","90210"],["21.5","33101"]]`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	rates, err := client.PovertyRates(context.Background(), []string{"90210", "33101"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"90210": 7.2, "33101": 21.5}, rates)
}

func TestPovertyRates_NoAPIKeySentinel(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, nil)
	rates, err := client.PovertyRates(context.Background(), []string{"90210", "33101"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"90210": MissingDataSentinel,
		"33101": MissingDataSentinel,
	}, rates)
}

func TestPovertyRates_APIErrorReturnsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	rates, err := client.PovertyRates(context.Background(), []string{"90210"})
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestPovertyRates_UnparseableReturnsEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	rates, err := client.PovertyRates(context.Background(), []string{"90210"})
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestPovertyRates_NoZips(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{APIKey: "k"}, nil)
	rates, err := client.PovertyRates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestParsePovertyResponse_SkipsBadRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[["DP03_0119PE","zip code tabulation area"],["not-a-number","90210"],["12.0","33101"],["5.0"]]`))
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	rates, err := client.PovertyRates(context.Background(), []string{"90210", "33101"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"33101": 12.0}, rates)
}

type stubFetcher struct {
	rates map[string]float64
	zips  []string
}

func (s *stubFetcher) PovertyRates(_ context.Context, zips []string) (map[string]float64, error) {
	s.zips = zips
	return s.rates, nil
}

func TestPovertyLevelsTool(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{rates: map[string]float64{"90210": 7.2}}
	fn, meta := NewPovertyLevelsTool(fetcher, nil)
	assert.Equal(t, "get_poverty_levels", meta.Schema.Name)

	raw, err := fn(context.Background(), json.RawMessage(`{"zipcodes":["90210"]}`))
	require.NoError(t, err)

	var out PovertyLevelsOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, map[string]float64{"90210": 7.2}, out.PovertyLevels)
	assert.Equal(t, []string{"90210"}, fetcher.zips)

	_, err = fn(context.Background(), json.RawMessage(`{"zipcodes":[]}`))
	assert.ErrorContains(t, err, "zipcodes is required")
}
