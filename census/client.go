// Package census fetches poverty statistics from the US Census Bureau
// ACS 5-year data profile API. The variable of interest is DP03_0119PE,
// the percentage of families below the poverty level.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.census.gov/data/2022/acs/acs5/profile"
	povertyVar     = "DP03_0119PE"

	// MissingDataSentinel marks a zip whose poverty rate could not be
	// fetched, typically because no API key is configured. Downstream
	// agents surface it as "data unavailable" rather than a number.
	MissingDataSentinel = -1.0
)

// Config configures the Census API client.
type Config struct {
	// APIKey is the Census API key. When empty, queries are not sent
	// and every requested zip gets the MissingDataSentinel value.
	APIKey string
	// BaseURL overrides the ACS profile endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each API request. Defaults to 15s.
	Timeout time.Duration
}

// Client queries poverty rates by zip code tabulation area.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a Census API client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// PovertyRates returns the DP03_0119PE value for each requested zip.
// Zips missing from the API response are omitted from the result. When
// no API key is configured every zip maps to MissingDataSentinel; on an
// API or parse failure the map is empty. Neither case is an error: the
// calling agent reports what it has and moves on.
func (c *Client) PovertyRates(ctx context.Context, zips []string) (map[string]float64, error) {
	if len(zips) == 0 {
		return map[string]float64{}, nil
	}

	if c.cfg.APIKey == "" {
		c.logger.Warn("census api key not configured, returning sentinel values",
			zap.Int("zips", len(zips)))
		rates := make(map[string]float64, len(zips))
		for _, z := range zips {
			rates[z] = MissingDataSentinel
		}
		return rates, nil
	}

	query := url.Values{}
	query.Set("get", povertyVar)
	query.Set("for", "zip code tabulation area:"+strings.Join(zips, ","))
	query.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return map[string]float64{}, fmt.Errorf("build census request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("census api request failed", zap.Error(err))
		return map[string]float64{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("census api returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return map[string]float64{}, nil
	}

	rates, err := parsePovertyResponse(resp.Body)
	if err != nil {
		c.logger.Warn("census api response unparseable", zap.Error(err))
		return map[string]float64{}, nil
	}
	return rates, nil
}

// parsePovertyResponse decodes the Census API's array-of-arrays payload:
// a header row, then [value, zcta] rows.
func parsePovertyResponse(r io.Reader) (map[string]float64, error) {
	var rows [][]string
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode census response: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("census response has no header row")
	}

	header := rows[0]
	valueIdx, zipIdx := -1, -1
	for i, col := range header {
		switch col {
		case povertyVar:
			valueIdx = i
		case "zip code tabulation area":
			zipIdx = i
		}
	}
	if valueIdx < 0 || zipIdx < 0 {
		return nil, fmt.Errorf("census response missing expected columns: %v", header)
	}

	rates := make(map[string]float64, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= valueIdx || len(row) <= zipIdx {
			continue
		}
		rate, err := strconv.ParseFloat(row[valueIdx], 64)
		if err != nil {
			continue
		}
		rates[row[zipIdx]] = rate
	}
	return rates, nil
}
