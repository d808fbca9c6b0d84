package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultIPInfoURL = "https://ipinfo.io/json"

// IPLocation is the caller's approximate location as reported by the
// IP geolocation service.
type IPLocation struct {
	City      string
	Region    string
	Postal    string
	Latitude  float64
	Longitude float64
}

// Label returns a "City, Region" string for prompts and logs.
func (l IPLocation) Label() string {
	switch {
	case l.City != "" && l.Region != "":
		return l.City + ", " + l.Region
	case l.City != "":
		return l.City
	default:
		return l.Region
	}
}

// IPLocator resolves the caller's approximate location from their
// public IP. Lookups are best-effort: any failure returns an error the
// caller is expected to treat as "location unavailable".
type IPLocator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// IPLocatorOption configures an IPLocator.
type IPLocatorOption func(*IPLocator)

// WithIPInfoURL overrides the lookup endpoint, mainly for tests.
func WithIPInfoURL(url string) IPLocatorOption {
	return func(l *IPLocator) { l.baseURL = url }
}

// WithIPHTTPClient overrides the HTTP client.
func WithIPHTTPClient(client *http.Client) IPLocatorOption {
	return func(l *IPLocator) { l.client = client }
}

// NewIPLocator creates a locator against ipinfo.io with a 5s timeout.
func NewIPLocator(logger *zap.Logger, opts ...IPLocatorOption) *IPLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &IPLocator{
		baseURL: defaultIPInfoURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the approximate location of the current host.
func (l *IPLocator) Locate(ctx context.Context) (*IPLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build ip lookup request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip lookup: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		City   string `json:"city"`
		Region string `json:"region"`
		Postal string `json:"postal"`
		Loc    string `json:"loc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode ip lookup response: %w", err)
	}

	loc := &IPLocation{
		City:   payload.City,
		Region: payload.Region,
		Postal: payload.Postal,
	}
	// loc is "lat,lon"; a malformed value leaves coordinates at zero,
	// which the postal index still handles via the postal code.
	if parts := strings.SplitN(payload.Loc, ",", 2); len(parts) == 2 {
		if lat, err := strconv.ParseFloat(parts[0], 64); err == nil {
			loc.Latitude = lat
		}
		if lon, err := strconv.ParseFloat(parts[1], 64); err == nil {
			loc.Longitude = lon
		}
	}

	l.logger.Debug("resolved location from ip",
		zap.String("city", loc.City),
		zap.String("region", loc.Region),
		zap.String("postal", loc.Postal))
	return loc, nil
}
