// Package epa reads recent air quality index values from the EPA
// historical air quality public dataset in BigQuery. Each zip code is
// resolved to coordinates, matched to its nearest monitoring site, and
// the site's most recent daily AQI summary is returned.
package epa

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/geo"
	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/bq"
)

// aqiQuery finds the monitoring site nearest a point and returns that
// site's latest daily AQI summary. Dates come back as strings to keep
// row decoding free of the civil-date type.
const aqiQuery = `
WITH nearest_site AS (
  SELECT state_code, county_code, site_num
  FROM ` + "`bigquery-public-data.epa_historical_air_quality.air_quality_annual_summary`" + `
  WHERE latitude IS NOT NULL AND longitude IS NOT NULL
  ORDER BY ST_DISTANCE(
    ST_GEOGPOINT(longitude, latitude),
    ST_GEOGPOINT(@lon, @lat)
  )
  LIMIT 1
)
SELECT
  daily.aqi AS aqi,
  CAST(daily.date_local AS STRING) AS report_date,
  daily.parameter_name AS defining_parameter
FROM ` + "`bigquery-public-data.epa_historical_air_quality.air_quality_daily_summary`" + ` AS daily
JOIN nearest_site
  ON daily.state_code = nearest_site.state_code
  AND daily.county_code = nearest_site.county_code
  AND daily.site_num = nearest_site.site_num
WHERE daily.aqi IS NOT NULL
ORDER BY daily.date_local DESC
LIMIT 1`

// Reading is one zip code's most recent AQI observation.
type Reading struct {
	AQI               int64  `bigquery:"aqi" json:"aqi" jsonschema_description:"The air quality index value."`
	ReportingDate     string `bigquery:"report_date" json:"reporting_date" jsonschema_description:"The date of the AQI observation, YYYY-MM-DD."`
	DefiningParameter string `bigquery:"defining_parameter" json:"defining_parameter" jsonschema_description:"The pollutant that determined the AQI, e.g. 'Ozone' or 'PM2.5'."`
}

// Client fetches AQI readings for zip codes.
type Client struct {
	runner bq.QueryRunner
	index  *geo.Index
	logger *zap.Logger
	// perQueryTimeout bounds each per-zip query.
	perQueryTimeout time.Duration
}

// NewClient creates an EPA air quality client. runner may be nil when
// no BigQuery credentials are configured; lookups then return no data.
func NewClient(runner bq.QueryRunner, index *geo.Index, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		runner:          runner,
		index:           index,
		logger:          logger,
		perQueryTimeout: 30 * time.Second,
	}
}

// Readings fetches the latest AQI reading for each zip, querying zips
// concurrently. Zips that cannot be resolved or queried are omitted;
// with no runner configured the result is empty. Neither is an error.
func (c *Client) Readings(ctx context.Context, zips []string) (map[string]Reading, error) {
	if c.runner == nil {
		c.logger.Warn("bigquery not configured, skipping air quality lookup",
			zap.Int("zips", len(zips)))
		return map[string]Reading{}, nil
	}

	var mu sync.Mutex
	readings := make(map[string]Reading)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, zip := range zips {
		zip := zip
		g.Go(func() error {
			reading, ok := c.readOne(gctx, zip)
			if !ok {
				return nil
			}
			mu.Lock()
			readings[zip] = reading
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return map[string]Reading{}, err
	}
	return readings, nil
}

func (c *Client) readOne(ctx context.Context, zip string) (Reading, bool) {
	place, ok := c.index.Lookup(zip)
	if !ok {
		c.logger.Warn("zip not in postal index", zap.String("zip", zip))
		return Reading{}, false
	}

	qctx, cancel := context.WithTimeout(ctx, c.perQueryTimeout)
	defer cancel()

	it, err := c.runner.RunQuery(qctx, aqiQuery, []bigquery.QueryParameter{
		{Name: "lat", Value: place.Latitude},
		{Name: "lon", Value: place.Longitude},
	})
	if err != nil {
		c.logger.Warn("air quality query failed", zap.String("zip", zip), zap.Error(err))
		return Reading{}, false
	}

	var reading Reading
	switch err := it.Next(&reading); err {
	case nil:
		return reading, true
	case iterator.Done:
		c.logger.Debug("no air quality data for zip", zap.String("zip", zip))
		return Reading{}, false
	default:
		c.logger.Warn("air quality row decode failed", zap.String("zip", zip), zap.Error(err))
		return Reading{}, false
	}
}
