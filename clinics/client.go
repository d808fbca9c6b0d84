// Package clinics reads mobile health clinic deployment history from a
// BigQuery dataset maintained by the health department.
package clinics

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/internal/bq"
)

const deploymentsQueryTmpl = `
SELECT
  clinic_name,
  zip_code,
  CAST(deployment_date AS STRING) AS deployment_date,
  services_offered
FROM ` + "`%s.%s.%s`" + `
WHERE zip_code IN UNNEST(@zipcodes)
ORDER BY deployment_date DESC
LIMIT 10`

// Deployment is one past mobile clinic deployment.
type Deployment struct {
	ClinicName      string `bigquery:"clinic_name" json:"clinic_name" jsonschema_description:"The name of the mobile clinic unit."`
	ZipCode         string `bigquery:"zip_code" json:"zip_code" jsonschema_description:"The zip code the clinic was deployed to."`
	DeploymentDate  string `bigquery:"deployment_date" json:"deployment_date" jsonschema_description:"The deployment date, YYYY-MM-DD."`
	ServicesOffered string `bigquery:"services_offered" json:"services_offered" jsonschema_description:"The services the deployment offered, e.g. 'vaccinations, screenings'."`
}

// Config locates the deployments table.
type Config struct {
	ProjectID string
	Dataset   string
	Table     string
	// Timeout bounds each query. Defaults to 30s.
	Timeout time.Duration
}

// Client reads deployment history.
type Client struct {
	cfg    Config
	runner bq.QueryRunner
	logger *zap.Logger
}

// NewClient creates a deployments client. runner may be nil when no
// BigQuery credentials are configured; lookups then return no rows.
func NewClient(cfg Config, runner bq.QueryRunner, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "community_health"
	}
	if cfg.Table == "" {
		cfg.Table = "mobile_clinic_deployments"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, runner: runner, logger: logger}
}

// RecentDeployments returns up to 10 most recent deployments covering
// the given zip codes. With no runner configured, or on a query
// failure, the result is empty rather than an error.
func (c *Client) RecentDeployments(ctx context.Context, zips []string) ([]Deployment, error) {
	if c.runner == nil {
		c.logger.Warn("bigquery not configured, skipping clinic deployment lookup",
			zap.Int("zips", len(zips)))
		return []Deployment{}, nil
	}
	if len(zips) == 0 {
		return []Deployment{}, nil
	}

	qctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	sql := fmt.Sprintf(deploymentsQueryTmpl, c.cfg.ProjectID, c.cfg.Dataset, c.cfg.Table)
	it, err := c.runner.RunQuery(qctx, sql, []bigquery.QueryParameter{
		{Name: "zipcodes", Value: zips},
	})
	if err != nil {
		c.logger.Warn("clinic deployment query failed", zap.Error(err))
		return []Deployment{}, nil
	}

	deployments := []Deployment{}
	for {
		var d Deployment
		err := it.Next(&d)
		if err == iterator.Done {
			break
		}
		if err != nil {
			c.logger.Warn("clinic deployment row decode failed", zap.Error(err))
			return []Deployment{}, nil
		}
		deployments = append(deployments, d)
	}
	return deployments, nil
}
