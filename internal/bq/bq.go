// Package bq wraps the BigQuery client behind a narrow query-runner
// interface so data-source packages stay testable without network
// credentials.
package bq

import (
	"context"

	"cloud.google.com/go/bigquery"
)

// RowIterator matches *bigquery.RowIterator.Next.
type RowIterator interface {
	Next(dst any) error
}

// QueryRunner runs a parameterized BigQuery query.
type QueryRunner interface {
	RunQuery(ctx context.Context, sql string, params []bigquery.QueryParameter) (RowIterator, error)
}

// Runner adapts *bigquery.Client to QueryRunner.
type Runner struct {
	Client *bigquery.Client
}

func (r Runner) RunQuery(ctx context.Context, sql string, params []bigquery.QueryParameter) (RowIterator, error) {
	q := r.Client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}
