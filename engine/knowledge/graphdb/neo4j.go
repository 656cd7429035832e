package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Row is one result record keyed by column name.
type Row map[string]any

// Runner executes Cypher statements.
type Runner interface {
	Verify(ctx context.Context) error
	Run(ctx context.Context, stmt string, params map[string]any) ([]Row, error)
	Close(ctx context.Context) error
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jRunner opens a driver for cfg.URI. Connectivity is checked lazily by Verify.
func NewNeo4jRunner(_ context.Context, cfg *Config) (Runner, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: create driver for %s: %w", cfg.URI, err)
	}
	return &driverRunner{driver: driver, database: cfg.Database}, nil
}

func (r *driverRunner) Verify(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return nil
}

func (r *driverRunner) Run(ctx context.Context, stmt string, params map[string]any) ([]Row, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if r.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(r.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, r.driver, stmt, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

func (r *driverRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}
