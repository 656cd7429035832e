package graphdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

// pgPool is the subset of pgxpool.Pool used by the store.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// pgStore keeps the graph in relational form: units in one table keyed by
// (label, id) and regulation links in another, one link per unit.
type pgStore struct {
	pool      pgPool
	dimension int
}

func newPGStore(ctx context.Context, cfg *Config) (Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &pgStore{pool: pool, dimension: cfg.Dimension}, nil
}

func (p *pgStore) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

func (p *pgStore) schema() []string {
	return []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS regulations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	jurisdiction TEXT NOT NULL,
	valid_from TEXT NOT NULL,
	is_guidance BOOLEAN NOT NULL DEFAULT FALSE
)`,
		`CREATE TABLE IF NOT EXISTS countries (
	code TEXT PRIMARY KEY,
	jurisdiction TEXT NOT NULL,
	is_dublin_applicable BOOLEAN NOT NULL
)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS legal_units (
	label TEXT NOT NULL,
	id TEXT NOT NULL,
	page INTEGER NOT NULL,
	text TEXT NOT NULL,
	properties JSONB NOT NULL,
	embedding vector(%d),
	PRIMARY KEY (label, id)
)`, p.dimension),
		`CREATE TABLE IF NOT EXISTS regulation_units (
	regulation_id TEXT NOT NULL REFERENCES regulations (id) ON DELETE CASCADE,
	relationship TEXT NOT NULL,
	label TEXT NOT NULL,
	unit_id TEXT NOT NULL,
	PRIMARY KEY (label, unit_id),
	FOREIGN KEY (label, unit_id) REFERENCES legal_units (label, id) ON DELETE CASCADE
)`,
	}
}

// EnsureConstraints creates the schema; primary keys carry the uniqueness
// constraints for every kind.
func (p *pgStore) EnsureConstraints(ctx context.Context, kinds []knowledge.UnitKind) error {
	for _, kind := range kinds {
		if err := checkKind(kind); err != nil {
			return err
		}
	}
	for _, stmt := range p.schema() {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

func (p *pgStore) Reset(ctx context.Context, kinds []knowledge.UnitKind) error {
	labels := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		labels = append(labels, kind.Label)
	}
	return p.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM legal_units WHERE label = ANY($1)", labels); err != nil {
			return fmt.Errorf("postgres: reset units: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM regulations"); err != nil {
			return fmt.Errorf("postgres: reset regulations: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM countries"); err != nil {
			return fmt.Errorf("postgres: reset countries: %w", err)
		}
		return nil
	})
}

const upsertRegulationSQL = `INSERT INTO regulations (id, name, jurisdiction, valid_from, is_guidance)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    jurisdiction = excluded.jurisdiction,
    valid_from = excluded.valid_from,
    is_guidance = excluded.is_guidance`

func (p *pgStore) MergeRegulation(ctx context.Context, reg knowledge.Regulation) error {
	_, err := p.pool.Exec(ctx, upsertRegulationSQL,
		reg.ID, reg.Name, string(reg.Jurisdiction), reg.ValidFrom, reg.IsGuidance)
	if err != nil {
		return fmt.Errorf("postgres: upsert regulation %s: %w", reg.ID, err)
	}
	return nil
}

const upsertCountrySQL = `INSERT INTO countries (code, jurisdiction, is_dublin_applicable)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET
    jurisdiction = excluded.jurisdiction,
    is_dublin_applicable = excluded.is_dublin_applicable`

func (p *pgStore) MergeCountry(ctx context.Context, country knowledge.Country) error {
	_, err := p.pool.Exec(ctx, upsertCountrySQL,
		country.Code, string(country.Jurisdiction), country.DublinApplicable)
	if err != nil {
		return fmt.Errorf("postgres: upsert country %s: %w", country.Code, err)
	}
	return nil
}

const (
	upsertUnitSQL = `INSERT INTO legal_units (label, id, page, text, properties, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (label, id) DO UPDATE SET
    page = excluded.page,
    text = excluded.text,
    properties = excluded.properties,
    embedding = excluded.embedding`
	linkUnitSQL = `INSERT INTO regulation_units (regulation_id, relationship, label, unit_id)
SELECT $1, $2, $3, $4
WHERE EXISTS (SELECT 1 FROM regulations WHERE id = $1)
ON CONFLICT (label, unit_id) DO NOTHING`
	linkedSQL = `SELECT EXISTS (
    SELECT 1 FROM regulation_units WHERE label = $1 AND unit_id = $2 AND regulation_id = $3
)`
)

func (p *pgStore) MergeUnit(ctx context.Context, kind knowledge.UnitKind, unit *knowledge.Unit) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	if len(unit.Embedding) > 0 && len(unit.Embedding) != p.dimension {
		return false, fmt.Errorf(
			"postgres: unit %q got %d values, want %d: %w",
			unit.ID, len(unit.Embedding), p.dimension, knowledge.ErrDimensionMismatch,
		)
	}
	props, err := json.Marshal(unit.Properties(kind))
	if err != nil {
		return false, fmt.Errorf("postgres: marshal properties for %q: %w", unit.ID, err)
	}
	var embedding any
	if len(unit.Embedding) > 0 {
		embedding = pgvector.NewVector(unit.Embedding)
	}
	var attached bool
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertUnitSQL, kind.Label, unit.ID, unit.Page, unit.Text, props, embedding); err != nil {
			return fmt.Errorf("postgres: upsert %s %s: %w", kind.Label, unit.ID, err)
		}
		if _, err := tx.Exec(ctx, linkUnitSQL, unit.RegulationID, kind.Relationship, kind.Label, unit.ID); err != nil {
			return fmt.Errorf("postgres: link %s %s: %w", kind.Label, unit.ID, err)
		}
		if err := tx.QueryRow(ctx, linkedSQL, kind.Label, unit.ID, unit.RegulationID).Scan(&attached); err != nil {
			return fmt.Errorf("postgres: check link %s %s: %w", kind.Label, unit.ID, err)
		}
		return nil
	})
	return attached, err
}

func (p *pgStore) EnsureVectorIndex(ctx context.Context, kind knowledge.UnitKind, dimension int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if dimension != p.dimension {
		return fmt.Errorf("postgres: index %s wants %d dimensions, column has %d: %w",
			kind.IndexName, dimension, p.dimension, knowledge.ErrDimensionMismatch)
	}
	stmt := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON legal_units USING hnsw (embedding vector_cosine_ops) WHERE label = '%s'",
		pgx.Identifier{kind.IndexName}.Sanitize(),
		kind.Label,
	)
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: create index %s: %w", kind.IndexName, err)
	}
	return nil
}

func (p *pgStore) Count(ctx context.Context, kind knowledge.UnitKind) (Counts, error) {
	var counts Counts
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM legal_units WHERE label = $1", kind.Label).
		Scan(&counts.Nodes)
	if err != nil {
		return Counts{}, fmt.Errorf("postgres: count %s: %w", kind.Label, err)
	}
	err = p.pool.QueryRow(ctx,
		"SELECT count(*) FROM regulation_units WHERE label = $1 AND relationship = $2",
		kind.Label, kind.Relationship,
	).Scan(&counts.Relationships)
	if err != nil {
		return Counts{}, fmt.Errorf("postgres: count %s links: %w", kind.Label, err)
	}
	return counts, nil
}

func (p *pgStore) CountReference(ctx context.Context) (ReferenceCounts, error) {
	var counts ReferenceCounts
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM regulations").Scan(&counts.Regulations); err != nil {
		return ReferenceCounts{}, fmt.Errorf("postgres: count regulations: %w", err)
	}
	if err := p.pool.QueryRow(ctx, "SELECT count(*) FROM countries").Scan(&counts.Countries); err != nil {
		return ReferenceCounts{}, fmt.Errorf("postgres: count countries: %w", err)
	}
	return counts, nil
}

func (p *pgStore) LookupTexts(
	ctx context.Context,
	kind knowledge.UnitKind,
	property string,
	value any,
) ([]string, error) {
	if err := checkName("property", property); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx,
		"SELECT text FROM legal_units WHERE label = $1 AND properties ->> $2 = $3 ORDER BY page ASC",
		kind.Label, property, fmt.Sprint(value),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: lookup %s.%s: %w", kind.Label, property, err)
	}
	defer rows.Close()
	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: lookup rows: %w", err)
	}
	return texts, nil
}

const searchSQL = `SELECT id, text, page, 1 - (embedding <=> $2) AS score
FROM legal_units
WHERE label = $1 AND embedding IS NOT NULL
ORDER BY embedding <=> $2 ASC
LIMIT $3`

func (p *pgStore) Search(ctx context.Context, kind knowledge.UnitKind, vector []float32, k int) ([]Match, error) {
	if len(vector) != p.dimension {
		return nil, fmt.Errorf("postgres: query has %d values, want %d: %w",
			len(vector), p.dimension, knowledge.ErrDimensionMismatch)
	}
	if k <= 0 {
		k = defaultTopK
	}
	rows, err := p.pool.Query(ctx, searchSQL, kind.Label, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("postgres: search %s: %w", kind.Label, err)
	}
	defer rows.Close()
	matches := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Page, &m.Score); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: search rows: %w", err)
	}
	return matches, nil
}

func (p *pgStore) Close(_ context.Context) error {
	p.pool.Close()
	return nil
}

func (p *pgStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, txErr := p.pool.Begin(ctx)
	if txErr != nil {
		return fmt.Errorf("postgres: begin tx: %w", txErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("postgres: rollback failed: %w; original error: %v", rbErr, err)
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("postgres: commit: %w", commitErr)
			}
		}
	}()
	return fn(tx)
}
