package graphdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

// Backend enumerates supported unit stores.
type Backend string

const (
	BackendNeo4j    Backend = "neo4j"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Counts reports stored units of one kind and their regulation relationships.
type Counts struct {
	Nodes         int64
	Relationships int64
}

// ReferenceCounts reports the seeded reference data.
type ReferenceCounts struct {
	Regulations int64
	Countries   int64
}

// Match is a vector search hit.
type Match struct {
	ID    string
	Text  string
	Page  int
	Score float64
}

// Store persists regulations, countries and legal units. Every write is an idempotent
// upsert keyed by identifier.
type Store interface {
	Ping(ctx context.Context) error
	// EnsureConstraints makes the store reject duplicate identifiers.
	EnsureConstraints(ctx context.Context, kinds []knowledge.UnitKind) error
	// Reset removes all units of kinds together with regulations and countries.
	Reset(ctx context.Context, kinds []knowledge.UnitKind) error
	MergeRegulation(ctx context.Context, reg knowledge.Regulation) error
	MergeCountry(ctx context.Context, country knowledge.Country) error
	// MergeUnit upserts the unit and links it to its regulation. attached is false
	// when the regulation does not exist; the unit is stored regardless.
	MergeUnit(ctx context.Context, kind knowledge.UnitKind, unit *knowledge.Unit) (attached bool, err error)
	EnsureVectorIndex(ctx context.Context, kind knowledge.UnitKind, dimension int) error
	Count(ctx context.Context, kind knowledge.UnitKind) (Counts, error)
	CountReference(ctx context.Context) (ReferenceCounts, error)
	// LookupTexts returns the text of units whose property equals value, ordered by page.
	LookupTexts(ctx context.Context, kind knowledge.UnitKind, property string, value any) ([]string, error)
	Search(ctx context.Context, kind knowledge.UnitKind, vector []float32, k int) ([]Match, error)
	Close(ctx context.Context) error
}

// Config captures connection details for a store.
type Config struct {
	Backend   Backend
	URI       string
	Username  string
	Password  string
	Database  string
	DSN       string
	Dimension int
}

// ConfigFrom maps application settings onto a store config.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Backend:   Backend(cfg.Graph.Backend),
		URI:       cfg.Graph.URI,
		Username:  cfg.Graph.Username,
		Password:  cfg.Graph.Password.Value(),
		Database:  cfg.Graph.Database,
		DSN:       cfg.Graph.DSN.Value(),
		Dimension: cfg.Embedder.Dimension,
	}
}

var (
	errMissingURI       = errors.New("graphdb: neo4j uri is required")
	errMissingDSN       = errors.New("graphdb: postgres dsn is required")
	errInvalidDimension = errors.New("graphdb: dimension must be greater than zero")
)

// New connects the configured backend.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendNeo4j:
		runner, err := NewNeo4jRunner(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewCypherStore(runner), nil
	case BackendPostgres:
		return newPGStore(ctx, cfg)
	case BackendMemory:
		return NewMemoryStore(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("graphdb: backend %q is not supported", cfg.Backend)
	}
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("graphdb: config is required")
	}
	switch cfg.Backend {
	case BackendNeo4j:
		if strings.TrimSpace(cfg.URI) == "" {
			return errMissingURI
		}
	case BackendPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return errMissingDSN
		}
	}
	if cfg.Dimension <= 0 {
		return errInvalidDimension
	}
	return nil
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkName guards labels, relationship types and property names that end up
// interpolated into statements.
func checkName(kind, name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("graphdb: invalid %s %q", kind, name)
	}
	return nil
}

func checkKind(kind knowledge.UnitKind) error {
	if err := checkName("label", kind.Label); err != nil {
		return err
	}
	if err := checkName("relationship", kind.Relationship); err != nil {
		return err
	}
	return checkName("index", kind.IndexName)
}
