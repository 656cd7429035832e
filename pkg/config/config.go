package config

import (
	"context"
	"fmt"
	"time"
)

// Config represents the complete configuration for the ingestion pipeline and its
// read-side tools. It is built once by the CLI and passed explicitly to components.
type Config struct {
	Sources  SourcesConfig  `koanf:"sources"  validate:"required"`
	Embedder EmbedderConfig `koanf:"embedder" validate:"required"`
	Graph    GraphConfig    `koanf:"graph"    validate:"required"`
	Ingest   IngestConfig   `koanf:"ingest"   validate:"required"`
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// SourcesConfig locates the six source documents.
type SourcesConfig struct {
	DataDir  string `koanf:"data_dir"  validate:"required" env:"MIGRANTNAV_DATA_DIR"`
	CacheDir string `koanf:"cache_dir"                     env:"MIGRANTNAV_CACHE_DIR"`
	// Files overrides the location of a source by key (dublin, charter, ...).
	// Values are filesystem paths or s3://bucket/key URLs.
	Files    map[string]string `koanf:"files"     validate:"dive,source_location"`
	S3Region string            `koanf:"s3_region" env:"AWS_REGION"`
	// MaxRunes caps the text read from one document. Zero reads everything.
	MaxRunes int64 `koanf:"max_runes" validate:"min=0" env:"MIGRANTNAV_PDF_MAX_RUNES"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	Provider      string          `koanf:"provider"        validate:"required,oneof=ollama openai googleai" env:"EMBEDDER_PROVIDER"`
	Model         string          `koanf:"model"           validate:"required"                              env:"EMBEDDER_MODEL"`
	BaseURL       string          `koanf:"base_url"                                                         env:"OLLAMA_BASE_URL"`
	APIKey        SensitiveString `koanf:"api_key"                                                          env:"EMBEDDER_API_KEY" sensitive:"true"`
	Dimension     int             `koanf:"dimension"       validate:"min=1"                                 env:"EMBEDDER_DIMENSION"`
	BatchSize     int             `koanf:"batch_size"      validate:"min=1"                                 env:"EMBEDDER_BATCH_SIZE"`
	CacheSize     int             `koanf:"cache_size"      validate:"min=0"                                 env:"EMBEDDER_CACHE_SIZE"`
	StripNewLines bool            `koanf:"strip_new_lines"                                                  env:"EMBEDDER_STRIP_NEW_LINES"`
}

// GraphConfig selects and connects the unit store.
type GraphConfig struct {
	Backend  string          `koanf:"backend"  validate:"required,oneof=neo4j postgres memory" env:"GRAPH_BACKEND"`
	URI      string          `koanf:"uri"                                                      env:"NEO4J_URI"`
	Username string          `koanf:"username"                                                 env:"NEO4J_USERNAME"`
	Password SensitiveString `koanf:"password"                                                 env:"NEO4J_PASSWORD" sensitive:"true"`
	Database string          `koanf:"database"                                                 env:"NEO4J_DATABASE"`
	DSN      SensitiveString `koanf:"dsn"                                                      env:"PG_DSN"         sensitive:"true"`
}

// IngestConfig tunes the batch run.
type IngestConfig struct {
	CallTimeout      time.Duration `koanf:"call_timeout"                      env:"INGEST_CALL_TIMEOUT"`
	RetryAttempts    int           `koanf:"retry_attempts"    validate:"min=1" env:"INGEST_RETRY_ATTEMPTS"`
	RetryBackoff     time.Duration `koanf:"retry_backoff"                     env:"INGEST_RETRY_BACKOFF"`
	RetryMaxBackoff  time.Duration `koanf:"retry_max_backoff"                 env:"INGEST_RETRY_MAX_BACKOFF"`
	EmbedConcurrency int           `koanf:"embed_concurrency" validate:"min=1" env:"INGEST_EMBED_CONCURRENCY"`
	AllowPartial     bool          `koanf:"allow_partial"                      env:"INGEST_ALLOW_PARTIAL"`
}

// ServerConfig contains the read-only HTTP API configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"    validate:"required"        env:"SERVER_HOST"`
	Port    int           `koanf:"port"    validate:"min=1,max=65535" env:"SERVER_PORT"`
	Timeout time.Duration `koanf:"timeout"                            env:"SERVER_TIMEOUT"`
}

// FullAddress returns host:port.
func (s *ServerConfig) FullAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricsConfig controls the prometheus exporter.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"  env:"METRICS_ENABLED"`
	Textfile string `koanf:"textfile" env:"METRICS_TEXTFILE"`
}

// Service loads and validates configuration.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type for a specific configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration using the default service.
func Load(ctx context.Context) (*Config, error) {
	return NewService().Load(ctx)
}

// Default returns the configuration used when nothing else is provided. It targets a
// local Neo4j and Ollama, the setup the assistant was developed against.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			DataDir:  "./data",
			CacheDir: ".migrantnav/cache",
			Files:    map[string]string{},
		},
		Embedder: EmbedderConfig{
			Provider:  "ollama",
			Model:     "nomic-embed-text",
			BaseURL:   "http://localhost:11434",
			Dimension: 768,
			BatchSize: 16,
			CacheSize: 1024,
		},
		Graph: GraphConfig{
			Backend:  "neo4j",
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Ingest: IngestConfig{
			CallTimeout:      60 * time.Second,
			RetryAttempts:    3,
			RetryBackoff:     500 * time.Millisecond,
			RetryMaxBackoff:  10 * time.Second,
			EmbedConcurrency: 1,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    5005,
			Timeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
