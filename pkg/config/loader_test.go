package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	data       map[string]any
	sourceType SourceType
}

func (m *mockSource) Load() (map[string]any, error) {
	return m.data, nil
}

func (m *mockSource) Type() SourceType {
	return m.sourceType
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		cfg, err := NewService().Load(t.Context())
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "./data", cfg.Sources.DataDir)
		assert.Equal(t, "ollama", cfg.Embedder.Provider)
		assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
		assert.Equal(t, 768, cfg.Embedder.Dimension)
		assert.Equal(t, "neo4j", cfg.Graph.Backend)
		assert.Equal(t, 3, cfg.Ingest.RetryAttempts)
		assert.Equal(t, 60*time.Second, cfg.Ingest.CallTimeout)
		assert.NotNil(t, cfg.Sources.Files)
	})

	t.Run("Should apply sources in precedence order", func(t *testing.T) {
		yamlSource := &mockSource{
			data: map[string]any{
				"graph":  map[string]any{"backend": "memory", "database": "legal"},
				"ingest": map[string]any{"retry_attempts": 5},
			},
			sourceType: SourceYAML,
		}
		cliSource := &mockSource{
			data:       map[string]any{"ingest": map[string]any{"retry_attempts": 7}},
			sourceType: SourceCLI,
		}
		service := NewService()

		cfg, err := service.Load(t.Context(), yamlSource, cliSource)
		require.NoError(t, err)

		assert.Equal(t, "memory", cfg.Graph.Backend)
		assert.Equal(t, "legal", cfg.Graph.Database)
		assert.Equal(t, 7, cfg.Ingest.RetryAttempts)
		assert.Equal(t, SourceCLI, service.GetSource("ingest.retry_attempts"))
		assert.Equal(t, SourceYAML, service.GetSource("graph.backend"))
		assert.Equal(t, SourceDefault, service.GetSource("embedder.model"))
	})

	t.Run("Should map original deployment environment variables", func(t *testing.T) {
		t.Setenv("NEO4J_URI", "neo4j+s://graph.example.org")
		t.Setenv("NEO4J_PASSWORD", "s3cret")
		t.Setenv("INGEST_CALL_TIMEOUT", "15s")

		service := NewService()
		cfg, err := service.Load(t.Context())
		require.NoError(t, err)

		assert.Equal(t, "neo4j+s://graph.example.org", cfg.Graph.URI)
		assert.Equal(t, "s3cret", cfg.Graph.Password.Value())
		assert.Equal(t, 15*time.Second, cfg.Ingest.CallTimeout)
		assert.Equal(t, SourceEnv, service.GetSource("graph.uri"))
	})

	t.Run("Should read the pdf rune limit from the environment", func(t *testing.T) {
		t.Setenv("MIGRANTNAV_PDF_MAX_RUNES", "200000")
		service := NewService()
		cfg, err := service.Load(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(200000), cfg.Sources.MaxRunes)
		assert.Equal(t, SourceEnv, service.GetSource("sources.max_runes"))
	})

	t.Run("Should reject a negative pdf rune limit", func(t *testing.T) {
		cfg := Default()
		cfg.Sources.MaxRunes = -1
		assert.Error(t, NewService().Validate(cfg))
	})

	t.Run("Should let CLI flags override environment", func(t *testing.T) {
		t.Setenv("GRAPH_BACKEND", "postgres")
		t.Setenv("PG_DSN", "postgres://localhost/migrantnav")

		cfg, err := NewService().Load(t.Context(), NewCLIProvider(map[string]any{"backend": "memory"}))
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Graph.Backend)
	})

	t.Run("Should keep source file overrides as a map", func(t *testing.T) {
		src := &mockSource{
			data: map[string]any{
				"sources": map[string]any{
					"files": map[string]any{
						"dublin":  "/srv/pdfs/dublin.pdf",
						"charter": "s3://legal-corpus/eu/charter.pdf",
					},
				},
			},
			sourceType: SourceYAML,
		}

		cfg, err := NewService().Load(t.Context(), src)
		require.NoError(t, err)
		assert.Equal(t, "/srv/pdfs/dublin.pdf", cfg.Sources.Files["dublin"])
		assert.Equal(t, "s3://legal-corpus/eu/charter.pdf", cfg.Sources.Files["charter"])
	})
}

func TestLoader_Validate(t *testing.T) {
	t.Run("Should reject unknown embedder provider", func(t *testing.T) {
		src := &mockSource{
			data:       map[string]any{"embedder": map[string]any{"provider": "word2vec"}},
			sourceType: SourceYAML,
		}
		_, err := NewService().Load(t.Context(), src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Provider")
	})

	t.Run("Should require a dsn for the postgres backend", func(t *testing.T) {
		src := &mockSource{
			data:       map[string]any{"graph": map[string]any{"backend": "postgres"}},
			sourceType: SourceYAML,
		}
		_, err := NewService().Load(t.Context(), src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dsn")
	})

	t.Run("Should reject s3 locations without an object key", func(t *testing.T) {
		src := &mockSource{
			data: map[string]any{
				"sources": map[string]any{"files": map[string]any{"dublin": "s3://bucket"}},
			},
			sourceType: SourceYAML,
		}
		_, err := NewService().Load(t.Context(), src)
		require.Error(t, err)
	})

	t.Run("Should reject max backoff below base backoff", func(t *testing.T) {
		cfg := Default()
		cfg.Ingest.RetryBackoff = 2 * time.Second
		cfg.Ingest.RetryMaxBackoff = time.Second
		err := NewService().Validate(cfg)
		require.Error(t, err)
	})

	t.Run("Should reject nil configuration", func(t *testing.T) {
		assert.Error(t, NewService().Validate(nil))
	})
}

func TestYAMLProvider(t *testing.T) {
	t.Run("Should load nested values from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "migrantnav.yaml")
		content := "graph:\n  backend: memory\nembedder:\n  model: nomic-embed-text\n  dimension: 768\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := NewService().Load(t.Context(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Graph.Backend)
	})

	t.Run("Should treat a missing file as empty", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml")).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("graph: [unclosed"), 0o600))
		_, err := NewYAMLProvider(path).Load()
		assert.Error(t, err)
	})
}
