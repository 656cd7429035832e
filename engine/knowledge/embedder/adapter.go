package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// Embedder turns text into a fixed-dimension vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// BatchEmbedder embeds up to BatchSize texts per provider call.
type BatchEmbedder interface {
	Embedder
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	BatchSize() int
}

// Adapter wraps a langchaingo embedder, checks vector dimensions and skips blank input.
type Adapter struct {
	id        string
	provider  Provider
	model     string
	dimension int
	batchSize int
	impl      embeddings.Embedder
	cacheMu   sync.Mutex
	cache     *lru.Cache[string, []float32]
}

var (
	errMissingID        = errors.New("embedder id is required")
	errMissingProvider  = errors.New("embedder provider is required")
	errMissingModel     = errors.New("embedder model is required")
	errInvalidDimension = errors.New("embedder dimension must be greater than zero")
	errInvalidBatchSize = errors.New("embedder batch size must be greater than zero")
)

// New constructs a provider-backed embedder adapter.
func New(ctx context.Context, cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	options := []embeddings.Option{
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(cfg.StripNewLines),
	}
	impl, err := buildProviderEmbedder(ctx, cfg, options...)
	if err != nil {
		return nil, err
	}
	return newAdapter(cfg, impl), nil
}

// Wrap constructs an adapter around an existing langchaingo embedder.
func Wrap(cfg *Config, impl embeddings.Embedder) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("embedder %q: implementation is required", cfg.ID)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return newAdapter(cfg, impl), nil
}

func newAdapter(cfg *Config, impl embeddings.Embedder) *Adapter {
	return &Adapter{
		id:        cfg.ID,
		provider:  cfg.Provider,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		impl:      impl,
	}
}

// Dimension returns the configured vector dimension.
func (a *Adapter) Dimension() int {
	return a.dimension
}

// BatchSize returns the configured batch size.
func (a *Adapter) BatchSize() int {
	return a.batchSize
}

// EnableCache initializes an LRU cache for embeddings.
func (a *Adapter) EnableCache(size int) error {
	if size <= 0 {
		return fmt.Errorf("embedder %q: cache size must be greater than zero", a.id)
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return fmt.Errorf("embedder %q: init cache: %w", a.id, err)
	}
	a.cacheMu.Lock()
	a.cache = cache
	a.cacheMu.Unlock()
	return nil
}

// EmbedQuery embeds one text. Blank text returns a nil vector without calling the
// provider.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	cache := a.getCache()
	if cache != nil {
		if vector, ok := a.lookupCache(cache, text); ok {
			knowledge.RecordEmbeddingCache(ctx, string(a.provider), true)
			return vector, nil
		}
		knowledge.RecordEmbeddingCache(ctx, string(a.provider), false)
	}
	start := time.Now()
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		knowledge.RecordEmbeddingError(ctx, string(a.provider), a.model, categorizeError(err))
		return nil, a.withContext(err)
	}
	knowledge.RecordEmbedding(ctx, string(a.provider), a.model, 1, time.Since(start))
	if err := a.checkDimension(vector); err != nil {
		return nil, err
	}
	if cache != nil {
		a.storeCache(cache, text, vector)
		return cloneVector(vector), nil
	}
	return vector, nil
}

// EmbedDocuments embeds texts in one provider call. Blank entries yield nil vectors
// and are not sent.
func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	cache := a.getCache()
	missing := make(map[string][]int)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if cache != nil {
			if vector, ok := a.lookupCache(cache, text); ok {
				knowledge.RecordEmbeddingCache(ctx, string(a.provider), true)
				results[i] = vector
				continue
			}
			knowledge.RecordEmbeddingCache(ctx, string(a.provider), false)
		}
		missing[text] = append(missing[text], i)
	}
	if len(missing) == 0 {
		return results, nil
	}
	unique := make([]string, 0, len(missing))
	for _, text := range texts {
		if _, ok := missing[text]; ok && !contains(unique, text) {
			unique = append(unique, text)
		}
	}
	start := time.Now()
	embedded, err := a.impl.EmbedDocuments(ctx, unique)
	if err != nil {
		knowledge.RecordEmbeddingError(ctx, string(a.provider), a.model, categorizeError(err))
		return nil, a.withContext(err)
	}
	if len(embedded) != len(unique) {
		return nil, a.withContext(fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(unique)))
	}
	knowledge.RecordEmbedding(ctx, string(a.provider), a.model, len(unique), time.Since(start))
	for i, vector := range embedded {
		if err := a.checkDimension(vector); err != nil {
			return nil, err
		}
		for _, idx := range missing[unique[i]] {
			results[idx] = cloneVector(vector)
		}
		if cache != nil {
			a.storeCache(cache, unique[i], vector)
		}
	}
	logger.FromContext(ctx).Debug("Embedded documents", "embedder", a.id, "count", len(unique))
	return results, nil
}

func (a *Adapter) checkDimension(vector []float32) error {
	if len(vector) != a.dimension {
		return fmt.Errorf(
			"embedder %q: got %d values, want %d: %w",
			a.id, len(vector), a.dimension, knowledge.ErrDimensionMismatch,
		)
	}
	return nil
}

func (a *Adapter) getCache() *lru.Cache[string, []float32] {
	a.cacheMu.Lock()
	cache := a.cache
	a.cacheMu.Unlock()
	return cache
}

func (a *Adapter) lookupCache(cache *lru.Cache[string, []float32], text string) ([]float32, bool) {
	vector, ok := cache.Get(cacheKey(text))
	if !ok {
		return nil, false
	}
	return cloneVector(vector), true
}

func (a *Adapter) storeCache(cache *lru.Cache[string, []float32], text string, vector []float32) {
	cache.Add(cacheKey(text), cloneVector(vector))
}

func (a *Adapter) withContext(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("embedder %q: %w", a.id, err)
}

// categorizeError buckets provider failures by their message.
func categorizeError(err error) string {
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "429"):
		return "rate_limit"
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "forbidden"), strings.Contains(lower, "auth"):
		return "auth"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "unreachable"
	case strings.Contains(lower, "invalid"),
		strings.Contains(lower, "bad request"),
		strings.Contains(lower, "400"):
		return "invalid_input"
	default:
		return "server_error"
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return errMissingID
	}
	if strings.TrimSpace(string(cfg.Provider)) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingProvider)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errMissingModel)
	}
	if cfg.Dimension <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidDimension)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("embedder %q: %w", cfg.ID, errInvalidBatchSize)
	}
	return nil
}

func buildProviderEmbedder(
	ctx context.Context,
	cfg *Config,
	options ...embeddings.Option,
) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case ProviderOllama:
		return buildOllamaEmbedder(cfg, options...)
	case ProviderOpenAI:
		return buildOpenAIEmbedder(cfg, options...)
	case ProviderGoogleAI:
		return buildGoogleAIEmbedder(ctx, cfg, options...)
	default:
		return nil, fmt.Errorf("embedder %q: provider %q is not supported", cfg.ID, cfg.Provider)
	}
}

func buildOllamaEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	ollamaOpts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		ollamaOpts = append(ollamaOpts, ollama.WithServerURL(cfg.BaseURL))
	}
	client, err := ollama.New(ollamaOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize ollama client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct ollama embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}

func buildOpenAIEmbedder(cfg *Config, opts ...embeddings.Option) (embeddings.Embedder, error) {
	openaiOpts := []openai.Option{
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.APIKey != "" {
		openaiOpts = append(openaiOpts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(openaiOpts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize openai client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct openai embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}

func buildGoogleAIEmbedder(
	ctx context.Context,
	cfg *Config,
	opts ...embeddings.Option,
) (embeddings.Embedder, error) {
	client, err := googleai.New(ctx,
		googleai.WithDefaultEmbeddingModel(cfg.Model),
		googleai.WithAPIKey(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to initialize googleai client: %w", cfg.ID, err)
	}
	embedder, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: failed to construct googleai embedder: %w", cfg.ID, err)
	}
	return embedder, nil
}
