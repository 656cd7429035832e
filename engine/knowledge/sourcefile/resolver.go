package sourcefile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

const s3Scheme = "s3://"

// ErrObjectNotFound is returned by fetchers when the remote object does not exist.
var ErrObjectNotFound = errors.New("sourcefile: object not found")

// Fetcher downloads a remote object into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key, dest string) error
}

// Resolver maps sources to readable local files.
type Resolver struct {
	dataDir   string
	cacheDir  string
	region    string
	overrides map[string]string

	mu      sync.Mutex
	fetcher Fetcher
}

type Option func(*Resolver)

// WithFetcher replaces the S3 fetcher built on first use.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

func New(cfg *config.SourcesConfig, opts ...Option) *Resolver {
	r := &Resolver{
		dataDir:   cfg.DataDir,
		cacheDir:  cfg.CacheDir,
		region:    cfg.S3Region,
		overrides: make(map[string]string, len(cfg.Files)),
	}
	for k, v := range cfg.Files {
		r.overrides[k] = v
	}
	if r.cacheDir == "" {
		r.cacheDir = filepath.Join(os.TempDir(), "migrantnav")
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns where src is read from: its override if any, otherwise the
// registry file name under the data directory.
func (r *Resolver) Location(src knowledge.Source) string {
	if loc := strings.TrimSpace(r.overrides[src.Key]); loc != "" {
		return loc
	}
	return filepath.Join(r.dataDir, src.File)
}

// Resolve returns a local path per source key. Every location that cannot be found is
// collected into a single *knowledge.MissingSourcesError.
func (r *Resolver) Resolve(ctx context.Context, sources []knowledge.Source) (map[string]string, error) {
	log := logger.FromContext(ctx)
	paths := make(map[string]string, len(sources))
	var missing []string
	for _, src := range sources {
		loc := r.Location(src)
		path, err := r.resolveOne(ctx, src.Key, loc)
		switch {
		case err == nil:
			paths[src.Key] = path
		case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrObjectNotFound):
			missing = append(missing, loc)
		default:
			return nil, fmt.Errorf("%w: resolve %s: %w", knowledge.ErrPrecondition, src.Key, err)
		}
	}
	if len(missing) > 0 {
		return nil, &knowledge.MissingSourcesError{Paths: missing}
	}
	log.Debug("Sources resolved", "count", len(paths))
	return paths, nil
}

func (r *Resolver) resolveOne(ctx context.Context, key, loc string) (string, error) {
	if !strings.HasPrefix(loc, s3Scheme) {
		info, err := os.Stat(loc)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory: %w", loc, os.ErrNotExist)
		}
		return loc, nil
	}
	bucket, objectKey, err := ParseS3URL(loc)
	if err != nil {
		return "", err
	}
	fetcher, err := r.getFetcher(ctx)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(r.cacheDir, key, filepath.Base(objectKey))
	if err := fetcher.Fetch(ctx, bucket, objectKey, dest); err != nil {
		return "", err
	}
	logger.FromContext(ctx).Info("Source downloaded", "source", key, "location", loc, "path", dest)
	return dest, nil
}

func (r *Resolver) getFetcher(ctx context.Context) (Fetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetcher != nil {
		return r.fetcher, nil
	}
	f, err := NewS3Fetcher(ctx, r.region)
	if err != nil {
		return nil, err
	}
	r.fetcher = f
	return f, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(loc string) (string, string, error) {
	rest, ok := strings.CutPrefix(loc, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("sourcefile: %q is not an s3 url", loc)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || strings.TrimSpace(key) == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("sourcefile: %q must name a bucket and an object key", loc)
	}
	return bucket, key, nil
}
