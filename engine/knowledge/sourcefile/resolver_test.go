package sourcefile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

type fakeFetcher struct {
	objects map[string]string
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, key, dest string) error {
	f.calls = append(f.calls, bucket+"/"+key)
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return ErrObjectNotFound
	}
	return writeFile(dest, strings.NewReader(body))
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	return path
}

func TestResolver(t *testing.T) {
	dublin, err := knowledge.SourceByKey(knowledge.SourceDublin)
	require.NoError(t, err)
	charter, err := knowledge.SourceByKey(knowledge.SourceCharter)
	require.NoError(t, err)
	geneva, err := knowledge.SourceByKey(knowledge.SourceGeneva)
	require.NoError(t, err)

	t.Run("Should resolve registry file names under the data directory", func(t *testing.T) {
		dir := t.TempDir()
		want := touch(t, dir, dublin.File)
		r := New(&config.SourcesConfig{DataDir: dir})
		paths, err := r.Resolve(t.Context(), []knowledge.Source{dublin})
		require.NoError(t, err)
		assert.Equal(t, want, paths[knowledge.SourceDublin])
	})

	t.Run("Should report every missing document at once", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, dublin.File)
		r := New(&config.SourcesConfig{DataDir: dir})
		_, err := r.Resolve(t.Context(), []knowledge.Source{dublin, charter, geneva})
		var missing *knowledge.MissingSourcesError
		require.True(t, errors.As(err, &missing))
		assert.ErrorIs(t, err, knowledge.ErrPrecondition)
		assert.Equal(t, []string{
			filepath.Join(dir, charter.File),
			filepath.Join(dir, geneva.File),
		}, missing.Paths)
	})

	t.Run("Should treat directories as missing", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, dublin.File), 0o755))
		r := New(&config.SourcesConfig{DataDir: dir})
		_, err := r.Resolve(t.Context(), []knowledge.Source{dublin})
		assert.ErrorIs(t, err, knowledge.ErrPrecondition)
	})

	t.Run("Should prefer per-source overrides", func(t *testing.T) {
		dir := t.TempDir()
		custom := touch(t, dir, "dublin-consolidated.pdf")
		r := New(&config.SourcesConfig{
			DataDir: filepath.Join(dir, "missing"),
			Files:   map[string]string{knowledge.SourceDublin: custom},
		})
		assert.Equal(t, custom, r.Location(dublin))
		paths, err := r.Resolve(t.Context(), []knowledge.Source{dublin})
		require.NoError(t, err)
		assert.Equal(t, custom, paths[knowledge.SourceDublin])
	})

	t.Run("Should download s3 overrides into the cache", func(t *testing.T) {
		cache := t.TempDir()
		fetcher := &fakeFetcher{objects: map[string]string{"legal/eu/charter.pdf": "%PDF-1.7"}}
		r := New(&config.SourcesConfig{
			DataDir:  t.TempDir(),
			CacheDir: cache,
			Files:    map[string]string{knowledge.SourceCharter: "s3://legal/eu/charter.pdf"},
		}, WithFetcher(fetcher))
		paths, err := r.Resolve(t.Context(), []knowledge.Source{charter})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cache, knowledge.SourceCharter, "charter.pdf"), paths[knowledge.SourceCharter])
		data, err := os.ReadFile(paths[knowledge.SourceCharter])
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(data))
		assert.Equal(t, []string{"legal/eu/charter.pdf"}, fetcher.calls)
	})

	t.Run("Should count absent s3 objects as missing", func(t *testing.T) {
		r := New(&config.SourcesConfig{
			DataDir:  t.TempDir(),
			CacheDir: t.TempDir(),
			Files:    map[string]string{knowledge.SourceCharter: "s3://legal/gone.pdf"},
		}, WithFetcher(&fakeFetcher{}))
		_, err := r.Resolve(t.Context(), []knowledge.Source{charter})
		var missing *knowledge.MissingSourcesError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"s3://legal/gone.pdf"}, missing.Paths)
	})
}

func TestParseS3URL(t *testing.T) {
	t.Run("Should split bucket and key", func(t *testing.T) {
		bucket, key, err := ParseS3URL("s3://legal/eu/dublin.pdf")
		require.NoError(t, err)
		assert.Equal(t, "legal", bucket)
		assert.Equal(t, "eu/dublin.pdf", key)
	})
	t.Run("Should reject incomplete urls", func(t *testing.T) {
		for _, loc := range []string{"s3://", "s3://legal", "s3://legal/", "s3://legal/eu/", "/data/x.pdf"} {
			_, _, err := ParseS3URL(loc)
			assert.Error(t, err, loc)
		}
	})
}

type fakeGetter struct {
	body string
	err  error
}

func (g *fakeGetter) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(g.body))}, nil
}

func TestS3Fetcher(t *testing.T) {
	t.Run("Should write the object body to dest", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "nested", "doc.pdf")
		f := &S3Fetcher{client: &fakeGetter{body: "%PDF-1.4 body"}}
		require.NoError(t, f.Fetch(t.Context(), "legal", "doc.pdf", dest))
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 body", string(data))
	})
	t.Run("Should map missing keys to ErrObjectNotFound", func(t *testing.T) {
		f := &S3Fetcher{client: &fakeGetter{err: &types.NoSuchKey{}}}
		err := f.Fetch(t.Context(), "legal", "doc.pdf", filepath.Join(t.TempDir(), "doc.pdf"))
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
	t.Run("Should wrap other failures", func(t *testing.T) {
		f := &S3Fetcher{client: &fakeGetter{err: errors.New("access denied")}}
		err := f.Fetch(t.Context(), "legal", "doc.pdf", filepath.Join(t.TempDir(), "doc.pdf"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrObjectNotFound)
		assert.Contains(t, err.Error(), "access denied")
	})
}
