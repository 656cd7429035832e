//go:build integration

package graphdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

func startPGVector(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("migrantnav"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(terminateCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %s", err)
		}
	})
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPGStore_Integration(t *testing.T) {
	ctx := context.Background()
	dsn := startPGVector(ctx, t)
	store, err := New(ctx, &Config{Backend: BackendPostgres, DSN: dsn, Dimension: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	kinds := knowledge.UnitKinds()
	dublin := dublinKind(t)
	reg := knowledge.Regulation{ID: "EU_604_2013", Name: "Dublin III Regulation", Jurisdiction: knowledge.JurisdictionEU, ValidFrom: "2013-06-19"}
	three, seventeen := 3, 17

	t.Run("Should create the schema and indexes repeatedly", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
		for range 2 {
			require.NoError(t, store.EnsureConstraints(ctx, kinds))
			require.NoError(t, store.EnsureVectorIndex(ctx, dublin, 3))
		}
	})

	t.Run("Should upsert units idempotently and attach them", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx, kinds))
		require.NoError(t, store.MergeRegulation(ctx, reg))
		units := []*knowledge.Unit{
			{ID: "a1", RegulationID: reg.ID, Page: 4, Text: "Article 3 Access to the procedure", ArticleNumber: &three, Embedding: []float32{1, 0, 0}},
			{ID: "a2", RegulationID: reg.ID, Page: 9, Text: "Article 17 Discretionary clauses", ArticleNumber: &seventeen, Embedding: []float32{0, 1, 0}},
		}
		for range 2 {
			for _, u := range units {
				attached, err := store.MergeUnit(ctx, dublin, u)
				require.NoError(t, err)
				assert.True(t, attached)
			}
		}
		counts, err := store.Count(ctx, dublin)
		require.NoError(t, err)
		assert.Equal(t, Counts{Nodes: 2, Relationships: 2}, counts)
	})

	t.Run("Should look up and search the stored units", func(t *testing.T) {
		texts, err := store.LookupTexts(ctx, dublin, "article_number", 17)
		require.NoError(t, err)
		assert.Equal(t, []string{"Article 17 Discretionary clauses"}, texts)

		matches, err := store.Search(ctx, dublin, []float32{0.1, 0.9, 0}, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "a2", matches[0].ID)
	})

	t.Run("Should report orphans", func(t *testing.T) {
		attached, err := store.MergeUnit(ctx, dublin, &knowledge.Unit{ID: "x", RegulationID: "MISSING", Text: "Article 99"})
		require.NoError(t, err)
		assert.False(t, attached)
	})
}
