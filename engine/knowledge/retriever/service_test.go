package retriever_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/graphdb"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/retriever"
)

type stubEmbedder struct {
	vector []float32
	fail   bool
}

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embed query failed")
	}
	return s.vector, nil
}

func (s *stubEmbedder) Dimension() int { return 2 }

func seededStore(t *testing.T) graphdb.Store {
	t.Helper()
	ctx := t.Context()
	store := graphdb.NewMemoryStore(2)
	for _, reg := range knowledge.Regulations() {
		require.NoError(t, store.MergeRegulation(ctx, reg))
	}
	dublin, err := knowledge.SourceByKey(knowledge.SourceDublin)
	require.NoError(t, err)
	geneva, err := knowledge.SourceByKey(knowledge.SourceGeneva)
	require.NoError(t, err)
	seventeen := 17
	units := []struct {
		kind knowledge.UnitKind
		unit knowledge.Unit
	}{
		{dublin.Kind, knowledge.Unit{ID: "b", RegulationID: "EU_604_2013", Page: 9, Text: "continued", ArticleNumber: &seventeen, Embedding: []float32{0, 1}}},
		{dublin.Kind, knowledge.Unit{ID: "a", RegulationID: "EU_604_2013", Page: 8, Text: "Article 17\nDiscretionary clauses", ArticleNumber: &seventeen, Embedding: []float32{1, 0}}},
		{geneva.Kind, knowledge.Unit{ID: "g", RegulationID: "UN_GENEVA_1951", Page: 1, Text: "Article 1A\nDefinition", ArticleLabel: "1A", Embedding: []float32{1, 1}}},
	}
	for i := range units {
		attached, err := store.MergeUnit(ctx, units[i].kind, &units[i].unit)
		require.NoError(t, err)
		require.True(t, attached)
	}
	return store
}

func TestService_Article(t *testing.T) {
	svc, err := retriever.NewService(seededStore(t), nil)
	require.NoError(t, err)

	t.Run("Should join every part in page order", func(t *testing.T) {
		article, err := svc.Article(t.Context(), knowledge.SourceDublin, "17")
		require.NoError(t, err)
		assert.Equal(t, "Article 17\nDiscretionary clauses\n\ncontinued", article.Text)
		assert.Equal(t, "17", article.Ref)
		assert.Len(t, article.Parts, 2)
	})

	t.Run("Should resolve Geneva labels case-insensitively", func(t *testing.T) {
		article, err := svc.Article(t.Context(), knowledge.SourceGeneva, "1a")
		require.NoError(t, err)
		assert.Equal(t, "Article 1A\nDefinition", article.Text)
	})

	t.Run("Should return ErrNotFound for absent articles", func(t *testing.T) {
		_, err := svc.Article(t.Context(), knowledge.SourceDublin, "99")
		assert.ErrorIs(t, err, knowledge.ErrNotFound)
	})

	t.Run("Should reject unknown families and section families", func(t *testing.T) {
		_, err := svc.Article(t.Context(), "schengen", "1")
		assert.ErrorIs(t, err, knowledge.ErrUnknownFamily)
		_, err = svc.Article(t.Context(), knowledge.SourceDEProcedure, "1")
		assert.ErrorIs(t, err, retriever.ErrNoArticles)
	})
}

func TestService_Search(t *testing.T) {
	t.Run("Should return nearest units first", func(t *testing.T) {
		svc, err := retriever.NewService(seededStore(t), &stubEmbedder{vector: []float32{1, 0}})
		require.NoError(t, err)
		results, err := svc.Search(t.Context(), knowledge.SourceDublin, "take charge", 0)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].ID)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
		assert.Equal(t, knowledge.SourceDublin, results[0].Family)
	})

	t.Run("Should honour k", func(t *testing.T) {
		svc, err := retriever.NewService(seededStore(t), &stubEmbedder{vector: []float32{1, 0}})
		require.NoError(t, err)
		results, err := svc.Search(t.Context(), knowledge.SourceDublin, "take charge", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("Should reject blank queries", func(t *testing.T) {
		svc, err := retriever.NewService(seededStore(t), &stubEmbedder{vector: []float32{1, 0}})
		require.NoError(t, err)
		_, err = svc.Search(t.Context(), knowledge.SourceDublin, "  ", 3)
		assert.ErrorIs(t, err, knowledge.ErrEmptyText)
	})

	t.Run("Should propagate embedder failures", func(t *testing.T) {
		svc, err := retriever.NewService(seededStore(t), &stubEmbedder{fail: true})
		require.NoError(t, err)
		_, err = svc.Search(t.Context(), knowledge.SourceDublin, "take charge", 3)
		assert.ErrorContains(t, err, "embed query failed")
	})

	t.Run("Should require an embedder", func(t *testing.T) {
		svc, err := retriever.NewService(seededStore(t), nil)
		require.NoError(t, err)
		_, err = svc.Search(t.Context(), knowledge.SourceDublin, "take charge", 3)
		assert.ErrorIs(t, err, retriever.ErrSearchDisabled)
	})
}

func TestDefaultTopK(t *testing.T) {
	t.Run("Should use per-family neighbour counts", func(t *testing.T) {
		assert.Equal(t, 8, retriever.DefaultTopK(knowledge.SourceDublin))
		assert.Equal(t, 4, retriever.DefaultTopK(knowledge.SourceCharter))
		assert.Equal(t, 6, retriever.DefaultTopK(knowledge.SourceGeneva))
	})
}
