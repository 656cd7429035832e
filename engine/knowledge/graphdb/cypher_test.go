package graphdb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

type call struct {
	stmt   string
	params map[string]any
}

type fakeRunner struct {
	calls   []call
	respond func(stmt string, params map[string]any) ([]Row, error)
	closed  bool
}

func (f *fakeRunner) Verify(context.Context) error { return nil }

func (f *fakeRunner) Run(_ context.Context, stmt string, params map[string]any) ([]Row, error) {
	f.calls = append(f.calls, call{stmt: stmt, params: params})
	if f.respond != nil {
		return f.respond(stmt, params)
	}
	return nil, nil
}

func (f *fakeRunner) Close(context.Context) error {
	f.closed = true
	return nil
}

func dublinKind(t *testing.T) knowledge.UnitKind {
	t.Helper()
	src, err := knowledge.SourceByKey(knowledge.SourceDublin)
	require.NoError(t, err)
	return src.Kind
}

func TestCypherStore_MergeUnit(t *testing.T) {
	ctx := context.Background()
	n := 3
	unit := &knowledge.Unit{
		ID:            "abc",
		RegulationID:  "EU_604_2013",
		Page:          4,
		Text:          "Article 3\nAccess to the procedure",
		ArticleNumber: &n,
		Embedding:     []float32{0.5, 0.25},
	}

	t.Run("Should merge by id and link to the regulation", func(t *testing.T) {
		runner := &fakeRunner{respond: func(string, map[string]any) ([]Row, error) {
			return []Row{{"attached": int64(1)}}, nil
		}}
		store := NewCypherStore(runner)
		attached, err := store.MergeUnit(ctx, dublinKind(t), unit)
		require.NoError(t, err)
		assert.True(t, attached)
		require.Len(t, runner.calls, 1)
		stmt := runner.calls[0].stmt
		assert.Contains(t, stmt, "MERGE (u:Article {id: $id})")
		assert.Contains(t, stmt, "MERGE (r)-[:HAS_ARTICLE]->(u)")
		params := runner.calls[0].params
		assert.Equal(t, []float64{0.5, 0.25}, params["embedding"])
		assert.Equal(t, "EU_604_2013", params["regulation_id"])
		props, ok := params["props"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 3, props["article_number"])
	})

	t.Run("Should report missing regulations as not attached", func(t *testing.T) {
		runner := &fakeRunner{respond: func(string, map[string]any) ([]Row, error) {
			return []Row{{"attached": int64(0)}}, nil
		}}
		attached, err := NewCypherStore(runner).MergeUnit(ctx, dublinKind(t), unit)
		require.NoError(t, err)
		assert.False(t, attached)
	})

	t.Run("Should wrap driver failures", func(t *testing.T) {
		boom := errors.New("service unavailable")
		runner := &fakeRunner{respond: func(string, map[string]any) ([]Row, error) { return nil, boom }}
		_, err := NewCypherStore(runner).MergeUnit(ctx, dublinKind(t), unit)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Should refuse unsafe labels", func(t *testing.T) {
		runner := &fakeRunner{}
		kind := dublinKind(t)
		kind.Label = "Article) DETACH DELETE (x"
		_, err := NewCypherStore(runner).MergeUnit(ctx, kind, unit)
		assert.Error(t, err)
		assert.Empty(t, runner.calls)
	})
}

func TestCypherStore_Schema(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reset every unit label and the reference data", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, NewCypherStore(runner).Reset(ctx, knowledge.UnitKinds()))
		require.Len(t, runner.calls, 8)
		assert.Equal(t, "MATCH (n:Article) DETACH DELETE n", runner.calls[0].stmt)
		assert.Equal(t, "MATCH (n:Regulation) DETACH DELETE n", runner.calls[6].stmt)
		assert.Equal(t, "MATCH (n:Country) DETACH DELETE n", runner.calls[7].stmt)
	})

	t.Run("Should create idempotent uniqueness constraints", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, NewCypherStore(runner).EnsureConstraints(ctx, knowledge.UnitKinds()))
		require.Len(t, runner.calls, 8)
		for _, c := range runner.calls {
			assert.Contains(t, c.stmt, "IF NOT EXISTS")
			assert.Contains(t, c.stmt, "IS UNIQUE")
		}
		assert.Contains(t, runner.calls[1].stmt, "n.code")
	})

	t.Run("Should create cosine vector indexes", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, NewCypherStore(runner).EnsureVectorIndex(ctx, dublinKind(t), 768))
		stmt := runner.calls[0].stmt
		assert.True(t, strings.HasPrefix(stmt, "CREATE VECTOR INDEX dublin_articles_index IF NOT EXISTS FOR (n:Article)"))
		assert.Contains(t, stmt, "`vector.dimensions`: 768")
		assert.Contains(t, stmt, "'cosine'")
	})
}

func TestCypherStore_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("Should count nodes and relationships", func(t *testing.T) {
		runner := &fakeRunner{respond: func(stmt string, _ map[string]any) ([]Row, error) {
			if strings.Contains(stmt, "-[r:HAS_ARTICLE]->") {
				return []Row{{"total": int64(40)}}, nil
			}
			return []Row{{"total": int64(41)}}, nil
		}}
		counts, err := NewCypherStore(runner).Count(ctx, dublinKind(t))
		require.NoError(t, err)
		assert.Equal(t, Counts{Nodes: 41, Relationships: 40}, counts)
	})

	t.Run("Should look texts up by property", func(t *testing.T) {
		runner := &fakeRunner{respond: func(string, map[string]any) ([]Row, error) {
			return []Row{{"text": "first"}, {"text": "second"}}, nil
		}}
		texts, err := NewCypherStore(runner).LookupTexts(ctx, dublinKind(t), "article_number", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, texts)
		assert.Contains(t, runner.calls[0].stmt, "{article_number: $value}")
		assert.Contains(t, runner.calls[0].stmt, "ORDER BY u.page ASC")
		assert.Equal(t, 3, runner.calls[0].params["value"])
	})

	t.Run("Should reject unsafe property names", func(t *testing.T) {
		_, err := NewCypherStore(&fakeRunner{}).LookupTexts(ctx, dublinKind(t), "x}) RETURN 1 //", 3)
		assert.Error(t, err)
	})

	t.Run("Should query the vector index", func(t *testing.T) {
		runner := &fakeRunner{respond: func(string, map[string]any) ([]Row, error) {
			return []Row{{"id": "a", "text": "Article 1", "page": int64(2), "score": 0.9}}, nil
		}}
		matches, err := NewCypherStore(runner).Search(ctx, dublinKind(t), []float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, Match{ID: "a", Text: "Article 1", Page: 2, Score: 0.9}, matches[0])
		assert.Equal(t, "dublin_articles_index", runner.calls[0].params["index"])
		assert.Equal(t, 3, runner.calls[0].params["k"])
	})

	t.Run("Should close the runner", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, NewCypherStore(runner).Close(ctx))
		assert.True(t, runner.closed)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("Should validate backend settings", func(t *testing.T) {
		_, err := New(ctx, &Config{Backend: BackendNeo4j, Dimension: 768})
		assert.ErrorIs(t, err, errMissingURI)
		_, err = New(ctx, &Config{Backend: BackendPostgres, Dimension: 768})
		assert.ErrorIs(t, err, errMissingDSN)
		_, err = New(ctx, &Config{Backend: BackendMemory})
		assert.ErrorIs(t, err, errInvalidDimension)
		_, err = New(ctx, &Config{Backend: "sqlite", Dimension: 768})
		assert.ErrorContains(t, err, "not supported")
	})

	t.Run("Should build the memory backend", func(t *testing.T) {
		store, err := New(ctx, &Config{Backend: BackendMemory, Dimension: 2})
		require.NoError(t, err)
		assert.NoError(t, store.Ping(ctx))
	})
}
