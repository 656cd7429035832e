package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/embedder"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/graphdb"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// ErrNoArticles is returned for article lookups on families segmented into sections.
var ErrNoArticles = errors.New("retriever: family has no numbered articles")

// ErrSearchDisabled is returned by Search when no embedder is configured.
var ErrSearchDisabled = errors.New("retriever: vector search requires an embedder")

const (
	queryKindArticle = "article"
	queryKindSearch  = "search"
	maxTopK          = 50
)

// Nearest-neighbour counts used by the assistant for each family.
var defaultTopK = map[string]int{
	knowledge.SourceDublin:       8,
	knowledge.SourceCharter:      4,
	knowledge.SourceDEProcedure:  6,
	knowledge.SourceSubsidiary:   6,
	knowledge.SourceFreeMovement: 6,
	knowledge.SourceGeneva:       6,
}

// Article is the joined text of every unit stored under one article reference.
type Article struct {
	Family string   `json:"family"`
	Ref    string   `json:"ref"`
	Text   string   `json:"text"`
	Parts  []string `json:"-"`
}

// Result is one vector search hit.
type Result struct {
	Family string  `json:"family"`
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}

type Service struct {
	store    graphdb.Store
	embedder embedder.Embedder
	tracer   trace.Tracer
}

// NewService builds a read-only query service. emb may be nil, which disables Search.
func NewService(store graphdb.Store, emb embedder.Embedder) (*Service, error) {
	if store == nil {
		return nil, errors.New("retriever: store is required")
	}
	return &Service{
		store:    store,
		embedder: emb,
		tracer:   otel.Tracer("migrantnav.knowledge.retriever"),
	}, nil
}

// DefaultTopK returns the neighbour count used when callers pass k <= 0.
func DefaultTopK(family string) int {
	if k, ok := defaultTopK[family]; ok {
		return k
	}
	return 5
}

// Article returns the texts of units whose article reference matches ref, ordered by
// ascending page and joined by a blank line.
func (s *Service) Article(ctx context.Context, family, ref string) (article *Article, err error) {
	src, err := knowledge.SourceByKey(family)
	if err != nil {
		return nil, err
	}
	if src.Kind.NumberProperty == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoArticles, family)
	}
	parsed, err := knowledge.ParseArticleRef(ref, src.Kind)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "migrantnav.knowledge.retriever.article", trace.WithAttributes(
		attribute.String("family", family),
		attribute.String("ref", parsed.String()),
	))
	defer func() {
		s.finish(ctx, span, family, queryKindArticle, start, err)
	}()
	property, value := parsed.Key(src.Kind)
	texts, err := s.store.LookupTexts(ctx, src.Kind, property, value)
	if err != nil {
		return nil, fmt.Errorf("retriever: lookup %s article %s: %w", family, parsed, err)
	}
	if len(texts) == 0 {
		knowledge.RecordQueryEmpty(ctx, family, queryKindArticle)
		return nil, fmt.Errorf("%w: %s article %s", knowledge.ErrNotFound, family, parsed)
	}
	return &Article{
		Family: family,
		Ref:    parsed.String(),
		Text:   strings.Join(texts, "\n\n"),
		Parts:  texts,
	}, nil
}

// Search embeds query and returns the k nearest units of family by cosine similarity.
func (s *Service) Search(ctx context.Context, family, query string, k int) (results []Result, err error) {
	if s.embedder == nil {
		return nil, ErrSearchDisabled
	}
	src, err := knowledge.SourceByKey(family)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("retriever: query: %w", knowledge.ErrEmptyText)
	}
	if k <= 0 {
		k = DefaultTopK(family)
	}
	k = min(k, maxTopK)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "migrantnav.knowledge.retriever.search", trace.WithAttributes(
		attribute.String("family", family),
		attribute.String("index", src.Kind.IndexName),
		attribute.Int("top_k", k),
	))
	defer func() {
		s.finish(ctx, span, family, queryKindSearch, start, err)
	}()
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}
	matches, err := s.store.Search(ctx, src.Kind, vector, k)
	if err != nil {
		return nil, fmt.Errorf("retriever: search %s: %w", src.Kind.IndexName, err)
	}
	span.SetAttributes(attribute.Int("matches", len(matches)))
	if len(matches) == 0 {
		knowledge.RecordQueryEmpty(ctx, family, queryKindSearch)
		return nil, nil
	}
	results = make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{Family: family, ID: m.ID, Text: m.Text, Page: m.Page, Score: m.Score}
	}
	return results, nil
}

func (s *Service) finish(
	ctx context.Context,
	span trace.Span,
	family, kind string,
	start time.Time,
	err error,
) {
	elapsed := time.Since(start)
	knowledge.RecordQueryLatency(ctx, family, kind, elapsed)
	if err != nil && !errors.Is(err, knowledge.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.FromContext(ctx).Warn("Knowledge query failed", "family", family, "kind", kind, "error", err)
	}
	span.End()
}
