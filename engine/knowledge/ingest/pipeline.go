package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/embedder"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/graphdb"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/persist"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// ErrPartialRun is returned when at least one source did not complete and partial
// runs are not allowed.
var ErrPartialRun = errors.New("ingest: run did not complete every source")

type Pipeline struct {
	store     graphdb.Store
	embedder  embedder.BatchEmbedder
	resolver  Resolver
	extractor Extractor
	persister *persist.Persister
	opts      Options
}

func NewPipeline(
	store graphdb.Store,
	emb embedder.BatchEmbedder,
	resolver Resolver,
	extractor Extractor,
	opts Options,
) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("ingest: store is required")
	}
	if emb == nil {
		return nil, errors.New("ingest: embedder is required")
	}
	if resolver == nil {
		return nil, errors.New("ingest: source resolver is required")
	}
	if extractor == nil {
		return nil, errors.New("ingest: extractor is required")
	}
	opts = opts.normalized()
	if opts.Dimension <= 0 {
		opts.Dimension = emb.Dimension()
	}
	if opts.Dimension != emb.Dimension() {
		return nil, fmt.Errorf("ingest: index dimension %d differs from embedder dimension %d: %w",
			opts.Dimension, emb.Dimension(), knowledge.ErrDimensionMismatch)
	}
	return &Pipeline{
		store:     store,
		embedder:  emb,
		resolver:  resolver,
		extractor: extractor,
		persister: persist.New(store, opts.kinds(), opts.Dimension),
		opts:      opts,
	}, nil
}

// Run rebuilds the knowledge graph from the source documents. Preflight and reset
// failures abort the run; a failing source is recorded and the next one is processed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	log := logger.FromContext(ctx)
	report := newReport()
	log = log.With("run_id", report.RunID)
	ctx = logger.ContextWithLogger(ctx, log)
	paths, err := p.preflight(ctx)
	if err != nil {
		report.fail(err)
		return report, err
	}
	if err := p.resetAndSeed(ctx); err != nil {
		report.fail(err)
		return report, err
	}
	for i := range p.opts.Sources {
		if ctx.Err() != nil {
			report.fail(ctx.Err())
			return report, ctx.Err()
		}
		src := p.opts.Sources[i]
		report.Sources = append(report.Sources, p.ingestSource(ctx, src, paths[src.Key]))
	}
	if err := p.BuildIndexes(ctx); err != nil {
		log.Error("Vector index build failed", "error", err)
		report.IndexError = err.Error()
	} else {
		report.IndexesBuilt = true
	}
	report.finish()
	log.Info("Ingestion finished",
		"status", report.Status,
		"sources", len(report.Sources),
		"indexes_built", report.IndexesBuilt,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	switch {
	case report.Status == StatusFailure:
		return report, fmt.Errorf("ingest: no source completed")
	case report.Status == StatusPartial && !p.opts.AllowPartial:
		return report, ErrPartialRun
	}
	return report, nil
}

// BuildIndexes creates the vector indexes alone; it is safe to run repeatedly.
func (p *Pipeline) BuildIndexes(ctx context.Context) error {
	return p.call(ctx, "build_indexes", p.persister.BuildIndexes)
}

func (p *Pipeline) preflight(ctx context.Context) (map[string]string, error) {
	paths, err := p.resolver.Resolve(ctx, p.opts.Sources)
	if err != nil {
		return nil, err
	}
	pingCtx := ctx
	if p.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
		defer cancel()
	}
	if err := p.store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: store unreachable: %w", knowledge.ErrPrecondition, err)
	}
	return paths, nil
}

func (p *Pipeline) resetAndSeed(ctx context.Context) error {
	if err := p.call(ctx, "ensure_constraints", p.persister.Prepare); err != nil {
		return err
	}
	if err := p.call(ctx, "reset", p.persister.Reset); err != nil {
		return err
	}
	return p.call(ctx, "seed", func(ctx context.Context) error {
		return p.persister.Seed(ctx, p.opts.regulations(), knowledge.DublinCountries())
	})
}

func (p *Pipeline) ingestSource(ctx context.Context, src knowledge.Source, path string) SourceReport {
	start := time.Now()
	log := logger.FromContext(ctx).With("source", src.Key)
	ctx = logger.ContextWithLogger(ctx, log)
	rep := SourceReport{
		Key:          src.Key,
		RegulationID: src.Regulation.ID,
		Label:        src.Kind.Label,
		Path:         path,
	}
	err := p.processSource(ctx, src, path, &rep)
	rep.Duration = time.Since(start)
	switch {
	case err != nil:
		rep.Status = SourceFailed
		rep.Error = err.Error()
		log.Error("Source ingestion failed", "error", err, "persisted", rep.Persisted)
	case rep.Segmented-rep.Skipped == 0:
		rep.Status = SourceEmpty
		log.Warn("Source produced no units", "pages", rep.Pages)
	default:
		rep.Status = SourceCompleted
		log.Info("Source ingested",
			"segmented", rep.Segmented,
			"skipped", rep.Skipped,
			"persisted", rep.Persisted,
			"duration", rep.Duration,
		)
	}
	knowledge.RecordSourceDuration(ctx, src.Key, rep.Duration)
	knowledge.RecordSourceStatus(ctx, src.Key, string(rep.Status))
	knowledge.RecordUnits(ctx, src.Key, knowledge.UnitOutcomeSegmented, rep.Segmented)
	knowledge.RecordUnits(ctx, src.Key, knowledge.UnitOutcomeSkipped, rep.Skipped)
	knowledge.RecordUnits(ctx, src.Key, knowledge.UnitOutcomeEmbedded, rep.Embedded)
	knowledge.RecordUnits(ctx, src.Key, knowledge.UnitOutcomePersisted, rep.Persisted)
	return rep
}

func (p *Pipeline) processSource(ctx context.Context, src knowledge.Source, path string, rep *SourceReport) error {
	result, err := p.extractor.ExtractFile(ctx, path)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	rep.Pages = len(result.Pages)
	logPDFReadability(ctx, src.Key, result.Stats)
	if result.Truncated {
		logger.FromContext(ctx).Warn("Source text truncated at rune limit", "source", src.Key, "pages", rep.Pages)
	}
	if strings.TrimSpace(result.Text()) == "" {
		return nil
	}
	prepared, err := Prepare(ctx, src, result.Pages)
	if err != nil {
		return err
	}
	rep.Segmented = prepared.Segmented
	rep.Skipped = prepared.Skipped
	units := prepared.Units
	if len(units) == 0 {
		return nil
	}
	embedded, err := p.embedUnits(ctx, units)
	rep.Embedded = embedded
	if err != nil {
		return err
	}
	for i := range units {
		unit := &units[i]
		err := p.call(ctx, "persist", func(ctx context.Context) error {
			return p.persister.Persist(ctx, src.Kind, unit)
		})
		if err != nil {
			return fmt.Errorf("persist unit %s (page %d): %w", unit.ID, unit.Page, err)
		}
		rep.Persisted++
	}
	return nil
}

// embedUnits fills in embeddings one batch per provider call, with at most
// EmbedConcurrency batches in flight. The first failure cancels the remaining batches.
func (p *Pipeline) embedUnits(ctx context.Context, units []knowledge.Unit) (int, error) {
	size := max(p.embedder.BatchSize(), 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.EmbedConcurrency)
	done := make([]bool, len(units))
	for start := 0; start < len(units); start += size {
		batch := units[start:min(start+size, len(units))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Text
			}
			var vectors [][]float32
			err := p.call(gctx, "embed", func(ctx context.Context) error {
				v, err := p.embedder.EmbedDocuments(ctx, texts)
				if err != nil {
					return err
				}
				if len(v) != len(texts) {
					return fmt.Errorf("got %d vectors for %d units", len(v), len(texts))
				}
				for i, vector := range v {
					if len(vector) == 0 {
						return fmt.Errorf("empty vector for unit %s: %w", batch[i].ID, knowledge.ErrEmptyText)
					}
				}
				vectors = v
				return nil
			})
			if err != nil {
				return fmt.Errorf("embed %d units from %s (page %d): %w", len(batch), batch[0].ID, batch[0].Page, err)
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
				done[start+i] = true
			}
			return nil
		})
	}
	err := g.Wait()
	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	return n, err
}
