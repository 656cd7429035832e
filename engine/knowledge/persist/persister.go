package persist

import (
	"context"
	"fmt"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/graphdb"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// Persister writes prepared units and reference data to a graph store.
type Persister struct {
	store     graphdb.Store
	kinds     []knowledge.UnitKind
	dimension int
}

// New builds a persister over store for the given unit kinds.
func New(store graphdb.Store, kinds []knowledge.UnitKind, dimension int) *Persister {
	return &Persister{store: store, kinds: kinds, dimension: dimension}
}

// Prepare creates uniqueness constraints.
func (p *Persister) Prepare(ctx context.Context) error {
	if err := p.store.EnsureConstraints(ctx, p.kinds); err != nil {
		return fmt.Errorf("persist: ensure constraints: %w", err)
	}
	return nil
}

// Reset removes every previously ingested unit together with regulations and countries.
func (p *Persister) Reset(ctx context.Context) error {
	if err := p.store.Reset(ctx, p.kinds); err != nil {
		return fmt.Errorf("persist: reset: %w", err)
	}
	logger.FromContext(ctx).Info("Store reset", "labels", len(p.kinds))
	return nil
}

// Seed upserts the regulation registry and the country reference set.
func (p *Persister) Seed(ctx context.Context, regulations []knowledge.Regulation, countries []knowledge.Country) error {
	for _, reg := range regulations {
		if err := p.store.MergeRegulation(ctx, reg); err != nil {
			return fmt.Errorf("persist: seed: %w", err)
		}
	}
	for _, c := range countries {
		if err := p.store.MergeCountry(ctx, c); err != nil {
			return fmt.Errorf("persist: seed: %w", err)
		}
	}
	logger.FromContext(ctx).Info("Reference data seeded", "regulations", len(regulations), "countries", len(countries))
	return nil
}

// Persist upserts one unit. A unit whose regulation is missing is still written but
// reported as *knowledge.OrphanUnitError.
func (p *Persister) Persist(ctx context.Context, kind knowledge.UnitKind, unit *knowledge.Unit) error {
	if unit.ID == "" {
		return fmt.Errorf("persist: %s unit has no identifier", kind.Label)
	}
	attached, err := p.store.MergeUnit(ctx, kind, unit)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if !attached {
		return &knowledge.OrphanUnitError{Label: kind.Label, UnitID: unit.ID, RegulationID: unit.RegulationID}
	}
	return nil
}

// BuildIndexes creates one cosine vector index per unit kind.
func (p *Persister) BuildIndexes(ctx context.Context) error {
	for _, kind := range p.kinds {
		if err := p.store.EnsureVectorIndex(ctx, kind, p.dimension); err != nil {
			return fmt.Errorf("persist: build index %s: %w", kind.IndexName, err)
		}
	}
	return nil
}

// KindCounts pairs a unit kind with its stored counts.
type KindCounts struct {
	Kind   knowledge.UnitKind
	Counts graphdb.Counts
}

// Counts reports stored units per kind.
func (p *Persister) Counts(ctx context.Context) ([]KindCounts, error) {
	out := make([]KindCounts, 0, len(p.kinds))
	for _, kind := range p.kinds {
		c, err := p.store.Count(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("persist: count %s: %w", kind.Label, err)
		}
		out = append(out, KindCounts{Kind: kind, Counts: c})
	}
	return out, nil
}
