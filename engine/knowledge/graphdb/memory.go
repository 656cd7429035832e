package graphdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

type memoryUnit struct {
	props     map[string]any
	text      string
	page      int
	embedding []float32
}

type memoryLink struct {
	regulationID string
	relationship string
}

// memoryStore keeps the graph in process. It backs dry runs and tests.
type memoryStore struct {
	mu          sync.RWMutex
	dimension   int
	regulations map[string]knowledge.Regulation
	countries   map[string]knowledge.Country
	units       map[string]map[string]memoryUnit
	links       map[string]map[string]memoryLink
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore(dimension int) Store {
	return &memoryStore{
		dimension:   dimension,
		regulations: make(map[string]knowledge.Regulation),
		countries:   make(map[string]knowledge.Country),
		units:       make(map[string]map[string]memoryUnit),
		links:       make(map[string]map[string]memoryLink),
	}
}

func (s *memoryStore) Ping(context.Context) error {
	return nil
}

func (s *memoryStore) EnsureConstraints(_ context.Context, kinds []knowledge.UnitKind) error {
	for _, kind := range kinds {
		if err := checkKind(kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) Reset(_ context.Context, kinds []knowledge.UnitKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range kinds {
		delete(s.units, kind.Label)
	}
	// Removing regulations detaches every unit, reset or not.
	s.regulations = make(map[string]knowledge.Regulation)
	s.countries = make(map[string]knowledge.Country)
	s.links = make(map[string]map[string]memoryLink)
	return nil
}

func (s *memoryStore) MergeRegulation(_ context.Context, reg knowledge.Regulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regulations[reg.ID] = reg
	return nil
}

func (s *memoryStore) MergeCountry(_ context.Context, country knowledge.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[country.Code] = country
	return nil
}

func (s *memoryStore) MergeUnit(_ context.Context, kind knowledge.UnitKind, unit *knowledge.Unit) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	if len(unit.Embedding) > 0 && len(unit.Embedding) != s.dimension {
		return false, fmt.Errorf("memory: unit %q got %d values, want %d: %w",
			unit.ID, len(unit.Embedding), s.dimension, knowledge.ErrDimensionMismatch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.units[kind.Label] == nil {
		s.units[kind.Label] = make(map[string]memoryUnit)
	}
	s.units[kind.Label][unit.ID] = memoryUnit{
		props:     unit.Properties(kind),
		text:      unit.Text,
		page:      unit.Page,
		embedding: append([]float32(nil), unit.Embedding...),
	}
	if _, ok := s.regulations[unit.RegulationID]; !ok {
		return false, nil
	}
	if s.links[kind.Label] == nil {
		s.links[kind.Label] = make(map[string]memoryLink)
	}
	if _, ok := s.links[kind.Label][unit.ID]; !ok {
		s.links[kind.Label][unit.ID] = memoryLink{regulationID: unit.RegulationID, relationship: kind.Relationship}
	}
	return true, nil
}

func (s *memoryStore) EnsureVectorIndex(_ context.Context, kind knowledge.UnitKind, dimension int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if dimension != s.dimension {
		return fmt.Errorf("memory: index %s wants %d dimensions, store has %d: %w",
			kind.IndexName, dimension, s.dimension, knowledge.ErrDimensionMismatch)
	}
	return nil
}

func (s *memoryStore) Count(_ context.Context, kind knowledge.UnitKind) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rels int64
	for _, link := range s.links[kind.Label] {
		if link.relationship == kind.Relationship {
			rels++
		}
	}
	return Counts{Nodes: int64(len(s.units[kind.Label])), Relationships: rels}, nil
}

func (s *memoryStore) CountReference(context.Context) (ReferenceCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ReferenceCounts{Regulations: int64(len(s.regulations)), Countries: int64(len(s.countries))}, nil
}

func (s *memoryStore) LookupTexts(
	_ context.Context,
	kind knowledge.UnitKind,
	property string,
	value any,
) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []memoryUnit
	for _, u := range s.units[kind.Label] {
		if v, ok := u.props[property]; ok && fmt.Sprint(v) == fmt.Sprint(value) {
			found = append(found, u)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].page == found[j].page {
			return found[i].text < found[j].text
		}
		return found[i].page < found[j].page
	})
	texts := make([]string, 0, len(found))
	for _, u := range found {
		texts = append(texts, u.text)
	}
	return texts, nil
}

func (s *memoryStore) Search(_ context.Context, kind knowledge.UnitKind, vector []float32, k int) ([]Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("memory: query has %d values, want %d: %w",
			len(vector), s.dimension, knowledge.ErrDimensionMismatch)
	}
	if k <= 0 {
		k = defaultTopK
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]Match, 0, len(s.units[kind.Label]))
	for id, u := range s.units[kind.Label] {
		if len(u.embedding) == 0 {
			continue
		}
		matches = append(matches, Match{
			ID:    id,
			Text:  u.text,
			Page:  u.page,
			Score: cosineSimilarity(u.embedding, vector),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}
