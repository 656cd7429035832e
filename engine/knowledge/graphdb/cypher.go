package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

const (
	regulationLabel = "Regulation"
	countryLabel    = "Country"
)

type cypherStore struct {
	runner Runner
}

// NewCypherStore builds a Store issuing Cypher through runner.
func NewCypherStore(runner Runner) Store {
	return &cypherStore{runner: runner}
}

func (s *cypherStore) Ping(ctx context.Context) error {
	return s.runner.Verify(ctx)
}

func (s *cypherStore) EnsureConstraints(ctx context.Context, kinds []knowledge.UnitKind) error {
	stmts := []string{
		uniqueConstraint(regulationLabel, "id"),
		uniqueConstraint(countryLabel, "code"),
	}
	for _, kind := range kinds {
		if err := checkKind(kind); err != nil {
			return err
		}
		stmts = append(stmts, uniqueConstraint(kind.Label, "id"))
	}
	for _, stmt := range stmts {
		if _, err := s.runner.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("neo4j: ensure constraint: %w", err)
		}
	}
	return nil
}

func uniqueConstraint(label, property string) string {
	name := strings.ToLower(label) + "_" + property + "_unique"
	return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE", name, label, property)
}

func (s *cypherStore) Reset(ctx context.Context, kinds []knowledge.UnitKind) error {
	labels := make([]string, 0, len(kinds)+2)
	for _, kind := range kinds {
		if err := checkKind(kind); err != nil {
			return err
		}
		labels = append(labels, kind.Label)
	}
	labels = append(labels, regulationLabel, countryLabel)
	for _, label := range labels {
		if _, err := s.runner.Run(ctx, fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", label), nil); err != nil {
			return fmt.Errorf("neo4j: reset %s: %w", label, err)
		}
	}
	return nil
}

const mergeRegulationStmt = `MERGE (r:Regulation {id: $id})
SET r.name = $name,
    r.jurisdiction = $jurisdiction,
    r.valid_from = $valid_from,
    r.is_guidance = $is_guidance`

func (s *cypherStore) MergeRegulation(ctx context.Context, reg knowledge.Regulation) error {
	_, err := s.runner.Run(ctx, mergeRegulationStmt, map[string]any{
		"id":           reg.ID,
		"name":         reg.Name,
		"jurisdiction": string(reg.Jurisdiction),
		"valid_from":   reg.ValidFrom,
		"is_guidance":  reg.IsGuidance,
	})
	if err != nil {
		return fmt.Errorf("neo4j: merge regulation %s: %w", reg.ID, err)
	}
	return nil
}

const mergeCountryStmt = `MERGE (c:Country {code: $code})
SET c.jurisdiction = $jurisdiction,
    c.is_dublin_applicable = $is_dublin_applicable`

func (s *cypherStore) MergeCountry(ctx context.Context, country knowledge.Country) error {
	_, err := s.runner.Run(ctx, mergeCountryStmt, map[string]any{
		"code":                 country.Code,
		"jurisdiction":         string(country.Jurisdiction),
		"is_dublin_applicable": country.DublinApplicable,
	})
	if err != nil {
		return fmt.Errorf("neo4j: merge country %s: %w", country.Code, err)
	}
	return nil
}

func mergeUnitStmt(kind knowledge.UnitKind) string {
	return fmt.Sprintf(`MERGE (u:%s {id: $id})
SET u += $props, u.embedding = $embedding
WITH u
MATCH (r:Regulation {id: $regulation_id})
MERGE (r)-[:%s]->(u)
RETURN count(r) AS attached`, kind.Label, kind.Relationship)
}

func (s *cypherStore) MergeUnit(ctx context.Context, kind knowledge.UnitKind, unit *knowledge.Unit) (bool, error) {
	if err := checkKind(kind); err != nil {
		return false, err
	}
	rows, err := s.runner.Run(ctx, mergeUnitStmt(kind), map[string]any{
		"id":            unit.ID,
		"props":         unit.Properties(kind),
		"embedding":     toFloat64(unit.Embedding),
		"regulation_id": unit.RegulationID,
	})
	if err != nil {
		return false, fmt.Errorf("neo4j: merge %s %s: %w", kind.Label, unit.ID, err)
	}
	if len(rows) == 0 {
		return false, nil
	}
	return toInt64(rows[0]["attached"]) > 0, nil
}

func (s *cypherStore) EnsureVectorIndex(ctx context.Context, kind knowledge.UnitKind, dimension int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE VECTOR INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.embedding) "+
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		kind.IndexName, kind.Label, dimension)
	if _, err := s.runner.Run(ctx, stmt, nil); err != nil {
		return fmt.Errorf("neo4j: create vector index %s: %w", kind.IndexName, err)
	}
	return nil
}

func (s *cypherStore) Count(ctx context.Context, kind knowledge.UnitKind) (Counts, error) {
	if err := checkKind(kind); err != nil {
		return Counts{}, err
	}
	nodes, err := s.scalar(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS total", kind.Label))
	if err != nil {
		return Counts{}, fmt.Errorf("neo4j: count %s: %w", kind.Label, err)
	}
	rels, err := s.scalar(ctx, fmt.Sprintf(
		"MATCH (:Regulation)-[r:%s]->(:%s) RETURN count(r) AS total", kind.Relationship, kind.Label))
	if err != nil {
		return Counts{}, fmt.Errorf("neo4j: count %s relationships: %w", kind.Label, err)
	}
	return Counts{Nodes: nodes, Relationships: rels}, nil
}

func (s *cypherStore) CountReference(ctx context.Context) (ReferenceCounts, error) {
	regs, err := s.scalar(ctx, "MATCH (n:Regulation) RETURN count(n) AS total")
	if err != nil {
		return ReferenceCounts{}, fmt.Errorf("neo4j: count regulations: %w", err)
	}
	countries, err := s.scalar(ctx, "MATCH (n:Country) RETURN count(n) AS total")
	if err != nil {
		return ReferenceCounts{}, fmt.Errorf("neo4j: count countries: %w", err)
	}
	return ReferenceCounts{Regulations: regs, Countries: countries}, nil
}

func (s *cypherStore) scalar(ctx context.Context, stmt string) (int64, error) {
	rows, err := s.runner.Run(ctx, stmt, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["total"]), nil
}

func (s *cypherStore) LookupTexts(
	ctx context.Context,
	kind knowledge.UnitKind,
	property string,
	value any,
) ([]string, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if err := checkName("property", property); err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf("MATCH (u:%s {%s: $value}) RETURN u.text AS text ORDER BY u.page ASC", kind.Label, property)
	rows, err := s.runner.Run(ctx, stmt, map[string]any{"value": value})
	if err != nil {
		return nil, fmt.Errorf("neo4j: lookup %s.%s: %w", kind.Label, property, err)
	}
	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		if text, ok := row["text"].(string); ok {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

const searchStmt = `CALL db.index.vector.queryNodes($index, $k, $vector) YIELD node, score
RETURN node.id AS id, node.text AS text, node.page AS page, score
ORDER BY score DESC`

func (s *cypherStore) Search(
	ctx context.Context,
	kind knowledge.UnitKind,
	vector []float32,
	k int,
) ([]Match, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = defaultTopK
	}
	rows, err := s.runner.Run(ctx, searchStmt, map[string]any{
		"index":  kind.IndexName,
		"k":      k,
		"vector": toFloat64(vector),
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: search %s: %w", kind.IndexName, err)
	}
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		text, _ := row["text"].(string)
		score, _ := row["score"].(float64)
		matches = append(matches, Match{ID: id, Text: text, Page: int(toInt64(row["page"])), Score: score})
	}
	return matches, nil
}

func (s *cypherStore) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

const defaultTopK = 5

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
