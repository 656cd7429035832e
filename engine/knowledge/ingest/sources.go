package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/classify"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/ident"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge/segment"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/pdftext"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/logger"
)

// Extractor reads page texts from a source document.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (pdftext.Result, error)
}

// Resolver maps sources to readable local files.
type Resolver interface {
	Resolve(ctx context.Context, sources []knowledge.Source) (map[string]string, error)
}

// Prepared is the outcome of segmenting, classifying and identifying one source.
type Prepared struct {
	Units     []knowledge.Unit
	Segmented int
	Skipped   int
}

// Prepare turns extracted pages into identified units without touching the embedder
// or the store. Blank units and unparseable article references are skipped.
func Prepare(ctx context.Context, src knowledge.Source, pages []pdftext.Page) (Prepared, error) {
	seg, err := segment.New(src.Segmentation)
	if err != nil {
		return Prepared{}, fmt.Errorf("ingest: %s: %w", src.Key, err)
	}
	var vocab classify.Vocabulary
	if src.Segmentation.Topics == knowledge.TopicVocabulary {
		if vocab, err = classify.Lookup(src.Segmentation.Vocabulary); err != nil {
			return Prepared{}, fmt.Errorf("ingest: %s: %w", src.Key, err)
		}
	}
	in := make([]segment.Page, len(pages))
	for i, p := range pages {
		in[i] = segment.Page{Number: p.Number, Text: p.Text}
	}
	pieces := seg.Split(in)
	out := Prepared{Units: make([]knowledge.Unit, 0, len(pieces)), Segmented: len(pieces)}
	log := logger.FromContext(ctx)
	for i := range pieces {
		unit, err := buildUnit(src, &pieces[i], vocab)
		if err != nil {
			log.Debug("Unit skipped", "source", src.Key, "page", pieces[i].Page, "reason", err)
			out.Skipped++
			continue
		}
		out.Units = append(out.Units, unit)
	}
	return out, nil
}

func buildUnit(src knowledge.Source, piece *segment.Unit, vocab classify.Vocabulary) (knowledge.Unit, error) {
	if strings.TrimSpace(piece.Text) == "" {
		return knowledge.Unit{}, knowledge.ErrEmptyText
	}
	unit := knowledge.Unit{
		RegulationID: src.Regulation.ID,
		Source:       src.File,
		Page:         piece.Page,
		Jurisdiction: src.Regulation.Jurisdiction,
		ValidFrom:    src.Regulation.ValidFrom,
		Text:         piece.Text,
	}
	if src.Kind.NumberProperty != "" {
		ref, err := knowledge.ParseArticleRef(piece.Article, src.Kind)
		if err != nil {
			return knowledge.Unit{}, err
		}
		unit.ArticleNumber = ref.Number
		unit.ArticleLabel = ref.Label
	}
	switch src.Segmentation.Topics {
	case knowledge.TopicVocabulary:
		unit.Topic = vocab.Classify(piece.Text)
	case knowledge.TopicArticleMentions:
		unit.Topic = piece.Topic
	}
	if src.Kind.TopicTagged {
		unit.ID = ident.OfTopic(unit.Text, unit.Topic)
	} else {
		unit.ID = ident.Of(unit.Text)
	}
	return unit, nil
}

func logPDFReadability(ctx context.Context, source string, stats pdftext.Stats) {
	issues := stats.Issues()
	if len(issues) == 0 {
		return
	}
	logger.FromContext(ctx).Warn(
		"PDF extraction readability issues",
		"source", source,
		"issues", strings.Join(issues, ", "),
		"space_ratio", stats.SpaceRatio,
		"avg_word_length", stats.AverageWordLength,
		"empty_pages", stats.EmptyPages,
	)
}
