package ingest

import (
	"time"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

// Options controls ingestion execution details.
type Options struct {
	// Sources defaults to knowledge.Sources().
	Sources []knowledge.Source
	// Dimension is the vector index dimension.
	Dimension        int
	CallTimeout      time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration
	RetryMaxBackoff  time.Duration
	EmbedConcurrency int
	// AllowPartial makes Run return a nil error for partial runs.
	AllowPartial bool
}

// OptionsFrom maps application config onto pipeline options.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Dimension:        cfg.Embedder.Dimension,
		CallTimeout:      cfg.Ingest.CallTimeout,
		RetryAttempts:    cfg.Ingest.RetryAttempts,
		RetryBackoff:     cfg.Ingest.RetryBackoff,
		RetryMaxBackoff:  cfg.Ingest.RetryMaxBackoff,
		EmbedConcurrency: cfg.Ingest.EmbedConcurrency,
		AllowPartial:     cfg.Ingest.AllowPartial,
	}
}

func (o Options) normalized() Options {
	if len(o.Sources) == 0 {
		o.Sources = knowledge.Sources()
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 100 * time.Millisecond
	}
	if o.RetryMaxBackoff < o.RetryBackoff {
		o.RetryMaxBackoff = o.RetryBackoff
	}
	if o.EmbedConcurrency <= 0 {
		o.EmbedConcurrency = 1
	}
	return o
}

func (o Options) kinds() []knowledge.UnitKind {
	out := make([]knowledge.UnitKind, 0, len(o.Sources))
	for i := range o.Sources {
		out = append(out, o.Sources[i].Kind)
	}
	return out
}

func (o Options) regulations() []knowledge.Regulation {
	out := make([]knowledge.Regulation, 0, len(o.Sources))
	for i := range o.Sources {
		out = append(out, o.Sources[i].Regulation)
	}
	return out
}
