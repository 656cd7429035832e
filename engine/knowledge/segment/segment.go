package segment

import (
	"fmt"

	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/engine/knowledge"
)

// New builds the segmenter configured for a source.
func New(cfg knowledge.Segmentation) (Segmenter, error) {
	switch cfg.Strategy {
	case knowledge.StrategyArticles:
		return ArticleSplitter{}, nil
	case knowledge.StrategyWindows:
		return NewWindower(cfg.Size, cfg.Overlap, cfg.MinLength, cfg.Topics == knowledge.TopicArticleMentions)
	default:
		return nil, fmt.Errorf("segment: unknown strategy %q", cfg.Strategy)
	}
}
