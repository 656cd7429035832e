package embedder

import (
	"github.com/thotab13/RAG-Chatbot-for-Refugee-Assistance-MigrantNav/pkg/config"
)

// Provider names a supported embedding backend.
type Provider string

const (
	ProviderOllama   Provider = "ollama"
	ProviderOpenAI   Provider = "openai"
	ProviderGoogleAI Provider = "googleai"
)

// Config describes an embedder instance.
type Config struct {
	ID            string
	Provider      Provider
	Model         string
	BaseURL       string
	APIKey        string
	Dimension     int
	BatchSize     int
	StripNewLines bool
}

// ConfigFrom maps the application configuration onto an adapter config.
func ConfigFrom(cfg *config.EmbedderConfig) *Config {
	return &Config{
		ID:            string(cfg.Provider) + ":" + cfg.Model,
		Provider:      Provider(cfg.Provider),
		Model:         cfg.Model,
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey.Value(),
		Dimension:     cfg.Dimension,
		BatchSize:     cfg.BatchSize,
		StripNewLines: cfg.StripNewLines,
	}
}
