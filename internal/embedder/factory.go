package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/gruenerator/docsearch-mcp/internal/config"
)

// EnvOpenAIAPIKey is consulted when the config carries no key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// New creates an embedder from configuration.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv(EnvOpenAIAPIKey)
		}
		return NewOpenAIProvider(key, cfg.Model, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNoProviderEnabled, cfg.Provider)
	}
}
