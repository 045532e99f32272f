package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// StoreConfig selects the retrieval backends.
type StoreConfig struct {
	// VectorBackend is "postgres" or "milvus".
	VectorBackend string `koanf:"vector_backend" validate:"oneof=postgres milvus"`
	// KeywordBackend is "postgres" or "bleve".
	KeywordBackend string `koanf:"keyword_backend" validate:"oneof=postgres bleve"`
}

// PostgresConfig configures the pgx connection pool.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"ssl_mode"`
}

// ConnectionString renders the pool DSN.
func (c PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// MilvusConfig configures the alternate Milvus vector backend.
type MilvusConfig struct {
	Address    string `koanf:"address"`
	Collection string `koanf:"collection"`
	MetricType string `koanf:"metric_type"`
	SearchEf   int    `koanf:"search_ef"`
}

// BleveConfig configures the local keyword index.
type BleveConfig struct {
	Path string `koanf:"path"` // Empty means in-memory
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string `koanf:"provider" validate:"oneof=openai local"`
	APIKey    string `koanf:"api_key"`
	Model     string `koanf:"model"`
	CacheSize int    `koanf:"cache_size" validate:"gt=0"`
	// BatchConcurrency bounds concurrent batch-embedding calls.
	BatchConcurrency int `koanf:"batch_concurrency" validate:"gt=0,lte=16"`
}

// ScoringConfig holds the empirically chosen ranking constants. They are
// overridable for experiments but behavioral parity with existing citation
// consumers depends on the defaults, so deployments should not change them
// casually.
type ScoringConfig struct {
	// Enhanced document scoring blend (§ document aggregation).
	MaxWeight      float64 `koanf:"max_weight" validate:"gte=0,lte=1"`
	AvgWeight      float64 `koanf:"avg_weight" validate:"gte=0,lte=1"`
	PositionWeight float64 `koanf:"position_weight" validate:"gte=0,lte=1"`

	// Position decay: weight = max(floor, 1 - index*decay).
	PositionDecay float64 `koanf:"position_decay" validate:"gte=0,lte=1"`
	PositionFloor float64 `koanf:"position_floor" validate:"gte=0,lte=1"`

	// Diversity bonus: min(cap, chunks*perChunk).
	DiversityPerChunk float64 `koanf:"diversity_per_chunk" validate:"gte=0,lte=1"`
	DiversityCap      float64 `koanf:"diversity_cap" validate:"gte=0,lte=1"`

	// Hybrid fusion weights, expected to sum to 1.
	VectorWeight  float64 `koanf:"vector_weight" validate:"gte=0,lte=1"`
	KeywordWeight float64 `koanf:"keyword_weight" validate:"gte=0,lte=1"`

	// Placeholder relevance for keyword hits without a numeric rank.
	KeywordPlaceholder float64 `koanf:"keyword_placeholder" validate:"gte=0,lte=1"`
}

// ThresholdConfig holds the dynamic similarity threshold policy.
type ThresholdConfig struct {
	Base float64 `koanf:"base" validate:"gte=0,lte=1"`
	// ShortQueryBoost is added for 1-2 token queries. Kept at 0 by default
	// so short queries resolve to the base threshold.
	ShortQueryBoost float64 `koanf:"short_query_boost" validate:"gte=0,lte=0.05"`
	// LongQueryRelief is subtracted for queries of 5+ tokens.
	LongQueryRelief float64 `koanf:"long_query_relief" validate:"gte=0,lte=1"`
	Min             float64 `koanf:"min" validate:"gte=0,lte=1"`
	Max             float64 `koanf:"max" validate:"gte=0,lte=1"`
}

// ExpansionConfig configures query expansion and embedding fusion.
type ExpansionConfig struct {
	// MaxVariants caps the expansion list, original included.
	MaxVariants int `koanf:"max_variants" validate:"gt=0,lte=8"`
	// OriginalWeight must stay strictly greater than any expansion weight.
	OriginalWeight float64 `koanf:"original_weight" validate:"gt=0"`
	// BaseWeight is scaled by the per-variant confidence boost.
	BaseWeight float64 `koanf:"base_weight" validate:"gt=0"`
}

// SearchConfig groups the runtime knobs of the search pipeline.
type SearchConfig struct {
	DefaultLimit int           `koanf:"default_limit" validate:"gt=0,lte=100"`
	MaxLimit     int           `koanf:"max_limit" validate:"gt=0,lte=100"`
	CacheSize    int           `koanf:"cache_size" validate:"gt=0"`
	CacheTTL     time.Duration `koanf:"cache_ttl" validate:"gt=0"`
	// TopChunks retained per document for the excerpt.
	TopChunks int `koanf:"top_chunks" validate:"gt=0"`
	// ExcerptLength bounds keyword excerpt windows, in characters.
	ExcerptLength int `koanf:"excerpt_length" validate:"gt=0"`
	// LegTimeout bounds each external retrieval call.
	LegTimeout time.Duration `koanf:"leg_timeout" validate:"gt=0"`
}

// Config is the root configuration.
type Config struct {
	LogLevel  string          `koanf:"log_level"`
	Store     StoreConfig     `koanf:"store"`
	Postgres  PostgresConfig  `koanf:"postgres"`
	Milvus    MilvusConfig    `koanf:"milvus"`
	Bleve     BleveConfig     `koanf:"bleve"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Threshold ThresholdConfig `koanf:"threshold"`
	Expansion ExpansionConfig `koanf:"expansion"`
	Search    SearchConfig    `koanf:"search"`
}

// Default returns the configuration with every scoring constant at its
// documented value.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			VectorBackend:  "postgres",
			KeywordBackend: "postgres",
		},
		Postgres: PostgresConfig{
			Host:     "127.0.0.1",
			Port:     "5432",
			User:     "docsearch",
			Database: "docsearch",
			SSLMode:  "disable",
		},
		Milvus: MilvusConfig{
			Address:    "localhost:19530",
			Collection: "chunks",
			MetricType: "COSINE",
			SearchEf:   64,
		},
		Embedding: EmbeddingConfig{
			Provider:         "openai",
			Model:            "text-embedding-3-small",
			CacheSize:        10000,
			BatchConcurrency: 4,
		},
		Scoring: ScoringConfig{
			MaxWeight:          0.5,
			AvgWeight:          0.3,
			PositionWeight:     0.2,
			PositionDecay:      0.1,
			PositionFloor:      0.3,
			DiversityPerChunk:  0.05,
			DiversityCap:       0.2,
			VectorWeight:       0.7,
			KeywordWeight:      0.3,
			KeywordPlaceholder: 0.5,
		},
		Threshold: ThresholdConfig{
			Base:            0.3,
			ShortQueryBoost: 0.0,
			LongQueryRelief: 0.1,
			Min:             0.2,
			Max:             0.8,
		},
		Expansion: ExpansionConfig{
			MaxVariants:    5,
			OriginalWeight: 1.0,
			BaseWeight:     0.5,
		},
		Search: SearchConfig{
			DefaultLimit:  10,
			MaxLimit:      100,
			CacheSize:     1000,
			CacheTTL:      5 * time.Minute,
			TopChunks:     3,
			ExcerptLength: 500,
			LegTimeout:    10 * time.Second,
		},
	}
}

// EnvPrefix for environment overrides. Double underscores separate nesting
// levels, e.g. DOCSEARCH_POSTGRES__HOST sets postgres.host.
const EnvPrefix = "DOCSEARCH_"

// Load reads the optional yaml file at path, applies environment overrides
// and validates the result. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate runs struct validation plus the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			var sb strings.Builder
			sb.WriteString("config validation failed:")
			for _, e := range errs {
				sb.WriteString(fmt.Sprintf(" %s=%v fails %q;", e.Namespace(), e.Value(), e.Tag()))
			}
			return fmt.Errorf("%s", sb.String())
		}
		return err
	}

	if c.Threshold.Min > c.Threshold.Max {
		return fmt.Errorf("threshold min %.2f exceeds max %.2f", c.Threshold.Min, c.Threshold.Max)
	}
	if c.Expansion.OriginalWeight <= c.Expansion.BaseWeight {
		return fmt.Errorf("expansion original weight %.2f must exceed base weight %.2f",
			c.Expansion.OriginalWeight, c.Expansion.BaseWeight)
	}
	if sum := c.Scoring.VectorWeight + c.Scoring.KeywordWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("fusion weights must sum to 1, got %.3f", sum)
	}
	return nil
}
