package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultOpenAIModel = "text-embedding-3-small"

	OpenAIDimension = 1536
	LocalDimension  = 384
)

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// OpenAIProvider implements Embedder using the official OpenAI SDK.
type OpenAIProvider struct {
	client openai.Client
	model  string
	cache  *Cache
	retry  RetryConfig
}

// NewOpenAIProvider creates an OpenAI embedder.
func NewOpenAIProvider(apiKey, model string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OpenAI API key", ErrNoProviderEnabled)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		cache:  cache,
		retry:  DefaultRetryConfig(),
	}, nil
}

func (o *OpenAIProvider) EmbedQuery(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if emb, ok := o.cache.Get(hash); ok {
			return emb, nil
		}
	}

	res, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	retained := res.Retained()
	if len(retained) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return retained[0], nil
}

func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	embeddings, err := retryWithBackoff(ctx, o.retry, func() ([]*Embedding, error) {
		return o.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, o.retry.MaxRetries, err)
	}

	if o.cache != nil {
		for i, emb := range embeddings {
			if emb == nil {
				continue
			}
			hash := ComputeHash(texts[i])
			emb.Hash = hash
			o.cache.Set(hash, emb)
		}
	}

	return &BatchResult{
		Embeddings: embeddings,
		Provider:   ProviderOpenAI,
		Model:      o.model,
	}, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	reqBody := openAIEmbeddingRequest{Model: o.model, Input: texts}
	var out openAIEmbeddingResponse
	if err := o.client.Post(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, fmt.Errorf("embeddings call: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embeddings call: %s", out.Error.Message)
	}

	// The API indexes its data array by input position; missing positions
	// stay nil so callers can drop them.
	embeddings := make([]*Embedding, len(texts))
	for _, data := range out.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			log.Warn().Int("index", data.Index).Msg("embedding index out of range, dropped")
			continue
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = &Embedding{
			Vector:    vec,
			Dimension: len(vec),
			Provider:  ProviderOpenAI,
			Model:     out.Model,
		}
	}
	return embeddings, nil
}

func (o *OpenAIProvider) Dimension() int { return OpenAIDimension }

func (o *OpenAIProvider) Provider() string { return ProviderOpenAI }

func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) Close() error { return nil }

// LocalProvider produces deterministic hash-derived vectors. It exists for
// offline development and hermetic tests; the vectors have no semantic
// meaning.
type LocalProvider struct {
	model string
	cache *Cache
}

// NewLocalProvider creates the local deterministic embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{model: "local-embeddings", cache: cache}, nil
}

func (l *LocalProvider) EmbedQuery(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	vector := make([]float32, LocalDimension)
	sum := sha256.Sum256([]byte(text))
	for i := 0; i < LocalDimension; i++ {
		vector[i] = float32(sum[i%len(sum)]) / 255.0
	}

	emb := &Embedding{
		Vector:    vector,
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}
	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchResult{
		Embeddings: embeddings,
		Provider:   ProviderLocal,
		Model:      l.model,
	}, nil
}

func (l *LocalProvider) Dimension() int { return LocalDimension }

func (l *LocalProvider) Provider() string { return ProviderLocal }

func (l *LocalProvider) Model() string { return l.model }

func (l *LocalProvider) Close() error { return nil }
