package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder embeds text through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder using the given API key and model.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Embed returns the embedding vector for a single text string.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	response, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	vector := make([]float32, len(response.Data[0].Embedding))
	for i, v := range response.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Provider hands out a single lazily-created embedder. Construction is
// deferred so that reviews which fail validation never touch the network.
type Provider struct {
	once     sync.Once
	embedder Embedder
	build    func() Embedder
}

// NewProvider creates a Provider that builds its embedder on first use.
func NewProvider(build func() Embedder) *Provider {
	return &Provider{build: build}
}

// Get returns the memoized embedder, constructing it on first call.
func (p *Provider) Get() Embedder {
	p.once.Do(func() {
		p.embedder = p.build()
	})
	return p.embedder
}
