// Package embedding implements core.EmbeddingProvider adapters. Every
// provider failure degrades scoring to the rule path, so adapters report
// errors and never panic.
package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/utils"
)

// OpenAIProvider produces embeddings through the OpenAI embeddings API
type OpenAIProvider struct {
	client        *openai.Client
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(
	apiKey string,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &OpenAIProvider{
		client:        openai.NewClient(apiKey),
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Embed returns the embedding vector for a text window
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := p.textProcessor.ProcessText(text, p.maxBodySize)

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{processed},
		Model: openai.EmbeddingModel(p.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response from OpenAI")
	}

	p.logger.Debug("Embedding created",
		zap.String("provider", "openai"),
		zap.String("model", p.modelName),
		zap.Int("dimensions", len(resp.Data[0].Embedding)))
	return resp.Data[0].Embedding, nil
}
