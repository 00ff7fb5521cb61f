package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/mail-triage/internal/utils"
)

// GeminiProvider produces embeddings through the Google Gemini API
type GeminiProvider struct {
	client        *genai.Client
	model         *genai.EmbeddingModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiProvider creates a new Gemini embedding provider
func NewGeminiProvider(
	apiKey string,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:        client,
		model:         client.EmbeddingModel(modelName),
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Embed returns the embedding vector for a text window
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := p.textProcessor.ProcessText(text, p.maxBodySize)

	res, err := p.model.EmbedContent(ctx, genai.Text(processed))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding response from Gemini")
	}

	p.logger.Debug("Embedding created",
		zap.String("provider", "gemini"),
		zap.String("model", p.modelName),
		zap.Int("dimensions", len(res.Embedding.Values)))
	return res.Embedding.Values, nil
}

// Close closes the Gemini client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
