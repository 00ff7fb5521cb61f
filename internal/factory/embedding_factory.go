// Package factory builds concrete adapters from configuration, keeping the
// wiring choices out of the engine itself.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/adapters/embedding"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
)

// EmbeddingFactory creates embedding providers
type EmbeddingFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEmbeddingFactory creates a new embedding factory
func NewEmbeddingFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *EmbeddingFactory {
	return &EmbeddingFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateEmbeddingProvider creates an embedding provider based on the configuration
func (f *EmbeddingFactory) CreateEmbeddingProvider() (core.EmbeddingProvider, error) {
	embeddingCfg := f.cfg.GetEmbedding()

	switch embeddingCfg.Provider {
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		return embedding.NewOpenAIProvider(
			openaiCfg.APIKey,
			openaiCfg.ModelName,
			embeddingCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		)
	case "gemini":
		geminiCfg := f.cfg.GetGemini()
		return embedding.NewGeminiProvider(
			geminiCfg.APIKey,
			geminiCfg.ModelName,
			embeddingCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		)
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		return embedding.NewBedrockProvider(
			context.Background(),
			bedrockCfg.Region,
			bedrockCfg.ModelID,
			embeddingCfg.MaxBodySize,
			f.logger,
			f.textProcessor,
		)
	case "none":
		return embedding.NewNoneProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", embeddingCfg.Provider)
	}
}
