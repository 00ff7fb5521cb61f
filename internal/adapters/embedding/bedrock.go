package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/utils"
)

// BedrockProvider produces embeddings through Amazon Bedrock Titan models
type BedrockProvider struct {
	client        *bedrockruntime.Client
	modelID       string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// titanEmbedRequest is the request body for Titan embedding models
type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

// titanEmbedResponse is the response body for Titan embedding models
type titanEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewBedrockProvider creates a new Bedrock embedding provider
func NewBedrockProvider(
	ctx context.Context,
	region string,
	modelID string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*BedrockProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &BedrockProvider{
		client:        bedrockruntime.NewFromConfig(awsCfg),
		modelID:       modelID,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Embed returns the embedding vector for a text window
func (p *BedrockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	processed := p.textProcessor.ProcessText(text, p.maxBodySize)

	payload, err := json.Marshal(titanEmbedRequest{InputText: processed})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &p.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var embedResp titanEmbedResponse
	if err := json.Unmarshal(resp.Body, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Titan response: %w", err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response from Bedrock")
	}

	p.logger.Debug("Embedding created",
		zap.String("provider", "bedrock"),
		zap.String("model", p.modelID),
		zap.Int("dimensions", len(embedResp.Embedding)))
	return embedResp.Embedding, nil
}
