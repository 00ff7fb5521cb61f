package embedding

import (
	"context"

	"github.com/mikey/mail-triage/internal/core"
)

// NoneProvider is the rule-only provider: it never produces a vector, so
// the engine always takes the pure rule path and reports
// used_classifier=false.
type NoneProvider struct{}

// NewNoneProvider creates the rule-only embedding provider
func NewNoneProvider() *NoneProvider {
	return &NoneProvider{}
}

// Embed always reports the embedding as unavailable
func (p *NoneProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, core.ErrEmbeddingUnavailable
}
