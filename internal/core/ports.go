package core

import (
	"context"
)

// Annotator produces the token/entity annotation for a scoring window.
type Annotator interface {
	// Annotate runs the text pipeline over a short text window.
	Annotate(text string) (*Annotation, error)
}

// SettingsProvider reads keyword sets, scoring thresholds and the VIP sender
// registry. Persistence and the editing UI belong to the surrounding system;
// this engine treats every read as an immutable snapshot.
type SettingsProvider interface {
	// KeywordConfiguration returns the keyword sets for a user/account,
	// or ErrConfigurationMissing.
	KeywordConfiguration(ctx context.Context, userID, accountID string) (*KeywordConfiguration, error)

	// ScoringConfiguration returns the thresholds and point values for a
	// user/account, or ErrConfigurationMissing.
	ScoringConfiguration(ctx context.Context, userID, accountID string) (*ScoringConfiguration, error)

	// VIPSenders returns the VIP sender registry for a user/account.
	VIPSenders(ctx context.Context, userID, accountID string) ([]VIPSenderEntry, error)
}

// EmbeddingProvider turns a text window into a feature vector for the online
// classifier. Any error degrades scoring to the pure rule path.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StateStore persists per-(user, label) classifier state.
type StateStore interface {
	// Load returns the state for a user/label, or ErrStateNotFound.
	Load(ctx context.Context, userID string, label LabelType) (*ClassifierState, error)

	// Save writes the state back. The engine serializes calls per
	// (user, label); stores do not need their own cross-key coordination.
	Save(ctx context.Context, state *ClassifierState) error

	// Reset drops the state for a user/label. Explicit user action only.
	Reset(ctx context.Context, userID string, label LabelType) error
}
