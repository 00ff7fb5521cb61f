// Package settings implements core.SettingsProvider: reads of keyword sets,
// scoring thresholds and the VIP sender registry. Editing these belongs to
// the surrounding system; this engine only reads snapshots.
package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
)

// ViperProvider serves every user the global configuration-file settings.
// It is the fallback provider for deployments without per-user rows.
type ViperProvider struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewViperProvider creates a settings provider over the loaded configuration
func NewViperProvider(cfg *config.Config, logger *zap.Logger) *ViperProvider {
	return &ViperProvider{
		cfg:    cfg,
		logger: logger,
	}
}

// KeywordConfiguration returns the configured keyword sets
func (p *ViperProvider) KeywordConfiguration(ctx context.Context, userID, accountID string) (*core.KeywordConfiguration, error) {
	sets := make(map[string][]string)
	for _, name := range []string{
		core.KeywordSetUrgency,
		core.KeywordSetImportance,
		core.KeywordSetInvoice,
		core.KeywordSetNewsletter,
		core.KeywordSetAutoReply,
		core.KeywordSetInformational,
	} {
		sets[name] = p.cfg.GetStringSlice("keywords." + name)
	}
	return &core.KeywordConfiguration{
		UserID: userID,
		Sets:   sets,
	}, nil
}

// ScoringConfiguration returns the configured thresholds and point values
func (p *ViperProvider) ScoringConfiguration(ctx context.Context, userID, accountID string) (*core.ScoringConfiguration, error) {
	cfg := &core.ScoringConfiguration{
		DeadlineCriticalHours:          p.cfg.GetFloat64("scoring.deadline.critical_hours"),
		DeadlineUrgentHours:            p.cfg.GetFloat64("scoring.deadline.urgent_hours"),
		DeadlineSoonHours:              p.cfg.GetFloat64("scoring.deadline.soon_hours"),
		DeadlineCriticalPoints:         p.cfg.GetInt("scoring.deadline.critical_points"),
		DeadlineUrgentPoints:           p.cfg.GetInt("scoring.deadline.urgent_points"),
		DeadlineSoonPoints:             p.cfg.GetInt("scoring.deadline.soon_points"),
		UrgencyKeywordCap:              p.cfg.GetInt("scoring.urgency_keyword_cap"),
		ImportanceKeywordCap:           p.cfg.GetInt("scoring.importance_keyword_cap"),
		ImperativePoints:               p.cfg.GetInt("scoring.imperative_points"),
		InvoiceBonus:                   p.cfg.GetInt("scoring.invoice_bonus"),
		NewsletterUrgencyPenalty:       p.cfg.GetInt("scoring.newsletter_urgency_penalty"),
		NewsletterImportancePenalty:    p.cfg.GetInt("scoring.newsletter_importance_penalty"),
		AutoReplyUrgencyPenalty:        p.cfg.GetInt("scoring.auto_reply_urgency_penalty"),
		AutoReplyImportancePenalty:     p.cfg.GetInt("scoring.auto_reply_importance_penalty"),
		InformationalImportancePenalty: p.cfg.GetInt("scoring.informational_importance_penalty"),
		UrgencyHighThreshold:           p.cfg.GetInt("scoring.urgency_high_threshold"),
		ImportanceHighThreshold:        p.cfg.GetInt("scoring.importance_high_threshold"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return cfg, nil
}

// vipEntry mirrors one entry under the vip.senders configuration key
type vipEntry struct {
	Pattern string `mapstructure:"pattern"`
	Mode    string `mapstructure:"mode"`
	Boost   int    `mapstructure:"boost"`
	Active  *bool  `mapstructure:"active"`
}

// VIPSenders returns the configured VIP sender registry
func (p *ViperProvider) VIPSenders(ctx context.Context, userID, accountID string) ([]core.VIPSenderEntry, error) {
	var raw []vipEntry
	if err := p.cfg.UnmarshalKey("vip.senders", &raw); err != nil {
		return nil, fmt.Errorf("failed to decode vip.senders: %w", err)
	}

	entries := make([]core.VIPSenderEntry, 0, len(raw))
	for _, e := range raw {
		// Entries without an explicit active flag are active.
		active := e.Active == nil || *e.Active
		entries = append(entries, core.VIPSenderEntry{
			Pattern: e.Pattern,
			Mode:    core.VIPMatchMode(e.Mode),
			Boost:   e.Boost,
			Active:  active,
		})
	}
	return entries, nil
}
