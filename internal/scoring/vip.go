package scoring

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// VIPResolver matches a sender against the per-account VIP registry and
// returns the importance boost to apply.
type VIPResolver struct {
	entries []core.VIPSenderEntry
	logger  *zap.Logger
}

// NewVIPResolver wraps one registry snapshot. Patterns are normalized to
// lowercase once here.
func NewVIPResolver(entries []core.VIPSenderEntry, logger *zap.Logger) *VIPResolver {
	normalized := make([]core.VIPSenderEntry, 0, len(entries))
	for _, e := range entries {
		e.Pattern = strings.ToLower(strings.TrimSpace(e.Pattern))
		if e.Pattern == "" {
			continue
		}
		normalized = append(normalized, e)
	}
	return &VIPResolver{entries: normalized, logger: logger}
}

// Boost returns the maximum applicable boost for a sender, 0 when nothing
// matches. Inactive entries and boosts outside [0, MaxVIPBoost] never apply.
func (r *VIPResolver) Boost(sender string) int {
	sender = strings.ToLower(strings.TrimSpace(sender))
	if sender == "" {
		return 0
	}

	best := 0
	for _, e := range r.entries {
		if !e.Active || e.Boost <= 0 {
			continue
		}
		if !matchesSender(sender, e) {
			continue
		}
		boost := e.Boost
		if boost > core.MaxVIPBoost {
			boost = core.MaxVIPBoost
		}
		if boost > best {
			best = boost
		}
	}
	if best > 0 && r.logger != nil {
		r.logger.Debug("vip sender matched",
			zap.String("sender", sender),
			zap.Int("boost", best))
	}
	return best
}

func matchesSender(sender string, e core.VIPSenderEntry) bool {
	switch e.Mode {
	case core.VIPMatchExact:
		return sender == e.Pattern
	case core.VIPMatchDomain:
		at := strings.LastIndex(sender, "@")
		if at < 0 {
			return false
		}
		return sender[at+1:] == e.Pattern
	case core.VIPMatchSubstring:
		return strings.Contains(sender, e.Pattern)
	default:
		return false
	}
}
