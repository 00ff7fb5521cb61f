package scoring

import (
	"github.com/mikey/mail-triage/internal/core"
)

// MapPriority maps a final (urgency, importance) pair to a priority tier.
// The mapping is total over 0..10 x 0..10: exactly one tier for every pair.
func MapPriority(urgency, importance int, cfg core.ScoringConfiguration) core.PriorityTier {
	urgent := urgency >= cfg.UrgencyHighThreshold
	important := importance >= cfg.ImportanceHighThreshold

	switch {
	case urgent && important:
		return core.PriorityP0
	case important:
		return core.PriorityP1
	case urgent:
		return core.PriorityP2
	default:
		return core.PriorityP3
	}
}
