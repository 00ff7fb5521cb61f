// Package scoring implements the deterministic half of the engine: the
// rule-based scorer, the VIP sender resolver, the rule/classifier ensemble
// and the priority mapper.
package scoring

import (
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// pointsPerKeyword is awarded per keyword match, up to the configured cap.
const pointsPerKeyword = 3

// invoiceSignalMinimum is how many invoice keywords make a message look like
// a real invoice rather than a passing mention.
const invoiceSignalMinimum = 2

// newsletterSignalMinimum mirrors invoiceSignalMinimum for bulk mail.
const newsletterSignalMinimum = 2

// RuleInputs bundles the detector outputs one rule evaluation consumes.
type RuleInputs struct {
	Deadline      core.DeadlineSignal
	Intent        core.IntentSignal
	Urgency       core.KeywordMatch
	Importance    core.KeywordMatch
	Invoice       core.KeywordMatch
	Newsletter    core.KeywordMatch
	AutoReply     core.KeywordMatch
	Informational core.KeywordMatch
}

// RuleScores is the rule path's verdict before blending. Importance does not
// include the VIP boost; the ensemble adds it after blending so an explicit
// user preference is never diluted by the weight schedule.
type RuleScores struct {
	Urgency    int
	Importance int
}

// RuleScorer accumulates detector signals into clamped 0..10 urgency and
// importance scores.
type RuleScorer struct {
	cfg    core.ScoringConfiguration
	logger *zap.Logger
}

// NewRuleScorer builds a scorer over one configuration snapshot.
func NewRuleScorer(cfg core.ScoringConfiguration, logger *zap.Logger) *RuleScorer {
	return &RuleScorer{cfg: cfg, logger: logger}
}

// Score runs the accumulation and negative-signal rules.
func (s *RuleScorer) Score(in RuleInputs) RuleScores {
	urgency := s.deadlinePoints(in.Deadline)
	urgency += capped(pointsPerKeyword*in.Urgency.Count, s.cfg.UrgencyKeywordCap)

	importance := capped(pointsPerKeyword*in.Importance.Count, s.cfg.ImportanceKeywordCap)

	if in.Intent.HasImperative {
		urgency += s.cfg.ImperativePoints
		importance += s.cfg.ImperativePoints
	}
	if in.Invoice.Count >= invoiceSignalMinimum {
		urgency += s.cfg.InvoiceBonus
		importance += s.cfg.InvoiceBonus
	}

	if in.Newsletter.Count >= newsletterSignalMinimum {
		urgency -= s.cfg.NewsletterUrgencyPenalty
		importance -= s.cfg.NewsletterImportancePenalty
	}
	if in.AutoReply.Count >= 1 {
		urgency -= s.cfg.AutoReplyUrgencyPenalty
		importance -= s.cfg.AutoReplyImportancePenalty
	}
	if in.Informational.Count >= 1 && !in.Intent.HasImperative {
		importance -= s.cfg.InformationalImportancePenalty
	}

	scores := RuleScores{
		Urgency:    ClampScore(urgency),
		Importance: ClampScore(importance),
	}
	if s.logger != nil {
		s.logger.Debug("rule scores computed",
			zap.Int("urgency", scores.Urgency),
			zap.Int("importance", scores.Importance),
			zap.Bool("imperative", in.Intent.HasImperative),
			zap.Bool("deadline", in.Deadline.HasDeadline),
			zap.Float64("hours_until", in.Deadline.HoursUntil))
	}
	return scores
}

func (s *RuleScorer) deadlinePoints(d core.DeadlineSignal) int {
	if !d.HasDeadline {
		return 0
	}
	switch {
	case d.HoursUntil <= s.cfg.DeadlineCriticalHours:
		return s.cfg.DeadlineCriticalPoints
	case d.HoursUntil <= s.cfg.DeadlineUrgentHours:
		return s.cfg.DeadlineUrgentPoints
	case d.HoursUntil <= s.cfg.DeadlineSoonHours:
		return s.cfg.DeadlineSoonPoints
	default:
		return 0
	}
}

func capped(points, cap int) int {
	if points > cap {
		return cap
	}
	return points
}

// ClampScore clamps a raw accumulation to the 0..10 score range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
