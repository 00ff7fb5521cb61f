package scoring

import (
	"math"

	"github.com/mikey/mail-triage/internal/core"
)

// The weight schedule is keyed on accumulated corrections for the label.
// The breakpoints (20 and 50) and weights are behavioral contract; do not
// tune them without ground-truth accuracy data.
const (
	warmCorrections    = 20
	maturedCorrections = 50

	warmRuleWeight    = 0.30
	maturedRuleWeight = 0.15
)

// Prediction is the online classifier's verdict for one label, scaled to
// the 0..10 score range by the caller.
type Prediction struct {
	Score      int
	Confidence float64
}

// Weights returns the (rule, classifier) mixing weights for a correction
// count. Weights always sum to 1.
func Weights(correctionCount int) (ruleWeight, classifierWeight float64) {
	switch {
	case correctionCount < warmCorrections:
		return 1.0, 0.0
	case correctionCount < maturedCorrections:
		return warmRuleWeight, 1 - warmRuleWeight
	default:
		return maturedRuleWeight, 1 - maturedRuleWeight
	}
}

// Blend mixes a rule score with a classifier prediction. A nil prediction
// (cold start, no state, or embedding unavailable) forces the pure rule
// score regardless of correction count.
func Blend(ruleScore int, pred *Prediction, correctionCount int) (score int, usedClassifier bool) {
	if pred == nil {
		return ruleScore, false
	}
	ruleWeight, classifierWeight := Weights(correctionCount)
	if classifierWeight == 0 {
		return ruleScore, false
	}
	blended := ruleWeight*float64(ruleScore) + classifierWeight*float64(pred.Score)
	return ClampScore(int(math.Round(blended))), true
}

// ApplyVIPBoost adds the sender boost to a blended importance score. The
// boost lands after blending so the weight schedule cannot dilute it, and a
// maximum-boost sender is floored to the high-importance threshold so such
// mail can never drop below P1.
func ApplyVIPBoost(importance, boost, importanceHighThreshold int) int {
	if boost <= 0 {
		return ClampScore(importance)
	}
	boosted := importance + boost
	if boost >= core.MaxVIPBoost && boosted < importanceHighThreshold {
		boosted = importanceHighThreshold
	}
	return ClampScore(boosted)
}
