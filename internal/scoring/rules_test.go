package scoring

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func defaultScorer() *RuleScorer {
	return NewRuleScorer(core.DefaultScoringConfiguration(), zap.NewNop())
}

func TestRuleScorerUrgentInvoice(t *testing.T) {
	// A payment overdue message with a tomorrow deadline, urgency keywords
	// and an imperative lands well above the urgency threshold.
	in := RuleInputs{
		Deadline: core.DeadlineSignal{HasDeadline: true, HoursUntil: 24, Confidence: 1.0},
		Intent:   core.IntentSignal{HasImperative: true, Confidence: 0.9},
		Urgency:  core.KeywordMatch{Set: core.KeywordSetUrgency, Count: 2},
		Invoice:  core.KeywordMatch{Set: core.KeywordSetInvoice, Count: 3},
	}
	got := defaultScorer().Score(in)
	if got.Urgency < 7 {
		t.Errorf("Urgency = %d, want at least 7", got.Urgency)
	}
	if got.Importance < 4 {
		t.Errorf("Importance = %d, want imperative plus invoice bonus", got.Importance)
	}
}

func TestRuleScorerDeadlineBuckets(t *testing.T) {
	tests := []struct {
		name       string
		hoursUntil float64
		want       int
	}{
		{"critical", 12, 5},
		{"critical boundary", 24, 5},
		{"urgent", 48, 4},
		{"urgent boundary", 72, 4},
		{"soon", 120, 2},
		{"soon boundary", 168, 2},
		{"beyond horizon", 240, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := RuleInputs{
				Deadline: core.DeadlineSignal{HasDeadline: true, HoursUntil: tt.hoursUntil},
			}
			if got := defaultScorer().Score(in); got.Urgency != tt.want {
				t.Errorf("Urgency = %d, want %d", got.Urgency, tt.want)
			}
		})
	}
}

func TestRuleScorerKeywordPointsAreCapped(t *testing.T) {
	in := RuleInputs{
		Urgency:    core.KeywordMatch{Count: 5},
		Importance: core.KeywordMatch{Count: 5},
	}
	got := defaultScorer().Score(in)
	if got.Urgency != 4 {
		t.Errorf("Urgency = %d, want the keyword cap 4", got.Urgency)
	}
	if got.Importance != 4 {
		t.Errorf("Importance = %d, want the keyword cap 4", got.Importance)
	}
}

func TestRuleScorerSingleInvoiceMentionIsNotAnInvoice(t *testing.T) {
	in := RuleInputs{Invoice: core.KeywordMatch{Count: 1}}
	if got := defaultScorer().Score(in); got.Urgency != 0 || got.Importance != 0 {
		t.Errorf("got %+v, want no invoice bonus for a passing mention", got)
	}
}

func TestRuleScorerNewsletterZeroesOtherSignals(t *testing.T) {
	in := RuleInputs{
		Deadline:   core.DeadlineSignal{HasDeadline: true, HoursUntil: 24},
		Urgency:    core.KeywordMatch{Count: 1},
		Newsletter: core.KeywordMatch{Count: 2},
	}
	got := defaultScorer().Score(in)
	if got.Urgency != 0 || got.Importance != 0 {
		t.Errorf("got %+v, want 0/0 after the newsletter penalty", got)
	}
}

func TestRuleScorerAutoReplyPenalty(t *testing.T) {
	in := RuleInputs{
		Deadline:  core.DeadlineSignal{HasDeadline: true, HoursUntil: 24},
		Intent:    core.IntentSignal{HasImperative: true},
		AutoReply: core.KeywordMatch{Count: 1},
	}
	got := defaultScorer().Score(in)
	if got.Urgency != 0 || got.Importance != 0 {
		t.Errorf("got %+v, want an auto-reply floored to 0/0", got)
	}
}

func TestRuleScorerInformationalPenaltySkippedWithImperative(t *testing.T) {
	base := RuleInputs{
		Importance:    core.KeywordMatch{Count: 1},
		Informational: core.KeywordMatch{Count: 1},
	}
	got := defaultScorer().Score(base)
	if got.Importance != 1 {
		t.Errorf("Importance = %d, want 3 - 2 = 1", got.Importance)
	}

	withImperative := base
	withImperative.Intent = core.IntentSignal{HasImperative: true}
	got = defaultScorer().Score(withImperative)
	if got.Importance != 5 {
		t.Errorf("Importance = %d, want 3 + 2 with the penalty skipped", got.Importance)
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0}, {0, 0}, {7, 7}, {10, 10}, {15, 10},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
