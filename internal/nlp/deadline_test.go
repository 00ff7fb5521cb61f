package nlp

import (
	"math"
	"testing"
	"time"

	"github.com/mikey/mail-triage/internal/core"
)

// mondayMidnight is a fixed reference instant so the calendar-relative
// arithmetic is deterministic. 2026-03-02 is a Monday.
var mondayMidnight = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func tokensFromLemmas(lemmas ...string) []core.Token {
	tokens := make([]core.Token, len(lemmas))
	for i, lemma := range lemmas {
		tokens[i] = core.Token{Text: lemma, Lemma: lemma, Head: -1}
	}
	return tokens
}

func TestExtractDeadlineRelativeDays(t *testing.T) {
	tests := []struct {
		name      string
		lemmas    []string
		wantHours float64
	}{
		{"today", []string{"send", "the", "report", "today"}, 0},
		{"tonight", []string{"call", "me", "tonight"}, 0},
		{"tomorrow", []string{"reply", "by", "tomorrow"}, 24},
		{"day after tomorrow", []string{"due", "the", "day", "after", "tomorrow"}, 48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann := &core.Annotation{Tokens: tokensFromLemmas(tt.lemmas...)}
			sig := ExtractDeadline(ann, mondayMidnight)
			if !sig.HasDeadline {
				t.Fatal("expected a deadline")
			}
			if sig.HoursUntil != tt.wantHours {
				t.Errorf("HoursUntil = %v, want %v", sig.HoursUntil, tt.wantHours)
			}
			if sig.Confidence != 1.0 {
				t.Errorf("Confidence = %v, want 1.0", sig.Confidence)
			}
		})
	}
}

func TestExtractDeadlineWeekdayIsCalendarRelative(t *testing.T) {
	thursday := mondayMidnight.AddDate(0, 0, 3)

	ann := &core.Annotation{Tokens: tokensFromLemmas("finish", "by", "friday")}

	fromMonday := ExtractDeadline(ann, mondayMidnight)
	if !fromMonday.HasDeadline || fromMonday.HoursUntil != 4*24 {
		t.Errorf("from Monday: got %+v, want 96 hours", fromMonday)
	}
	fromThursday := ExtractDeadline(ann, thursday)
	if !fromThursday.HasDeadline || fromThursday.HoursUntil != 24 {
		t.Errorf("from Thursday: got %+v, want 24 hours", fromThursday)
	}
	if fromMonday.Confidence != 0.7 || fromThursday.Confidence != 0.7 {
		t.Errorf("weekday confidence = %v/%v, want 0.7", fromMonday.Confidence, fromThursday.Confidence)
	}
}

func TestExtractDeadlineSameWeekdayMeansNextWeek(t *testing.T) {
	ann := &core.Annotation{Tokens: tokensFromLemmas("due", "monday")}
	sig := ExtractDeadline(ann, mondayMidnight)
	if !sig.HasDeadline || sig.HoursUntil != 7*24 {
		t.Errorf("got %+v, want 168 hours", sig)
	}
}

func TestExtractDeadlineNamedDate(t *testing.T) {
	ann := &core.Annotation{
		Tokens:   tokensFromLemmas("payment", "due"),
		Entities: []core.Entity{{Text: "March 10", Label: core.EntityDate}},
	}
	sig := ExtractDeadline(ann, mondayMidnight)
	if !sig.HasDeadline {
		t.Fatal("expected a deadline")
	}
	if math.Abs(sig.HoursUntil-8*24) > 1e-9 {
		t.Errorf("HoursUntil = %v, want 192", sig.HoursUntil)
	}
	if sig.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", sig.Confidence)
	}
}

func TestExtractDeadlinePastDateRollsForward(t *testing.T) {
	ann := &core.Annotation{
		Tokens:   tokensFromLemmas("renewal"),
		Entities: []core.Entity{{Text: "January 5", Label: core.EntityDate}},
	}
	sig := ExtractDeadline(ann, mondayMidnight)
	if !sig.HasDeadline {
		t.Fatal("expected a deadline for a rolled-forward date")
	}
	if sig.HoursUntil <= 0 {
		t.Errorf("HoursUntil = %v, want positive", sig.HoursUntil)
	}
	// January 5 of the next year is roughly ten months out.
	if sig.HoursUntil < 200*24 {
		t.Errorf("HoursUntil = %v, expected a next-year resolution", sig.HoursUntil)
	}
}

func TestExtractDeadlineBareUrgencyToken(t *testing.T) {
	for _, lemma := range []string{"asap", "immediately", "urgent"} {
		ann := &core.Annotation{Tokens: tokensFromLemmas("respond", lemma)}
		sig := ExtractDeadline(ann, mondayMidnight)
		if !sig.HasDeadline || sig.HoursUntil != 24 {
			t.Errorf("%s: got %+v, want 24 hours", lemma, sig)
		}
		if sig.Confidence != 0.5 {
			t.Errorf("%s: Confidence = %v, want 0.5", lemma, sig.Confidence)
		}
	}
}

func TestExtractDeadlinePriorityOrder(t *testing.T) {
	// Relative day beats weekday and urgency token when both appear.
	ann := &core.Annotation{Tokens: tokensFromLemmas("urgent", "due", "friday", "or", "tomorrow")}
	sig := ExtractDeadline(ann, mondayMidnight)
	if sig.HoursUntil != 24 || sig.Confidence != 1.0 {
		t.Errorf("got %+v, want the relative-day match (24 hours, confidence 1.0)", sig)
	}
}

func TestExtractDeadlineNoSignal(t *testing.T) {
	ann := &core.Annotation{Tokens: tokensFromLemmas("thanks", "for", "the", "update")}
	sig := ExtractDeadline(ann, mondayMidnight)
	if sig.HasDeadline {
		t.Errorf("got %+v, want no deadline", sig)
	}
	if zero := ExtractDeadline(nil, mondayMidnight); zero.HasDeadline {
		t.Errorf("nil annotation: got %+v, want zero signal", zero)
	}
}
