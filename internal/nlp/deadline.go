package nlp

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/mikey/mail-triage/internal/core"
)

// Deadline match confidences, by how unambiguous the phrasing is.
const (
	confRelativeDay  = 1.0
	confNamedDate    = 0.8
	confWeekday      = 0.7
	confUrgencyToken = 0.5
)

// fallbackDeadlineHours is the conservative default for bare urgency tokens
// with no resolvable date.
const fallbackDeadlineHours = 24

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var urgencyTokens = map[string]struct{}{
	"asap":        {},
	"immediately": {},
	"urgent":      {},
	"urgently":    {},
}

var ordinalSuffix = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)

// ExtractDeadline computes hours-until-deadline from an annotation relative
// to now. Match strategies run in priority order; the first one that fires
// wins. The arithmetic is calendar-relative: "by Friday" yields a different
// answer on a Monday than on a Thursday.
func ExtractDeadline(ann *core.Annotation, now time.Time) core.DeadlineSignal {
	if ann == nil {
		return core.DeadlineSignal{}
	}

	if sig, ok := matchRelativeDay(ann.Tokens); ok {
		return sig
	}
	if sig, ok := matchNamedDate(ann.Entities, now); ok {
		return sig
	}
	if sig, ok := matchWeekday(ann.Tokens, now); ok {
		return sig
	}
	if sig, ok := matchUrgencyToken(ann.Tokens); ok {
		return sig
	}
	return core.DeadlineSignal{}
}

func matchRelativeDay(tokens []core.Token) (core.DeadlineSignal, bool) {
	for i, tok := range tokens {
		switch tok.Lemma {
		case "today", "tonight":
			return deadline(0, tok.Text, confRelativeDay), true
		case "tomorrow":
			// "day after tomorrow" must win over the bare "tomorrow"
			// inside it.
			if i >= 2 && tokens[i-2].Lemma == "day" && tokens[i-1].Lemma == "after" {
				return deadline(48, "day after tomorrow", confRelativeDay), true
			}
			return deadline(24, tok.Text, confRelativeDay), true
		}
	}
	return core.DeadlineSignal{}, false
}

func matchNamedDate(entities []core.Entity, now time.Time) (core.DeadlineSignal, bool) {
	for _, ent := range entities {
		if ent.Label != core.EntityDate {
			continue
		}
		resolved, ok := parseDateSpan(ent.Text, now)
		if !ok {
			continue
		}
		// A date that already passed this year means the next
		// occurrence.
		if !resolved.After(now) {
			resolved = resolved.AddDate(1, 0, 0)
		}
		hours := resolved.Sub(now).Hours()
		if hours <= 0 {
			continue
		}
		return deadline(hours, ent.Text, confNamedDate), true
	}
	return core.DeadlineSignal{}, false
}

func parseDateSpan(span string, now time.Time) (time.Time, bool) {
	cleaned := ordinalSuffix.ReplaceAllString(strings.TrimSpace(span), "$1")

	if t, err := dateparse.ParseIn(cleaned, now.Location()); err == nil {
		return withYear(t, now), true
	}
	// Month-day spans carry no year; retry with the current one.
	if t, err := dateparse.ParseIn(cleaned+" "+now.Format("2006"), now.Location()); err == nil {
		return withYear(t, now), true
	}
	return time.Time{}, false
}

func withYear(t time.Time, now time.Time) time.Time {
	if t.Year() != 0 {
		return t
	}
	return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

func matchWeekday(tokens []core.Token, now time.Time) (core.DeadlineSignal, bool) {
	for _, tok := range tokens {
		target, ok := weekdays[tok.Lemma]
		if !ok {
			continue
		}
		daysUntil := (int(target) - int(now.Weekday()) + 7) % 7
		if daysUntil == 0 {
			// The same weekday means next week, not right now.
			daysUntil = 7
		}
		return deadline(float64(daysUntil)*24, tok.Text, confWeekday), true
	}
	return core.DeadlineSignal{}, false
}

func matchUrgencyToken(tokens []core.Token) (core.DeadlineSignal, bool) {
	for _, tok := range tokens {
		if _, ok := urgencyTokens[tok.Lemma]; ok {
			return deadline(fallbackDeadlineHours, tok.Text, confUrgencyToken), true
		}
	}
	return core.DeadlineSignal{}, false
}

func deadline(hours float64, matched string, confidence float64) core.DeadlineSignal {
	return core.DeadlineSignal{
		HasDeadline: true,
		HoursUntil:  hours,
		MatchedText: matched,
		Confidence:  confidence,
	}
}
