package nlp

import (
	"github.com/mikey/mail-triage/internal/core"
)

// Matcher tests annotation lemmas against the configured keyword sets.
// Sets are defined once per base form; "verify" matches "verifies",
// "verified" and "verifying" because matching runs on lemmas.
type Matcher struct {
	cfg *core.KeywordConfiguration
}

// NewMatcher wraps one immutable keyword configuration snapshot.
func NewMatcher(cfg *core.KeywordConfiguration) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match counts how many tokens of the annotation fall in the named set.
// Count includes repeats; Lemmas holds each distinct match once.
func (m *Matcher) Match(ann *core.Annotation, setName string) core.KeywordMatch {
	match := core.KeywordMatch{Set: setName}
	if ann == nil || m.cfg == nil {
		return match
	}

	lookup := m.cfg.SetLookup(setName)
	if len(lookup) == 0 {
		return match
	}

	seen := make(map[string]struct{})
	for _, tok := range ann.Tokens {
		if _, ok := lookup[tok.Lemma]; !ok {
			continue
		}
		match.Count++
		if _, dup := seen[tok.Lemma]; !dup {
			seen[tok.Lemma] = struct{}{}
			match.Lemmas = append(match.Lemmas, tok.Lemma)
		}
	}
	return match
}
