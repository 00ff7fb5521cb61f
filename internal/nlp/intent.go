package nlp

import (
	"github.com/mikey/mail-triage/internal/core"
)

// Intent rule confidences. The final confidence is the max over all rules
// that fire.
const (
	confImperativeVerb = 0.9
	confPoliteRequest  = 0.8
	confModalRequest   = 0.7
	confNeedRequest    = 0.6
)

var politenessMarkers = map[string]struct{}{
	"please": {},
	"pls":    {},
	"kindly": {},
}

var requestModals = map[string]struct{}{
	"can":   {},
	"could": {},
	"would": {},
	"may":   {},
	"might": {},
	"will":  {},
}

var needLemmas = map[string]struct{}{
	"need":    {},
	"require": {},
}

// DetectIntent looks for imperative or action-request phrasing in the
// dependency structure of an annotation.
func DetectIntent(ann *core.Annotation) core.IntentSignal {
	if ann == nil || len(ann.Tokens) == 0 {
		return core.IntentSignal{}
	}

	var sig core.IntentSignal
	fire := func(confidence float64, lemma string) {
		sig.HasImperative = true
		sig.MatchedLemmas = append(sig.MatchedLemmas, lemma)
		if confidence > sig.Confidence {
			sig.Confidence = confidence
		}
	}

	tokens := ann.Tokens
	for i, tok := range tokens {
		switch {
		case isImperativeVerb(tokens, i):
			fire(confImperativeVerb, tok.Lemma)
		case tok.Head == -1 && isVerbTag(tok.Tag) && hasChildLemma(tokens, i, politenessMarkers):
			fire(confPoliteRequest, tok.Lemma)
		case tok.Tag == "MD" && inSet(tok.Lemma, requestModals) && hasInfinitiveChild(tokens, i):
			fire(confModalRequest, tok.Lemma)
		case tok.Head == -1 && isVerbTag(tok.Tag) && inSet(tok.Lemma, needLemmas) && hasObjectChild(tokens, i):
			fire(confNeedRequest, tok.Lemma)
		}
	}
	return sig
}

// isImperativeVerb treats a base-form verb that opens the window (or a
// clause after terminal punctuation) with no preceding subject or modal as
// carrying an imperative tag.
func isImperativeVerb(tokens []core.Token, i int) bool {
	if tokens[i].Tag != "VB" {
		return false
	}
	if i == 0 {
		return true
	}
	prev := tokens[i-1]
	if prev.Tag == "MD" || prev.Lemma == "to" {
		return false
	}
	switch prev.Tag {
	case ".", ":", "":
		return true
	}
	// "Please review ..." keeps the verb imperative after a politeness
	// marker.
	_, polite := politenessMarkers[prev.Lemma]
	return polite
}

func hasChildLemma(tokens []core.Token, head int, lemmas map[string]struct{}) bool {
	for i, tok := range tokens {
		if tok.Head != head || i == head {
			continue
		}
		if _, ok := lemmas[tok.Lemma]; ok {
			return true
		}
	}
	return false
}

func hasInfinitiveChild(tokens []core.Token, head int) bool {
	for i, tok := range tokens {
		if tok.Head == head && i != head && tok.Tag == "VB" {
			return true
		}
	}
	return false
}

// hasObjectChild approximates a direct-object edge: a noun child to the
// right of the verb.
func hasObjectChild(tokens []core.Token, head int) bool {
	for i, tok := range tokens {
		if tok.Head == head && i > head && isNounTag(tok.Tag) {
			return true
		}
	}
	return false
}

func inSet(lemma string, set map[string]struct{}) bool {
	_, ok := set[lemma]
	return ok
}
