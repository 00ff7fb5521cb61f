// Package nlp implements the text annotator and the detectors that consume
// its output: deadline extraction, imperative-intent detection and lemma
// keyword matching.
package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// dateSpanPattern finds calendar-date spans the tagger itself cannot label:
// month-name dates ("June 5", "5 June 2026") and unambiguous numeric dates
// ("2026-06-05", "6/5/2026"). Slash dates without a year look exactly like
// fractions ("1/2 price"), so those are only accepted by
// cuedNumericDatePattern behind a deadline cue word. The deadline extractor
// validates each span with a real date parser before trusting it.
var dateSpanPattern = regexp.MustCompile(`(?i)\b(?:` +
	`(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?` +
	`|\d{1,2}(?:st|nd|rd|th)?\s+(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)(?:,?\s+\d{4})?` +
	`|\d{4}-\d{2}-\d{2}` +
	`|\d{1,2}/\d{1,2}/\d{2,4}` +
	`)\b`)

// cuedNumericDatePattern accepts a year-less slash date only directly after
// a deadline cue ("by 6/5", "due 12/31").
var cuedNumericDatePattern = regexp.MustCompile(`(?i)\b(?:by|on|before|until|due)\s+(\d{1,2}/\d{1,2})(?:$|[^/\d])`)

// ProseAnnotator is the production annotator: prose tokenization and POS
// tagging, golem lemmatization, heuristic dependency head assignment and
// pattern-based date entity spans.
type ProseAnnotator struct {
	lemmatizer *golem.Lemmatizer
	logger     *zap.Logger
}

// NewProseAnnotator creates an annotator backed by the English lemma
// dictionary.
func NewProseAnnotator(logger *zap.Logger) (*ProseAnnotator, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load lemma dictionary: %w", err)
	}
	return &ProseAnnotator{
		lemmatizer: lemmatizer,
		logger:     logger,
	}, nil
}

// Annotate runs the pipeline over one scoring window.
func (a *ProseAnnotator) Annotate(text string) (ann *core.Annotation, err error) {
	// The tagger is third-party code running over arbitrary mail text;
	// a panic here must become an AnnotationFailure, not a crash.
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("text pipeline panicked", zap.Any("panic", r))
			ann = nil
			err = fmt.Errorf("text pipeline panicked: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("failed to annotate text: %w", err)
	}

	proseTokens := doc.Tokens()
	tokens := make([]core.Token, 0, len(proseTokens))
	for _, tok := range proseTokens {
		tokens = append(tokens, core.Token{
			Text:  tok.Text,
			Lemma: a.lemma(tok.Text),
			Tag:   tok.Tag,
		})
	}
	assignHeads(tokens)

	return &core.Annotation{
		Tokens:   tokens,
		Entities: findDateEntities(text),
	}, nil
}

func (a *ProseAnnotator) lemma(word string) string {
	lower := strings.ToLower(word)
	if !isWordLike(lower) {
		return lower
	}
	if lemma := a.lemmatizer.Lemma(lower); lemma != "" {
		return strings.ToLower(lemma)
	}
	return lower
}

func isWordLike(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return len(s) > 0
}

// assignHeads fills in Token.Head with a heuristic dependency structure.
// There is no production-quality dependency parser for Go, so this
// approximates the handful of attachments the intent detector needs:
//
//   - the first verb is the root (head -1); with no verb, token 0 is root
//   - a base-form verb directly following a modal attaches to the modal
//   - a noun attaches to the nearest preceding verb
//   - politeness markers attach to the root
//   - everything else attaches to the root
func assignHeads(tokens []core.Token) {
	root := -1
	for i, tok := range tokens {
		if isVerbTag(tok.Tag) {
			root = i
			break
		}
	}
	if root < 0 && len(tokens) > 0 {
		root = 0
	}

	lastVerb := -1
	for i := range tokens {
		switch {
		case i == root:
			tokens[i].Head = -1
		case tokens[i].Tag == "MD":
			tokens[i].Head = root
		case isVerbTag(tokens[i].Tag) && i > 0 && tokens[i-1].Tag == "MD":
			tokens[i].Head = i - 1
		case isNounTag(tokens[i].Tag) && lastVerb >= 0:
			tokens[i].Head = lastVerb
		default:
			tokens[i].Head = root
		}
		if isVerbTag(tokens[i].Tag) {
			lastVerb = i
		}
	}
}

func isVerbTag(tag string) bool {
	return strings.HasPrefix(tag, "VB")
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "PRP")
}

// findDateEntities scans the raw window for date-like spans.
func findDateEntities(text string) []core.Entity {
	spans := dateSpanPattern.FindAllString(text, -1)
	for _, cued := range cuedNumericDatePattern.FindAllStringSubmatch(text, -1) {
		spans = append(spans, cued[1])
	}
	if len(spans) == 0 {
		return nil
	}
	entities := make([]core.Entity, 0, len(spans))
	for _, span := range spans {
		entities = append(entities, core.Entity{Text: span, Label: core.EntityDate})
	}
	return entities
}

// FallbackAnnotation builds a degraded annotation from whitespace
// tokenization when the pipeline itself fails. Lemmas are bare lowercased
// surface forms, so keyword matching keeps working; there are no tags, heads
// or entities, which forces has_imperative=false and has_deadline=false
// downstream.
func FallbackAnnotation(text string) *core.Annotation {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\''
	})
	tokens := make([]core.Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, core.Token{
			Text:  f,
			Lemma: strings.ToLower(f),
			Head:  -1,
		})
	}
	return &core.Annotation{Tokens: tokens}
}
