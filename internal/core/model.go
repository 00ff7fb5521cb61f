package core

import (
	"fmt"
	"time"
)

// ScoringInput is the caller-supplied view of one message. The caller owns
// decryption and account resolution; this engine only ever sees plaintext.
type ScoringInput struct {
	Subject    string
	Body       string
	Sender     string
	AccountID  string
	UserID     string
	ReceivedAt time.Time
}

// PriorityTier is one of four coarse output buckets, P0 highest.
type PriorityTier string

const (
	PriorityP0 PriorityTier = "P0"
	PriorityP1 PriorityTier = "P1"
	PriorityP2 PriorityTier = "P2"
	PriorityP3 PriorityTier = "P3"
)

// LabelType identifies an independently trained classifier head.
type LabelType string

const (
	LabelUrgency    LabelType = "urgency"
	LabelImportance LabelType = "importance"
	LabelSpam       LabelType = "spam"
	LabelCategory   LabelType = "category"
)

// ClassCount returns the size of the discrete class space for a label.
// Urgency and importance predict the 0..10 score directly.
func (l LabelType) ClassCount() int {
	switch l {
	case LabelUrgency, LabelImportance:
		return 11
	case LabelSpam:
		return 2
	case LabelCategory:
		return 8
	default:
		return 0
	}
}

// Valid reports whether the label is one of the known label types.
func (l LabelType) Valid() bool {
	return l.ClassCount() > 0
}

// ScoringResult is the output of one scoring call.
type ScoringResult struct {
	UrgencyScore    int
	ImportanceScore int
	Priority        PriorityTier
	Confidence      float64
	UsedClassifier  bool
	ProcessingID    string
	ScoredAt        time.Time
}

// Token is one annotated token of the scoring window.
// Head is the index of the token's grammatical governor, -1 for the root.
type Token struct {
	Text  string
	Lemma string
	Tag   string
	Head  int
}

// Entity is a named-entity span found in the scoring window.
type Entity struct {
	Text  string
	Label string
}

// EntityDate labels spans the annotator recognized as calendar dates.
const EntityDate = "DATE"

// Annotation is the ephemeral output of the text annotator. It is recomputed
// per scoring call and shared by the deadline, intent and keyword detectors.
type Annotation struct {
	Tokens   []Token
	Entities []Entity
}

// DeadlineSignal is the deadline extractor's verdict for one message.
type DeadlineSignal struct {
	HasDeadline bool
	HoursUntil  float64
	MatchedText string
	Confidence  float64
}

// IntentSignal is the intent detector's verdict for one message.
type IntentSignal struct {
	HasImperative bool
	MatchedLemmas []string
	Confidence    float64
}

// KeywordMatch is the keyword matcher's result for one configured set.
type KeywordMatch struct {
	Set    string
	Lemmas []string
	Count  int
}

// Keyword set names understood by the rule-based scorer.
const (
	KeywordSetUrgency       = "urgency_high"
	KeywordSetImportance    = "importance_high"
	KeywordSetInvoice       = "invoice"
	KeywordSetNewsletter    = "newsletter"
	KeywordSetAutoReply     = "auto_reply"
	KeywordSetInformational = "informational"
)

// KeywordConfiguration holds the per-user keyword sets. Each set maps a name
// to lowercase lemma strings, so one entry covers every surface form.
// An empty AccountID means the global fallback configuration.
type KeywordConfiguration struct {
	UserID    string
	AccountID string
	Sets      map[string][]string
}

// SetLookup returns a membership set for the named keyword set.
func (k *KeywordConfiguration) SetLookup(name string) map[string]struct{} {
	lookup := make(map[string]struct{}, len(k.Sets[name]))
	for _, lemma := range k.Sets[name] {
		lookup[lemma] = struct{}{}
	}
	return lookup
}

// DefaultKeywordConfiguration returns the global fallback keyword sets used
// when no per-user configuration exists. Entries are lowercase lemmas.
func DefaultKeywordConfiguration() *KeywordConfiguration {
	return &KeywordConfiguration{
		Sets: map[string][]string{
			KeywordSetUrgency: {
				"urgent", "asap", "immediately", "critical", "emergency",
				"deadline", "overdue", "expire", "final",
			},
			KeywordSetImportance: {
				"important", "contract", "invoice", "payment", "interview",
				"offer", "legal", "approval", "signature", "confirm",
			},
			KeywordSetInvoice: {
				"invoice", "payment", "bill", "due", "amount", "balance", "receipt",
			},
			KeywordSetNewsletter: {
				"newsletter", "unsubscribe", "digest", "weekly", "monthly",
				"subscription", "promotional",
			},
			KeywordSetAutoReply: {
				"autoreply", "automatic", "vacation", "away", "ooo", "absence",
			},
			KeywordSetInformational: {
				"fyi", "announcement", "notice", "info",
			},
		},
	}
}

// ScoringConfiguration holds the numeric thresholds and point values the
// rule-based scorer runs on.
type ScoringConfiguration struct {
	// Deadline bucket cutoffs in hours, strictly increasing.
	DeadlineCriticalHours float64
	DeadlineUrgentHours   float64
	DeadlineSoonHours     float64

	// Points awarded per deadline bucket.
	DeadlineCriticalPoints int
	DeadlineUrgentPoints   int
	DeadlineSoonPoints     int

	// Caps for keyword accumulation (3 points per match up to the cap).
	UrgencyKeywordCap    int
	ImportanceKeywordCap int

	ImperativePoints int
	InvoiceBonus     int

	// Negative signals.
	NewsletterUrgencyPenalty       int
	NewsletterImportancePenalty    int
	AutoReplyUrgencyPenalty        int
	AutoReplyImportancePenalty     int
	InformationalImportancePenalty int

	// Thresholds used by the priority mapper.
	UrgencyHighThreshold    int
	ImportanceHighThreshold int
}

// DefaultScoringConfiguration returns the documented defaults used when no
// per-user configuration exists.
func DefaultScoringConfiguration() ScoringConfiguration {
	return ScoringConfiguration{
		DeadlineCriticalHours:          24,
		DeadlineUrgentHours:            72,
		DeadlineSoonHours:              168,
		DeadlineCriticalPoints:         5,
		DeadlineUrgentPoints:           4,
		DeadlineSoonPoints:             2,
		UrgencyKeywordCap:              4,
		ImportanceKeywordCap:           4,
		ImperativePoints:               2,
		InvoiceBonus:                   2,
		NewsletterUrgencyPenalty:       10,
		NewsletterImportancePenalty:    10,
		AutoReplyUrgencyPenalty:        10,
		AutoReplyImportancePenalty:     10,
		InformationalImportancePenalty: 2,
		UrgencyHighThreshold:           6,
		ImportanceHighThreshold:        6,
	}
}

// Validate checks the configuration invariants: point values in [-10, 10]
// and hour cutoffs non-negative and strictly increasing.
func (c ScoringConfiguration) Validate() error {
	if c.DeadlineCriticalHours < 0 || c.DeadlineUrgentHours < 0 || c.DeadlineSoonHours < 0 {
		return fmt.Errorf("deadline cutoffs must be non-negative")
	}
	if !(c.DeadlineCriticalHours < c.DeadlineUrgentHours && c.DeadlineUrgentHours < c.DeadlineSoonHours) {
		return fmt.Errorf("deadline cutoffs must be strictly increasing (critical < urgent < soon)")
	}
	points := []int{
		c.DeadlineCriticalPoints, c.DeadlineUrgentPoints, c.DeadlineSoonPoints,
		c.UrgencyKeywordCap, c.ImportanceKeywordCap,
		c.ImperativePoints, c.InvoiceBonus,
		c.NewsletterUrgencyPenalty, c.NewsletterImportancePenalty,
		c.AutoReplyUrgencyPenalty, c.AutoReplyImportancePenalty,
		c.InformationalImportancePenalty,
		c.UrgencyHighThreshold, c.ImportanceHighThreshold,
	}
	for _, p := range points {
		if p < -10 || p > 10 {
			return fmt.Errorf("point value %d outside [-10, 10]", p)
		}
	}
	return nil
}

// VIPMatchMode selects how a VIPSenderEntry pattern is compared to a sender.
type VIPMatchMode string

const (
	VIPMatchExact     VIPMatchMode = "exact"
	VIPMatchDomain    VIPMatchMode = "domain"
	VIPMatchSubstring VIPMatchMode = "substring"
)

// MaxVIPBoost is the upper bound of a single entry's importance boost.
const MaxVIPBoost = 5

// VIPSenderEntry is one row of the per-account VIP sender registry. When
// several entries match one sender, the maximum boost applies.
type VIPSenderEntry struct {
	Pattern string
	Mode    VIPMatchMode
	Boost   int
	Active  bool
}

// ClassifierState is the persisted per-(user, label) online model. Model is
// an opaque serialized blob owned by the classifier package; the stores only
// round-trip it. CorrectionCount is monotonically increasing and drives the
// ensemble weight schedule.
type ClassifierState struct {
	UserID          string
	Label           LabelType
	Model           []byte
	CorrectionCount int
	UpdatedAt       time.Time
}

// CorrectionEvent is a user override fed back into the online classifier.
// Either Embedding is pre-computed by the caller or Subject/Body are embedded
// on the way in. It is consumed, never persisted.
type CorrectionEvent struct {
	UserID         string
	AccountID      string
	Label          LabelType
	CorrectedClass int
	Subject        string
	Body           string
	Embedding      []float32
}
