// Package engine wires the detectors, the rule scorer, the online
// classifier and the ensemble into the two library entry points: Score and
// Learn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/classifier"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/nlp"
	"github.com/mikey/mail-triage/internal/scoring"
	"github.com/mikey/mail-triage/internal/utils"
)

// Rule-path confidence floors; the deadline and intent detectors can raise
// them, the classifier's own softmax confidence is blended in by the weight
// schedule.
const (
	baseRuleConfidence   = 0.3
	keywordConfidence    = 0.6
	degradedRuleConfCeil = 0.4
)

// Service is the triage scoring engine.
type Service struct {
	annotator core.Annotator
	settings  core.SettingsProvider
	embedder  core.EmbeddingProvider
	states    core.StateStore
	text      *utils.TextProcessor
	logger    *zap.Logger

	locks          *classifier.KeyedLock
	maxWindowBytes int
	lockWait       time.Duration

	warnedDefaults sync.Map
}

// New creates a triage service. maxWindowBytes bounds the annotated text
// window (subject plus truncated body); lockWait bounds how long one Learn
// call waits for the per-(user, label) update lock.
func New(
	annotator core.Annotator,
	settings core.SettingsProvider,
	embedder core.EmbeddingProvider,
	states core.StateStore,
	text *utils.TextProcessor,
	logger *zap.Logger,
	maxWindowBytes int,
	lockWait time.Duration,
) *Service {
	return &Service{
		annotator:      annotator,
		settings:       settings,
		embedder:       embedder,
		states:         states,
		text:           text,
		logger:         logger,
		locks:          classifier.NewKeyedLock(),
		maxWindowBytes: maxWindowBytes,
		lockWait:       lockWait,
	}
}

// Score classifies one message. It is pure with respect to the persisted
// configuration and model snapshot: the same input against the same
// snapshot yields the same scores on every call.
func (s *Service) Score(ctx context.Context, input core.ScoringInput) (*core.ScoringResult, error) {
	scoringCfg := s.scoringConfig(ctx, input.UserID, input.AccountID)
	keywordCfg := s.keywordConfig(ctx, input.UserID, input.AccountID)
	window := s.window(input.Subject, input.Body)

	ann, annErr := s.annotator.Annotate(window)
	var deadline core.DeadlineSignal
	var intent core.IntentSignal
	if annErr != nil {
		// Keyword-only fallback: surface-form lemmas, no deadline, no
		// imperative. The caller never sees this failure.
		s.logger.Warn("annotation failed, falling back to keyword-only scoring",
			zap.Error(annErr),
			zap.String("user_id", input.UserID))
		ann = nlp.FallbackAnnotation(window)
	} else {
		deadline = nlp.ExtractDeadline(ann, input.ReceivedAt)
		intent = nlp.DetectIntent(ann)
	}

	matcher := nlp.NewMatcher(keywordCfg)
	inputs := scoring.RuleInputs{
		Deadline:      deadline,
		Intent:        intent,
		Urgency:       matcher.Match(ann, core.KeywordSetUrgency),
		Importance:    matcher.Match(ann, core.KeywordSetImportance),
		Invoice:       matcher.Match(ann, core.KeywordSetInvoice),
		Newsletter:    matcher.Match(ann, core.KeywordSetNewsletter),
		AutoReply:     matcher.Match(ann, core.KeywordSetAutoReply),
		Informational: matcher.Match(ann, core.KeywordSetInformational),
	}
	rule := scoring.NewRuleScorer(scoringCfg, s.logger).Score(inputs)
	vipBoost := s.vipBoost(ctx, input)

	embedding := s.embed(ctx, window)
	urgencyPred, urgencyCount, err := s.prediction(ctx, input.UserID, core.LabelUrgency, embedding)
	if err != nil {
		return nil, err
	}
	importancePred, importanceCount, err := s.prediction(ctx, input.UserID, core.LabelImportance, embedding)
	if err != nil {
		return nil, err
	}

	urgency, usedUrgency := scoring.Blend(rule.Urgency, urgencyPred, urgencyCount)
	importance, usedImportance := scoring.Blend(rule.Importance, importancePred, importanceCount)
	importance = scoring.ApplyVIPBoost(importance, vipBoost, scoringCfg.ImportanceHighThreshold)

	result := &core.ScoringResult{
		UrgencyScore:    urgency,
		ImportanceScore: importance,
		Priority:        scoring.MapPriority(urgency, importance, scoringCfg),
		Confidence:      confidence(inputs, annErr != nil, urgencyPred, urgencyCount, importancePred, importanceCount),
		UsedClassifier:  usedUrgency || usedImportance,
		ProcessingID:    uuid.NewString(),
		ScoredAt:        time.Now(),
	}

	s.logger.Debug("message scored",
		zap.String("user_id", input.UserID),
		zap.String("processing_id", result.ProcessingID),
		zap.Int("urgency", result.UrgencyScore),
		zap.Int("importance", result.ImportanceScore),
		zap.String("priority", string(result.Priority)),
		zap.Bool("used_classifier", result.UsedClassifier))
	return result, nil
}

// Learn applies a user correction as one incremental model update. Calls
// for the same (user, label) are serialized; a lock timeout is retryable
// and loses nothing. An unavailable embedding turns the call into a logged
// no-op without touching the correction count, so the ensemble weight
// schedule stays accurate.
func (s *Service) Learn(ctx context.Context, event core.CorrectionEvent) error {
	if !event.Label.Valid() {
		return fmt.Errorf("unknown label type %q", event.Label)
	}
	if event.CorrectedClass < 0 || event.CorrectedClass >= event.Label.ClassCount() {
		return fmt.Errorf("class %d outside [0, %d) for label %q",
			event.CorrectedClass, event.Label.ClassCount(), event.Label)
	}

	// The embedding is resolved before taking the lock: it is a network
	// call that touches no shared state, and holding the lock across it
	// would starve concurrent corrections for the same key.
	embedding := event.Embedding
	if len(embedding) == 0 {
		embedding = s.embed(ctx, s.window(event.Subject, event.Body))
		if len(embedding) == 0 {
			s.logger.Warn("embedding unavailable, correction skipped",
				zap.String("user_id", event.UserID),
				zap.String("label", string(event.Label)))
			return nil
		}
	}

	release, err := s.locks.Acquire(ctx, lockKey(event.UserID, event.Label), s.lockWait)
	if err != nil {
		return err
	}
	defer release()

	state, err := s.states.Load(ctx, event.UserID, event.Label)
	var model *classifier.Model
	switch {
	case errors.Is(err, core.ErrStateNotFound):
		// First correction for this user/label creates the state.
		state = &core.ClassifierState{UserID: event.UserID, Label: event.Label}
		model = classifier.New(event.Label.ClassCount())
	case err != nil:
		return fmt.Errorf("failed to load classifier state: %w", err)
	default:
		model, err = classifier.Unmarshal(state.Model)
		if err != nil {
			return err
		}
	}

	if err := model.Learn(embedding, event.CorrectedClass); err != nil {
		return fmt.Errorf("incremental update failed: %w", err)
	}
	blob, err := model.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize classifier state: %w", err)
	}

	state.Model = blob
	state.CorrectionCount++
	state.UpdatedAt = time.Now()
	if err := s.states.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to persist classifier state: %w", err)
	}

	s.logger.Info("correction applied",
		zap.String("user_id", event.UserID),
		zap.String("label", string(event.Label)),
		zap.Int("corrected_class", event.CorrectedClass),
		zap.Int("correction_count", state.CorrectionCount))
	return nil
}

// Reset drops the trained state for one user/label. This is the only path
// that discards correction history, and it only runs on explicit request.
func (s *Service) Reset(ctx context.Context, userID string, label core.LabelType) error {
	if !label.Valid() {
		return fmt.Errorf("unknown label type %q", label)
	}
	release, err := s.locks.Acquire(ctx, lockKey(userID, label), s.lockWait)
	if err != nil {
		return err
	}
	defer release()

	if err := s.states.Reset(ctx, userID, label); err != nil {
		return fmt.Errorf("failed to reset classifier state: %w", err)
	}
	s.logger.Info("classifier state reset",
		zap.String("user_id", userID),
		zap.String("label", string(label)))
	return nil
}

func (s *Service) window(subject, body string) string {
	text := subject
	if body != "" {
		text += "\n" + body
	}
	return s.text.ProcessText(text, s.maxWindowBytes)
}

func (s *Service) embed(ctx context.Context, window string) []float32 {
	if s.embedder == nil {
		return nil
	}
	embedding, err := s.embedder.Embed(ctx, window)
	if err != nil {
		s.logger.Debug("embedding unavailable, scoring rule-only", zap.Error(err))
		return nil
	}
	return embedding
}

// prediction loads the label's state and asks the model for a class. A nil
// prediction (no state, untrained model, or no embedding) forces the pure
// rule path. Corrupt persisted state is surfaced, never reset here.
func (s *Service) prediction(ctx context.Context, userID string, label core.LabelType, embedding []float32) (*scoring.Prediction, int, error) {
	if len(embedding) == 0 {
		return nil, 0, nil
	}
	state, err := s.states.Load(ctx, userID, label)
	if errors.Is(err, core.ErrStateNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load classifier state: %w", err)
	}
	model, err := classifier.Unmarshal(state.Model)
	if err != nil {
		return nil, 0, err
	}
	class, conf, ok := model.Predict(embedding)
	if !ok {
		return nil, state.CorrectionCount, nil
	}
	return &scoring.Prediction{Score: class, Confidence: conf}, state.CorrectionCount, nil
}

func (s *Service) vipBoost(ctx context.Context, input core.ScoringInput) int {
	entries, err := s.settings.VIPSenders(ctx, input.UserID, input.AccountID)
	if err != nil {
		s.logger.Error("failed to load vip senders", zap.Error(err),
			zap.String("user_id", input.UserID))
		return 0
	}
	return scoring.NewVIPResolver(entries, s.logger).Boost(input.Sender)
}

func (s *Service) scoringConfig(ctx context.Context, userID, accountID string) core.ScoringConfiguration {
	cfg, err := s.settings.ScoringConfiguration(ctx, userID, accountID)
	if err != nil {
		s.warnDefaultsOnce(userID, accountID, "scoring", err)
		return core.DefaultScoringConfiguration()
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("invalid scoring configuration, using defaults",
			zap.Error(err),
			zap.String("user_id", userID))
		return core.DefaultScoringConfiguration()
	}
	return *cfg
}

func (s *Service) keywordConfig(ctx context.Context, userID, accountID string) *core.KeywordConfiguration {
	cfg, err := s.settings.KeywordConfiguration(ctx, userID, accountID)
	if err != nil {
		s.warnDefaultsOnce(userID, accountID, "keywords", err)
		return core.DefaultKeywordConfiguration()
	}
	return cfg
}

func (s *Service) warnDefaultsOnce(userID, accountID, kind string, err error) {
	key := kind + "/" + userID + "/" + accountID
	if _, warned := s.warnedDefaults.LoadOrStore(key, struct{}{}); warned {
		return
	}
	if errors.Is(err, core.ErrConfigurationMissing) {
		s.logger.Info("no stored configuration, using defaults",
			zap.String("kind", kind),
			zap.String("user_id", userID),
			zap.String("account_id", accountID))
		return
	}
	s.logger.Error("failed to load configuration, using defaults",
		zap.Error(err),
		zap.String("kind", kind),
		zap.String("user_id", userID))
}

// confidence estimates how much the caller should trust the result. The
// rule path contributes the strongest detector confidence; the classifier
// contributes its softmax confidence scaled by its ensemble weight. Callers
// route low-confidence messages to a slower classifier.
func confidence(
	in scoring.RuleInputs,
	degraded bool,
	urgencyPred *scoring.Prediction, urgencyCount int,
	importancePred *scoring.Prediction, importanceCount int,
) float64 {
	ruleConf := baseRuleConfidence
	if in.Urgency.Count+in.Importance.Count+in.Invoice.Count+
		in.Newsletter.Count+in.AutoReply.Count+in.Informational.Count > 0 {
		ruleConf = keywordConfidence
	}
	if in.Deadline.Confidence > ruleConf {
		ruleConf = in.Deadline.Confidence
	}
	if in.Intent.Confidence > ruleConf {
		ruleConf = in.Intent.Confidence
	}
	if degraded && ruleConf > degradedRuleConfCeil {
		ruleConf = degradedRuleConfCeil
	}

	labelConf := func(pred *scoring.Prediction, count int) float64 {
		if pred == nil {
			return ruleConf
		}
		ruleWeight, classifierWeight := scoring.Weights(count)
		return ruleWeight*ruleConf + classifierWeight*pred.Confidence
	}
	return (labelConf(urgencyPred, urgencyCount) + labelConf(importancePred, importanceCount)) / 2
}

func lockKey(userID string, label core.LabelType) string {
	return userID + ":" + string(label)
}
