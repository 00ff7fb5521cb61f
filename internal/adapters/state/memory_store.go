// Package state implements core.StateStore: persistence for the per-(user,
// label) online classifier state.
package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the StateStore interface,
// useful for tests and single-process deployments that accept losing the
// model on restart.
type MemoryStore struct {
	states map[string]*core.ClassifierState
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory state store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*core.ClassifierState),
		logger: logger,
	}
}

// Load retrieves the state for a user/label
func (s *MemoryStore) Load(ctx context.Context, userID string, label core.LabelType) (*core.ClassifierState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[stateKey(userID, label)]
	if !ok {
		return nil, core.ErrStateNotFound
	}
	return copyState(state), nil
}

// Save stores the state for a user/label
func (s *MemoryStore) Save(ctx context.Context, state *core.ClassifierState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[stateKey(state.UserID, state.Label)] = copyState(state)
	return nil
}

// Reset removes the state for a user/label
func (s *MemoryStore) Reset(ctx context.Context, userID string, label core.LabelType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, stateKey(userID, label))
	s.logger.Debug("Classifier state reset",
		zap.String("user_id", userID),
		zap.String("label", string(label)))
	return nil
}

func stateKey(userID string, label core.LabelType) string {
	return userID + "/" + string(label)
}

// copyState keeps callers from mutating the stored blob in place.
func copyState(state *core.ClassifierState) *core.ClassifierState {
	out := &core.ClassifierState{
		UserID:          state.UserID,
		Label:           state.Label,
		CorrectionCount: state.CorrectionCount,
		UpdatedAt:       state.UpdatedAt,
	}
	if state.Model != nil {
		out.Model = make([]byte, len(state.Model))
		copy(out.Model, state.Model)
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = time.Now()
	}
	return out
}
