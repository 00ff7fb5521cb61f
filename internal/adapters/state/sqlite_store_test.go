package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "u1", core.LabelUrgency); !errors.Is(err, core.ErrStateNotFound) {
		t.Errorf("Load on empty store = %v, want ErrStateNotFound", err)
	}

	saved := &core.ClassifierState{
		UserID:          "u1",
		Label:           core.LabelUrgency,
		Model:           []byte(`{"classes":11,"dim":0}`),
		CorrectionCount: 12,
		UpdatedAt:       time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "u1", core.LabelUrgency)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded.Model) != string(saved.Model) {
		t.Errorf("Model = %q, want %q", loaded.Model, saved.Model)
	}
	if loaded.CorrectionCount != 12 {
		t.Errorf("CorrectionCount = %d, want 12", loaded.CorrectionCount)
	}
	if !loaded.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", loaded.UpdatedAt, saved.UpdatedAt)
	}
}

func TestSQLiteStoreSaveReplacesExistingRow(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &core.ClassifierState{
		UserID: "u1", Label: core.LabelImportance,
		Model: []byte("one"), CorrectionCount: 1,
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := &core.ClassifierState{
		UserID: "u1", Label: core.LabelImportance,
		Model: []byte("two"), CorrectionCount: 2,
		UpdatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("replacing Save: %v", err)
	}

	loaded, err := store.Load(ctx, "u1", core.LabelImportance)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded.Model) != "two" || loaded.CorrectionCount != 2 {
		t.Errorf("loaded %+v, want the replacing row", loaded)
	}
}

func TestSQLiteStoreResetAndLabelIsolation(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, label := range []core.LabelType{core.LabelUrgency, core.LabelImportance} {
		if err := store.Save(ctx, &core.ClassifierState{
			UserID: "u1", Label: label, Model: []byte("m"),
			CorrectionCount: 1, UpdatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	if err := store.Reset(ctx, "u1", core.LabelUrgency); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := store.Load(ctx, "u1", core.LabelUrgency); !errors.Is(err, core.ErrStateNotFound) {
		t.Errorf("Load after reset = %v, want ErrStateNotFound", err)
	}
	if _, err := store.Load(ctx, "u1", core.LabelImportance); err != nil {
		t.Errorf("Load untouched label: %v", err)
	}
}
