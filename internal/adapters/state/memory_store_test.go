package state

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/mail-triage/internal/core"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	if _, err := store.Load(ctx, "u1", core.LabelUrgency); !errors.Is(err, core.ErrStateNotFound) {
		t.Errorf("Load on empty store = %v, want ErrStateNotFound", err)
	}

	saved := &core.ClassifierState{
		UserID:          "u1",
		Label:           core.LabelUrgency,
		Model:           []byte(`{"classes":11}`),
		CorrectionCount: 7,
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, "u1", core.LabelUrgency)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.CorrectionCount != 7 || string(loaded.Model) != `{"classes":11}` {
		t.Errorf("loaded %+v, want the saved state back", loaded)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on save")
	}
}

func TestMemoryStoreKeysOnUserAndLabel(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	for _, s := range []*core.ClassifierState{
		{UserID: "u1", Label: core.LabelUrgency, CorrectionCount: 1},
		{UserID: "u1", Label: core.LabelImportance, CorrectionCount: 2},
		{UserID: "u2", Label: core.LabelUrgency, CorrectionCount: 3},
	} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	loaded, err := store.Load(ctx, "u1", core.LabelImportance)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.CorrectionCount != 2 {
		t.Errorf("CorrectionCount = %d, want 2", loaded.CorrectionCount)
	}
}

func TestMemoryStoreCopiesBlobOnLoadAndSave(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	blob := []byte("original")
	if err := store.Save(ctx, &core.ClassifierState{
		UserID: "u1", Label: core.LabelSpam, Model: blob,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	blob[0] = 'X'

	loaded, err := store.Load(ctx, "u1", core.LabelSpam)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded.Model) != "original" {
		t.Errorf("stored blob mutated through the caller's slice: %q", loaded.Model)
	}

	loaded.Model[0] = 'Y'
	again, _ := store.Load(ctx, "u1", core.LabelSpam)
	if string(again.Model) != "original" {
		t.Errorf("stored blob mutated through a loaded copy: %q", again.Model)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	if err := store.Save(ctx, &core.ClassifierState{UserID: "u1", Label: core.LabelUrgency}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Reset(ctx, "u1", core.LabelUrgency); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := store.Load(ctx, "u1", core.LabelUrgency); !errors.Is(err, core.ErrStateNotFound) {
		t.Errorf("Load after reset = %v, want ErrStateNotFound", err)
	}
	// Resetting a missing key is not an error.
	if err := store.Reset(ctx, "nobody", core.LabelUrgency); err != nil {
		t.Errorf("Reset on missing key: %v", err)
	}
}
