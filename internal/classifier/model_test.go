package classifier

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/mikey/mail-triage/internal/core"
)

func TestPredictBeforeAnyTrainingReportsNotOK(t *testing.T) {
	m := New(11)
	if _, _, ok := m.Predict([]float32{0.1, 0.2, 0.3}); ok {
		t.Error("untrained model reported a usable prediction")
	}
}

func TestLearnMovesPredictionTowardCorrectedClass(t *testing.T) {
	m := New(2)
	rng := rand.New(rand.NewSource(7))

	// Two well-separated clusters: class 0 around -1, class 1 around +1.
	sample := func(center float32) []float32 {
		x := make([]float32, 8)
		for j := range x {
			x[j] = center + float32(rng.NormFloat64())*0.1
		}
		return x
	}

	for i := 0; i < 60; i++ {
		if err := m.Learn(sample(-1), 0); err != nil {
			t.Fatalf("Learn: %v", err)
		}
		if err := m.Learn(sample(1), 1); err != nil {
			t.Fatalf("Learn: %v", err)
		}
	}

	class, conf, ok := m.Predict(sample(1))
	if !ok {
		t.Fatal("trained model reported not ok")
	}
	if class != 1 {
		t.Errorf("Predict = class %d, want 1", class)
	}
	if conf <= 0.5 || conf > 1.0 {
		t.Errorf("confidence = %v, want in (0.5, 1.0]", conf)
	}

	if class, _, _ := m.Predict(sample(-1)); class != 0 {
		t.Errorf("Predict = class %d, want 0", class)
	}
}

func TestLearnRejectsInvalidInputs(t *testing.T) {
	m := New(2)
	if err := m.Learn([]float32{1, 2}, 2); err == nil {
		t.Error("expected an error for an out-of-range class")
	}
	if err := m.Learn([]float32{1, 2}, -1); err == nil {
		t.Error("expected an error for a negative class")
	}
	if err := m.Learn(nil, 0); err == nil {
		t.Error("expected an error for an empty embedding")
	}

	if err := m.Learn([]float32{1, 2, 3}, 0); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if err := m.Learn([]float32{1, 2}, 0); err == nil {
		t.Error("expected an error for a dimension mismatch")
	}
}

func TestPredictRejectsDimensionMismatch(t *testing.T) {
	m := New(2)
	if err := m.Learn([]float32{1, 2, 3}, 1); err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if _, _, ok := m.Predict([]float32{1, 2}); ok {
		t.Error("mismatched embedding reported a usable prediction")
	}
}

func TestMarshalRoundTripPreservesPredictions(t *testing.T) {
	m := New(3)
	inputs := [][]float32{
		{0.2, -1.1, 0.4, 2.0},
		{1.5, 0.3, -0.2, 0.1},
		{-0.7, 0.9, 1.2, -0.5},
	}
	for i, x := range inputs {
		for round := 0; round < 5; round++ {
			if err := m.Learn(x, i); err != nil {
				t.Fatalf("Learn: %v", err)
			}
		}
	}

	blob, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, x := range inputs {
		wantClass, wantConf, wantOK := m.Predict(x)
		gotClass, gotConf, gotOK := restored.Predict(x)
		if gotClass != wantClass || gotConf != wantConf || gotOK != wantOK {
			t.Errorf("restored prediction (%d, %v, %t) differs from original (%d, %v, %t)",
				gotClass, gotConf, gotOK, wantClass, wantConf, wantOK)
		}
	}
}

func TestUnmarshalRejectsCorruptState(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"not json", []byte("garbage")},
		{"zero classes", []byte(`{"classes":0,"dim":4}`)},
		{"row count mismatch", []byte(`{"classes":2,"dim":2,"weights":[[0,0,0]]}`)},
		{"row length mismatch", []byte(`{"classes":2,"dim":2,"weights":[[0,0],[0,0]]}`)},
		{"missing normalizer with updates", []byte(`{"classes":2,"dim":2,"weights":[[0,0,0],[0,0,0]],"updates":3}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.blob); !errors.Is(err, core.ErrStateCorrupt) {
				t.Errorf("Unmarshal error = %v, want ErrStateCorrupt", err)
			}
		})
	}
}

func TestUnmarshalRejectsTruncatedNormalizer(t *testing.T) {
	// A blob with consistent weight shapes but normalizer arrays shorter
	// than the feature dimension must not reach Predict, which would index
	// past the end of the mean vector.
	m := New(2)
	for i := 0; i < 3; i++ {
		if err := m.Learn([]float32{0.1, 0.2, 0.3, 0.4}, 1); err != nil {
			t.Fatalf("Learn: %v", err)
		}
	}
	blob, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		t.Fatalf("decode blob: %v", err)
	}
	raw["norm"] = json.RawMessage(`{"count":2,"mean":[0.5],"m2":[0.1]}`)
	mangled, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("encode blob: %v", err)
	}

	if _, err := Unmarshal(mangled); !errors.Is(err, core.ErrStateCorrupt) {
		t.Errorf("Unmarshal error = %v, want ErrStateCorrupt", err)
	}
}
