package reactive_test

import (
	"math"
	"testing"

	"github.com/voxmind/voxmind/domain/reactive"
)

func TestCurves(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		curve reactive.Curve
		in    float64
		want  float64
	}{
		{"linear mid", reactive.Linear(), 0.5, 0.5},
		{"linear clamps high", reactive.Linear(), 1.7, 1.0},
		{"linear clamps low", reactive.Linear(), -0.3, 0.0},
		{"quadratic", reactive.Quadratic(), 0.5, 0.25},
		{"inverse", reactive.Inverse(), 0.2, 0.8},
		{"logistic midpoint", reactive.Logistic(10, 0.5), 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.curve(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("curve(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCandidate_Score(t *testing.T) {
	t.Parallel()

	c := reactive.Candidate{
		ID:       "combat",
		Severity: reactive.SeveritySoft,
		Considerations: []reactive.Consideration{
			{Weight: 2, Curve: reactive.Linear(), Input: func(f reactive.Facts) float64 { return f.Get("threat") }},
			{Weight: 1, Curve: reactive.Inverse(), Input: func(f reactive.Facts) float64 { return f.Get("health") }},
		},
	}

	// threat 0.9 weighted 2, inverted health 0.5 weighted 1 → (1.8+0.5)/3
	got := c.Score(reactive.Facts{"threat": 0.9, "health": 0.5})
	want := (2*0.9 + 1*0.5) / 3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score() = %v, want %v", got, want)
	}

	// No considerations → zero.
	if (reactive.Candidate{ID: "empty"}).Score(nil) != 0 {
		t.Error("candidate without considerations should score 0")
	}
}

func constInput(v float64) func(reactive.Facts) float64 {
	return func(reactive.Facts) float64 { return v }
}

func TestSelector_Evaluate(t *testing.T) {
	t.Parallel()

	flee := reactive.Candidate{
		ID:       "flee",
		Severity: reactive.SeverityCritical,
		Considerations: []reactive.Consideration{
			{Weight: 1, Input: func(f reactive.Facts) float64 { return f.Get("danger") }},
		},
	}
	eat := reactive.Candidate{
		ID:       "eat",
		Severity: reactive.SeveritySoft,
		Considerations: []reactive.Consideration{
			{Weight: 1, Input: func(f reactive.Facts) float64 { return f.Get("hunger") }},
		},
	}
	s := reactive.NewSelector(flee, eat)

	t.Run("fires above inertia", func(t *testing.T) {
		t.Parallel()

		sig, ok := s.Evaluate(reactive.Facts{"danger": 0.9, "hunger": 0.2}, 0.5)
		if !ok {
			t.Fatal("expected a signal")
		}
		if sig.CandidateID != "flee" || sig.Severity != reactive.SeverityCritical {
			t.Errorf("signal = %+v, want flee/critical", sig)
		}
		if math.Abs(sig.Utility-0.9) > 1e-9 {
			t.Errorf("Utility = %v, want 0.9", sig.Utility)
		}
	})

	t.Run("silent at or below inertia", func(t *testing.T) {
		t.Parallel()

		if _, ok := s.Evaluate(reactive.Facts{"danger": 0.5}, 0.5); ok {
			t.Error("score equal to inertia should not fire")
		}
	})

	t.Run("ties break to lowest candidate ID", func(t *testing.T) {
		t.Parallel()

		a := reactive.Candidate{ID: "b-second", Severity: reactive.SeveritySoft,
			Considerations: []reactive.Consideration{{Weight: 1, Input: constInput(0.8)}}}
		b := reactive.Candidate{ID: "a-first", Severity: reactive.SeverityCritical,
			Considerations: []reactive.Consideration{{Weight: 1, Input: constInput(0.8)}}}

		// Registration order should not matter.
		sel := reactive.NewSelector(a, b)
		sig, ok := sel.Evaluate(nil, 0.1)
		if !ok {
			t.Fatal("expected a signal")
		}
		if sig.CandidateID != "a-first" {
			t.Errorf("tie broke to %s, want a-first", sig.CandidateID)
		}
	})
}
