package engine

import (
	"math"
	"testing"

	"github.com/openfloor/debateprep/internal/store"
)

func TestMatchRuleThresholdBoundary(t *testing.T) {
	candidate := []float64{1, 0}

	// Unit vectors with exact cosines against the candidate
	at80 := []float64{0.80, math.Sqrt(1 - 0.80*0.80)}
	at79 := []float64{0.79, math.Sqrt(1 - 0.79*0.79)}

	rules := []store.CritiqueRule{{ID: 1, Rule: "rule one"}}

	matched, sim := matchRule(candidate, rules, [][]float64{at80})
	if matched == nil {
		t.Fatal("similarity 0.80 should match")
	}
	if sim != 0.80 {
		t.Errorf("sim = %v, want 0.80", sim)
	}

	matched, _ = matchRule(candidate, rules, [][]float64{at79})
	if matched != nil {
		t.Error("similarity 0.79 should not match")
	}
}

func TestMatchRuleFirstMatchWins(t *testing.T) {
	// Both rules clear the threshold; the first in input order (store
	// order: strongest/most recent first) wins even if the second scores
	// higher.
	candidate := []float64{1, 0}
	first := []float64{0.85, math.Sqrt(1 - 0.85*0.85)}
	second := []float64{1, 0}

	rules := []store.CritiqueRule{
		{ID: 1, Rule: "strongest rule"},
		{ID: 2, Rule: "perfect match"},
	}

	matched, sim := matchRule(candidate, rules, [][]float64{first, second})
	if matched == nil {
		t.Fatal("expected a match")
	}
	if matched.ID != 1 {
		t.Errorf("matched ID = %d, want 1 (first-match policy)", matched.ID)
	}
	if sim != 0.85 {
		t.Errorf("sim = %v, want 0.85", sim)
	}
}

func TestMatchRuleEmpty(t *testing.T) {
	matched, _ := matchRule([]float64{1, 0}, nil, nil)
	if matched != nil {
		t.Error("expected no match against empty rule set")
	}
}

func TestFallbackMatch(t *testing.T) {
	rules := []store.CritiqueRule{
		{ID: 1, Rule: "uses ad hominem"},
		{ID: 2, Rule: "misquotes statistics"},
	}

	if m := fallbackMatch("USES AD HOMINEM", rules); m == nil || m.ID != 1 {
		t.Errorf("case-insensitive exact match failed: %+v", m)
	}
	// The fallback is a safety net, not a similarity algorithm
	if m := fallbackMatch("uses ad hominem attacks", rules); m != nil {
		t.Errorf("fallback must not merge non-identical text, got %+v", m)
	}
}
