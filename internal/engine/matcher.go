package engine

import (
	"strings"

	"github.com/openfloor/debateprep/internal/store"
)

// similarityThreshold is the rounded-cosine cutoff above which two rules are
// treated as the same critique.
const similarityThreshold = 0.80

// matchRule returns the first rule in input order whose rounded cosine
// similarity to the candidate vector clears the threshold, or nil.
//
// First-match, not best-match: the input order is the store order
// (strength DESC, recency DESC), so near-ties resolve in favor of the
// currently strongest rule.
func matchRule(candidate []float64, rules []store.CritiqueRule, vecs [][]float64) (*store.CritiqueRule, float64) {
	for i := range rules {
		sim := round2(CosineSimilarity(candidate, vecs[i]))
		if sim >= similarityThreshold {
			return &rules[i], sim
		}
	}
	return nil, 0
}

// fallbackMatch is the degraded-mode matcher used when vectorization is
// unavailable: exact case-insensitive equality on rule text. It never merges
// similar-but-not-identical rules.
func fallbackMatch(ruleText string, rules []store.CritiqueRule) *store.CritiqueRule {
	for i := range rules {
		if strings.EqualFold(rules[i].Rule, ruleText) {
			return &rules[i]
		}
	}
	return nil
}
