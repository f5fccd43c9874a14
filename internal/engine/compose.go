package engine

import (
	"fmt"
	"strings"
)

const (
	activeThreshold  = 0.3 // rules below this strength drop out of guidance
	maxGuidanceRules = 5
	defaultMaxTokens = 200
	charsPerToken    = 4 // character-based token estimate
)

// ComposeGuidance renders a token-budgeted summary of the participant's
// active rules for inclusion in a generation prompt, along with the ids of
// the rules it surfaced (feed these back to ApplyTurnDecay after the turn).
//
// Always computed fresh from current strengths, never cached.
func (e *Engine) ComposeGuidance(participantID int64, maxTokens int) (string, []int64, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	rules, err := e.ListRules(participantID)
	if err != nil {
		return "", nil, fmt.Errorf("compose guidance: %w", err)
	}

	// Active rules only; list order is already strength DESC, recency DESC
	var lines []string
	var ids []int64
	for _, r := range rules {
		if r.Strength < activeThreshold {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (strength: %.2f)", r.Guidance, r.Strength))
		ids = append(ids, r.ID)
		if len(lines) == maxGuidanceRules {
			break
		}
	}
	if len(lines) == 0 {
		return "", nil, nil
	}

	guidance := strings.Join(lines, "\n")

	if len(guidance)/charsPerToken > maxTokens {
		maxChars := maxTokens * charsPerToken
		if maxChars < len(guidance) {
			guidance = guidance[:maxChars]
		}
		// Trim back to the last complete sentence if one exists in the
		// truncated span; otherwise the hard character cut stands.
		if last := strings.LastIndex(guidance, "."); last > 0 {
			guidance = guidance[:last+1]
		}
		// Truncation can drop whole lines from the tail. A rule only counts
		// as surfaced if some of its line made it into the final text;
		// otherwise decay would skip rules the prompt never carried.
		offset := 0
		kept := 0
		for _, line := range lines {
			if offset >= len(guidance) {
				break
			}
			kept++
			offset += len(line) + 1
		}
		ids = ids[:kept]
	}

	return guidance, ids, nil
}
