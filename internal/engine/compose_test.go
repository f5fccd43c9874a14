package engine

import (
	"fmt"
	"strings"
	"testing"
)

func TestComposeGuidanceFiltersWeakRules(t *testing.T) {
	eng, db, p := testEngine(t)

	strongID, _ := db.InsertRule(p.ID, "uses ad hominem", "", "stick to the argument", 0.7)
	db.InsertRule(p.ID, "rambles", "", "be concise", 0.2)

	guidance, ids, err := eng.ComposeGuidance(p.ID, 0)
	if err != nil {
		t.Fatalf("ComposeGuidance: %v", err)
	}
	want := "- stick to the argument (strength: 0.70)"
	if guidance != want {
		t.Errorf("guidance = %q, want %q", guidance, want)
	}
	if len(ids) != 1 || ids[0] != strongID {
		t.Errorf("ids = %v, want [%d]", ids, strongID)
	}
}

func TestComposeGuidanceThresholdInclusive(t *testing.T) {
	eng, db, p := testEngine(t)

	// Exactly 0.3 is still active
	db.InsertRule(p.ID, "rambles", "", "be concise", 0.3)

	guidance, _, err := eng.ComposeGuidance(p.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if guidance != "- be concise (strength: 0.30)" {
		t.Errorf("guidance = %q", guidance)
	}
}

func TestComposeGuidanceTopFive(t *testing.T) {
	eng, db, p := testEngine(t)

	// Distinct strengths make list order deterministic
	for i := 0; i < 7; i++ {
		strength := 0.95 - float64(i)*0.05
		db.InsertRule(p.ID, fmt.Sprintf("rule %d", i), "", fmt.Sprintf("guidance %d", i), strength)
	}

	guidance, ids, err := eng.ComposeGuidance(p.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(guidance, "\n")
	if len(lines) != 5 {
		t.Fatalf("len(lines) = %d, want 5", len(lines))
	}
	if len(ids) != 5 {
		t.Fatalf("len(ids) = %d, want 5", len(ids))
	}
	// Strongest first
	if lines[0] != "- guidance 0 (strength: 0.95)" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if lines[4] != "- guidance 4 (strength: 0.75)" {
		t.Errorf("lines[4] = %q", lines[4])
	}
}

func TestComposeGuidanceEmptyWhenNoneActive(t *testing.T) {
	eng, db, p := testEngine(t)

	db.InsertRule(p.ID, "rambles", "", "be concise", 0.1)

	guidance, ids, err := eng.ComposeGuidance(p.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if guidance != "" {
		t.Errorf("guidance = %q, want empty", guidance)
	}
	if ids != nil {
		t.Errorf("ids = %v, want nil", ids)
	}
}

func TestComposeGuidanceTruncatesToSentence(t *testing.T) {
	eng, db, p := testEngine(t)

	db.InsertRule(p.ID, "uses ad hominem", "",
		"Avoid this. Extra padding that will not survive the budget cut", 0.7)

	// Budget of 5 tokens = 20 characters
	guidance, _, err := eng.ComposeGuidance(p.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if guidance != "- Avoid this." {
		t.Errorf("guidance = %q, want %q", guidance, "- Avoid this.")
	}
}

func TestComposeGuidanceDropsTruncatedRuleIDs(t *testing.T) {
	eng, db, p := testEngine(t)

	firstID, _ := db.InsertRule(p.ID, "uses ad hominem", "",
		"first guidance line with plenty of text and no stops", 0.9)
	db.InsertRule(p.ID, "rambles", "", "be concise", 0.8)

	// Budget of 10 tokens = 40 characters: the first line is cut mid-way
	// and the second line never appears. Only the first rule surfaced, so
	// only its id may be reported for decay exclusion.
	guidance, ids, err := eng.ComposeGuidance(p.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(guidance, "be concise") {
		t.Errorf("second rule should be truncated away, got %q", guidance)
	}
	if len(ids) != 1 || ids[0] != firstID {
		t.Errorf("ids = %v, want [%d]", ids, firstID)
	}
}

func TestComposeGuidanceSentenceTrimDropsTailIDs(t *testing.T) {
	eng, db, p := testEngine(t)

	firstID, _ := db.InsertRule(p.ID, "uses ad hominem", "",
		"Stay on topic. More words here without end", 0.9)
	db.InsertRule(p.ID, "rambles", "", "be concise", 0.8)

	guidance, ids, err := eng.ComposeGuidance(p.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if guidance != "- Stay on topic." {
		t.Errorf("guidance = %q", guidance)
	}
	if len(ids) != 1 || ids[0] != firstID {
		t.Errorf("ids = %v, want [%d]", ids, firstID)
	}
}

func TestComposeGuidanceHardCutWithoutSentence(t *testing.T) {
	eng, db, p := testEngine(t)

	db.InsertRule(p.ID, "uses ad hominem", "",
		"no sentence boundary anywhere in this guidance text at all", 0.7)

	guidance, _, err := eng.ComposeGuidance(p.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(guidance) != 20 {
		t.Errorf("len(guidance) = %d, want hard cut at 20", len(guidance))
	}
}

func TestComposeGuidanceWithinBudgetUntouched(t *testing.T) {
	eng, db, p := testEngine(t)

	db.InsertRule(p.ID, "uses ad hominem", "", "stick to the argument. Always", 0.7)

	guidance, _, err := eng.ComposeGuidance(p.ID, 200)
	if err != nil {
		t.Fatal(err)
	}
	if guidance != "- stick to the argument. Always (strength: 0.70)" {
		t.Errorf("guidance = %q", guidance)
	}
}

func TestComposeGuidanceUnknownParticipant(t *testing.T) {
	eng, _, _ := testEngine(t)

	if _, _, err := eng.ComposeGuidance(9999, 0); err == nil {
		t.Error("want error for unknown participant")
	}
}
