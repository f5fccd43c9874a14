package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/openfloor/debateprep/internal/store"
)

const (
	mergeBoost    = 0.1  // strength gained when a critique merges into a rule
	decayAmount   = 0.02 // strength lost per turn a rule goes unused
	strengthFloor = 0.1
	strengthCap   = 1.0
)

// ErrValidation is returned for malformed input (empty rule text, unknown
// participant). No store mutation happens when it fires.
var ErrValidation = errors.New("invalid input")

// Engine is the critique memory engine. It deduplicates critiques by merging
// similar ones, weakens rules that go unused, and composes token-budgeted
// guidance from what remains.
//
// Read-then-write sequences are serialized per participant so two concurrent
// critiques cannot miss each other and insert near-identical rules, and decay
// cannot clobber a concurrent merge. Different participants proceed in
// parallel.
type Engine struct {
	db         *store.DB
	vectorizer Vectorizer

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates an Engine over the given store with the default
// unigram+bigram vectorizer.
func New(db *store.DB) *Engine {
	return &Engine{
		db:         db,
		vectorizer: NewNgramVectorizer(512),
		locks:      make(map[int64]*sync.Mutex),
	}
}

// SetVectorizer swaps the featurization backend.
func (e *Engine) SetVectorizer(v Vectorizer) {
	e.vectorizer = v
}

func (e *Engine) participantLock(participantID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[participantID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[participantID] = l
	}
	return l
}

// SubmitCritique records a downvote critique for a participant. If the rule
// text is similar enough to an existing rule, the critique merges into it
// (strength +0.1 capped at 1.0, guidance concatenated); otherwise a new rule
// is inserted at the default strength.
func (e *Engine) SubmitCritique(participantID int64, rule, badPattern, guidance string) error {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return fmt.Errorf("%w: rule text required", ErrValidation)
	}
	if err := e.checkParticipant(participantID); err != nil {
		return err
	}

	lock := e.participantLock(participantID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.db.ListRules(participantID)
	if err != nil {
		return fmt.Errorf("submit critique: %w", err)
	}

	matched := e.findSimilar(rule, existing)
	if matched == nil {
		if _, err := e.db.InsertRule(participantID, rule, badPattern, guidance, store.DefaultStrength); err != nil {
			return fmt.Errorf("submit critique: %w", err)
		}
		return nil
	}

	newStrength := round2(matched.Strength + mergeBoost)
	if newStrength > strengthCap {
		newStrength = strengthCap
	}
	combined := matched.Guidance + "; " + guidance
	if err := e.db.UpdateRule(matched.ID, newStrength, combined); err != nil {
		return fmt.Errorf("submit critique: %w", err)
	}
	return nil
}

// findSimilar vectorizes the candidate plus all existing rule texts as one
// batch and runs the matcher. A vectorizer failure degrades to exact
// case-insensitive matching rather than surfacing an error.
func (e *Engine) findSimilar(rule string, existing []store.CritiqueRule) *store.CritiqueRule {
	if len(existing) == 0 {
		return nil
	}

	texts := make([]string, 0, len(existing)+1)
	texts = append(texts, rule)
	for _, r := range existing {
		texts = append(texts, r.Rule)
	}

	vecs, err := e.vectorizer.Vectorize(texts)
	if err != nil {
		log.Printf("vectorizer unavailable, exact-match fallback: %v", err)
		return fallbackMatch(rule, existing)
	}

	matched, _ := matchRule(vecs[0], existing, vecs[1:])
	return matched
}

// ApplyTurnDecay weakens every rule of the participant not in usedRuleIDs by
// the fixed decay amount, floored at 0.1. Rules whose guidance surfaced in
// the last turn are left untouched.
func (e *Engine) ApplyTurnDecay(participantID int64, usedRuleIDs []int64) error {
	if err := e.checkParticipant(participantID); err != nil {
		return err
	}

	lock := e.participantLock(participantID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.db.DecayRules(participantID, usedRuleIDs, decayAmount, strengthFloor); err != nil {
		return fmt.Errorf("apply decay: %w", err)
	}
	return nil
}

// ListRules returns the participant's rules in store order
// (strength DESC, recency DESC).
func (e *Engine) ListRules(participantID int64) ([]store.CritiqueRule, error) {
	if err := e.checkParticipant(participantID); err != nil {
		return nil, err
	}
	return e.db.ListRules(participantID)
}

func (e *Engine) checkParticipant(participantID int64) error {
	p, err := e.db.GetParticipant(participantID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if p == nil {
		return fmt.Errorf("%w: unknown participant %d", ErrValidation, participantID)
	}
	return nil
}
