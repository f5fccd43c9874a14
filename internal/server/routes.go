package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openfloor/debateprep/internal/engine"
	"github.com/openfloor/debateprep/internal/export"
	"github.com/openfloor/debateprep/internal/provider"
	"github.com/openfloor/debateprep/internal/store"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineError maps engine errors to HTTP statuses: validation failures are
// the caller's fault, everything else is a storage problem.
func engineError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "provider not configured")
		return
	}

	models, err := s.provider.Models(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.providerCfg.Name,
		"default":  s.providerCfg.Model,
		"models":   models,
	})
}

// --- sessions ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Topic string `json:"topic"`
		Rules string `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "title and topic required")
		return
	}

	sess, err := s.db.CreateSession(req.Title, req.Topic, req.Rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSON(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := s.db.ListSessions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]any, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionJSON(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sessionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	sess, err := s.db.GetSession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	participants, err := s.db.ListParticipants(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	turns, err := s.db.ListTurns(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pOut := make([]map[string]any, 0, len(participants))
	for i := range participants {
		pOut = append(pOut, participantJSON(&participants[i]))
	}
	tOut := make([]map[string]any, 0, len(turns))
	for i := range turns {
		tOut = append(tOut, turnJSON(&turns[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":      sessionJSON(sess),
		"participants": pOut,
		"turns":        tOut,
	})
}

func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sessionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.db.GetSession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	participants, err := s.db.ListParticipants(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	turns, err := s.db.ListTurns(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	providerModel := ""
	if s.provider != nil {
		providerModel = s.providerCfg.Name + "/" + s.providerCfg.Model
	}

	content, err := export.Session(sess, participants, turns, format, providerModel)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contentType := "text/plain; charset=utf-8"
	switch format {
	case export.Markdown:
		contentType = "text/markdown; charset=utf-8"
	case export.HTML:
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(content))
}

// --- participants and turns ---

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sessionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Position    string `json:"position"`
		Constraints string `json:"constraints"`
		Disallowed  string `json:"disallowed"`
		KeySources  string `json:"key_sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Position) == "" {
		writeError(w, http.StatusBadRequest, "name and position required")
		return
	}

	sess, err := s.db.GetSession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	p, err := s.db.AddParticipant(id, req.Name, req.Position, req.Constraints, req.Disallowed, req.KeySources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, participantJSON(p))
}

func (s *Server) handleAddTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sessionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req struct {
		ParticipantID int64  `json:"participant_id"`
		Content       string `json:"content"`
		TokenCount    int    `json:"token_count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ParticipantID <= 0 || req.Content == "" {
		writeError(w, http.StatusBadRequest, "participant_id and content required")
		return
	}

	t, err := s.db.AddTurn(id, req.ParticipantID, req.Content, req.TokenCount, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, turnJSON(t))
}

// handleRateTurn records a rating. A downvote carrying critique fields also
// feeds the participant's critique memory.
func (s *Server) handleRateTurn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "turnID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid turn id")
		return
	}

	var req struct {
		Rating     int    `json:"rating"`
		Reason     string `json:"reason"`
		Rule       string `json:"rule"`
		BadPattern string `json:"bad_pattern"`
		Guidance   string `json:"guidance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Rating != store.RatingUp && req.Rating != store.RatingDown {
		writeError(w, http.StatusBadRequest, "rating must be 1 or -1")
		return
	}

	turn, err := s.db.GetTurn(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turn == nil {
		writeError(w, http.StatusNotFound, "turn not found")
		return
	}

	if err := s.db.RateTurn(id, req.Rating, req.Reason); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	critiqued := false
	if req.Rating == store.RatingDown && strings.TrimSpace(req.Rule) != "" {
		if err := s.engine.SubmitCritique(turn.ParticipantID, req.Rule, req.BadPattern, req.Guidance); err != nil {
			engineError(w, err)
			return
		}
		critiqued = true
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "critiqued": critiqued})
}

// --- critique memory ---

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "participantID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	rules, err := s.engine.ListRules(id)
	if err != nil {
		engineError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(rules))
	for i := range rules {
		out = append(out, ruleJSON(&rules[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubmitCritique(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "participantID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	var req struct {
		Rule       string `json:"rule"`
		BadPattern string `json:"bad_pattern"`
		Guidance   string `json:"guidance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.engine.SubmitCritique(id, req.Rule, req.BadPattern, req.Guidance); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "participantID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	var req struct {
		UsedRuleIDs []int64 `json:"used_rule_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.engine.ApplyTurnDecay(id, req.UsedRuleIDs); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGuidance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "participantID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}
	maxTokens, _ := strconv.Atoi(r.URL.Query().Get("max_tokens"))

	guidance, ruleIDs, err := s.engine.ComposeGuidance(id, maxTokens)
	if err != nil {
		if errors.Is(err, engine.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Composition failures never block callers; degrade to empty guidance.
		log.Printf("compose guidance for %d: %v", id, err)
		guidance, ruleIDs = "", nil
	}

	if ruleIDs == nil {
		ruleIDs = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"guidance": guidance,
		"rule_ids": ruleIDs,
	})
}

// handleGenerate runs one opponent turn: compose guidance, call the
// provider, store the turn, decay the rules that were not surfaced.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "participantID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "provider not configured")
		return
	}

	var req struct {
		Prompt    string `json:"prompt"`
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt required")
		return
	}

	p, err := s.db.GetParticipant(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "participant not found")
		return
	}

	// Guidance composition must never block generation.
	guidance, usedRuleIDs, err := s.engine.ComposeGuidance(id, 0)
	if err != nil {
		log.Printf("compose guidance for %d: %v", id, err)
		guidance, usedRuleIDs = "", nil
	}

	prompt := buildPrompt(p, req.Prompt, guidance)
	model := req.Model
	if model == "" {
		model = s.providerCfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.providerCfg.MaxTokens
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	resp, err := s.provider.Generate(ctx, provider.Request{
		Prompt:      prompt,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: s.providerCfg.Temperature,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	turn, err := s.db.AddTurn(p.SessionID, p.ID, resp.Content, resp.TokensUsed, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The surfaced rules were exercised this turn; everything else weakens.
	if err := s.engine.ApplyTurnDecay(id, usedRuleIDs); err != nil {
		log.Printf("turn decay for %d: %v", id, err)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"turn":     turnJSON(turn),
		"guidance": guidance,
		"provider": resp.Provider,
	})
}

func buildPrompt(p *store.Participant, userPrompt, guidance string) string {
	var b strings.Builder
	b.WriteString("You are " + p.Name + ", arguing the position: " + p.Position + ".\n")
	if p.Constraints != "" {
		b.WriteString("Constraints: " + p.Constraints + "\n")
	}
	if p.Disallowed != "" {
		b.WriteString("Never do the following: " + p.Disallowed + "\n")
	}
	if p.KeySources != "" {
		b.WriteString("Key sources: " + p.KeySources + "\n")
	}
	if guidance != "" {
		b.WriteString("\nFeedback from previous turns — follow this guidance:\n")
		b.WriteString(guidance)
		b.WriteString("\n")
	}
	b.WriteString("\n" + userPrompt)
	return b.String()
}

// --- response shapes ---

func sessionJSON(s *store.Session) map[string]any {
	return map[string]any{
		"id":         s.ID,
		"title":      s.Title,
		"topic":      s.Topic,
		"rules":      s.Rules,
		"is_active":  s.IsActive,
		"created_at": s.CreatedAt,
		"updated_at": s.UpdatedAt,
	}
}

func participantJSON(p *store.Participant) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"session_id":  p.SessionID,
		"name":        p.Name,
		"position":    p.Position,
		"constraints": p.Constraints,
		"disallowed":  p.Disallowed,
		"key_sources": p.KeySources,
		"archived":    p.Archived,
		"created_at":  p.CreatedAt,
	}
}

func turnJSON(t *store.Turn) map[string]any {
	out := map[string]any{
		"id":             t.ID,
		"session_id":     t.SessionID,
		"participant_id": t.ParticipantID,
		"content":        t.Content,
		"token_count":    t.TokenCount,
		"is_incomplete":  t.IsIncomplete,
		"created_at":     t.CreatedAt,
	}
	if t.Rating != nil {
		out["rating"] = *t.Rating
	}
	if t.DownvoteReason != "" {
		out["downvote_reason"] = t.DownvoteReason
	}
	return out
}

func ruleJSON(r *store.CritiqueRule) map[string]any {
	return map[string]any{
		"id":             r.ID,
		"participant_id": r.ParticipantID,
		"rule":           r.Rule,
		"bad_pattern":    r.BadPattern,
		"guidance":       r.Guidance,
		"strength":       r.Strength,
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
	}
}
