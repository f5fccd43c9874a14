package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openfloor/debateprep/internal/config"
	"github.com/openfloor/debateprep/internal/engine"
	"github.com/openfloor/debateprep/internal/provider"
	"github.com/openfloor/debateprep/internal/store"
)

// Server is the debateprep HTTP API server.
type Server struct {
	db          *store.DB
	engine      *engine.Engine
	provider    provider.Client // nil when no provider is configured
	providerCfg config.ProviderConfig
	router      chi.Router
	version     string
	started     time.Time
}

// New creates a new Server. prov may be nil; generation endpoints then
// return 503 while the critique memory API keeps working.
func New(db *store.DB, eng *engine.Engine, prov provider.Client, providerCfg config.ProviderConfig, version string) *Server {
	s := &Server{
		db:          db,
		engine:      eng,
		provider:    prov,
		providerCfg: providerCfg,
		version:     version,
		started:     time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Get("/sessions/{sessionID}/export", s.handleExportSession)
		r.Post("/sessions/{sessionID}/participants", s.handleAddParticipant)
		r.Post("/sessions/{sessionID}/turns", s.handleAddTurn)

		r.Post("/turns/{turnID}/rate", s.handleRateTurn)

		r.Get("/participants/{participantID}/rules", s.handleListRules)
		r.Post("/participants/{participantID}/critiques", s.handleSubmitCritique)
		r.Post("/participants/{participantID}/decay", s.handleDecay)
		r.Get("/participants/{participantID}/guidance", s.handleGuidance)
		r.Post("/participants/{participantID}/generate", s.handleGenerate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
