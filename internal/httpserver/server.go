// internal/httpserver/server.go
//
// HTTP wiring for the crossword game shell.
// Responsibilities:
//   - Router + middleware (JSON, request IDs, timeouts, panic recovery,
//     request logging).
//   - Auth endpoints: /auth/signup, /auth/login, /auth/guestname.
//   - Session endpoints: create, observe, answer, give up, pause, abandon.
//   - Player roster and per-player stats.
//   - PDF report endpoints for session outcomes and the roster.
//   - Outcome persistence: each session is watched for its terminal
//     snapshot and recorded exactly once; persistence failure is a
//     non-fatal warning surfaced in the session snapshot.
//
// The API is a local shell transport for a desktop front-end, not a
// networked game service: state lives in the process and the server is
// expected to listen on localhost.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/idziarhai/crossword/internal/game"
	"github.com/idziarhai/crossword/internal/player"
	"github.com/idziarhai/crossword/internal/question"
	"github.com/idziarhai/crossword/internal/report"
	"github.com/idziarhai/crossword/internal/store"
)

// Save states reported alongside session snapshots.
const (
	saveStatePending = "pending"
	saveStateSaved   = "saved"
	saveStateFailed  = "failed"
)

// Server bundles the router, the live-session registry, and both stores.
type Server struct {
	r         *chi.Mux
	sessions  store.Registry
	players   *player.Store
	questions *question.Store

	jwtSecret []byte
	tokenTTL  time.Duration

	mu        sync.Mutex
	saveState map[string]string // session ID -> pending/saved/failed
}

// New constructs a Server, installs middleware, and registers routes.
func New(reg store.Registry, players *player.Store, questions *question.Store, jwtSecret string, tokenTTL time.Duration) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		sessions:  reg,
		players:   players,
		questions: questions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		saveState: make(map[string]string),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(requestLogger)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"crossword","endpoints":["/health","/auth/*","/sessions","/players","/reports/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Auth
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Get("/auth/guestname", s.handleGuestName)

	// Sessions
	s.r.Post("/sessions", s.handleNewSession)
	s.r.Get("/sessions/{id}", s.handleSessionState)
	s.r.Post("/sessions/{id}/answer", s.handleAnswer)
	s.r.Post("/sessions/{id}/giveup", s.handleGiveUp)
	s.r.Post("/sessions/{id}/pause", s.handleTogglePause)
	s.r.Delete("/sessions/{id}", s.handleAbandon)

	// Players
	s.r.Get("/players", s.handleRoster)
	s.r.With(s.requireAuth()).Get("/players/me", s.handleMe)

	// Reports
	s.r.Get("/reports/sessions/{id}", s.handleSessionReport)
	s.r.Get("/reports/players", s.handleRosterReport)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
// PDF handlers overwrite it before writing.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func contextWithPlayer(r *http.Request, name string) context.Context {
	return context.WithValue(r.Context(), ctxPlayerKey{}, name)
}

// ------------------------------ SESSIONS -----------------------------------

// newSessionReq carries the configuration fixed by the shell plus one
// player token per participant, in turn order. Tokens prove that every
// participant authenticated before the session starts.
type newSessionReq struct {
	Tokens     []string `json:"tokens"`
	Difficulty string   `json:"difficulty"`
	Mode       string   `json:"mode"`
	Category   string   `json:"category"`
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	var req newSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}

	difficulty, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	category := req.Category
	if category == "" {
		category = "en"
	}

	// Resolve participant names from tokens, preserving turn order.
	seen := make(map[string]bool, len(req.Tokens))
	participants := make([]string, 0, len(req.Tokens))
	for _, tok := range req.Tokens {
		name, err := s.verifyToken(tok)
		if err != nil {
			http.Error(w, `{"error":"participant token invalid"}`, http.StatusUnauthorized)
			return
		}
		if seen[name] {
			http.Error(w, `{"error":"duplicate participant"}`, http.StatusBadRequest)
			return
		}
		seen[name] = true
		participants = append(participants, name)
	}

	qs, err := s.questions.Sample(r.Context(), category, string(difficulty), game.SampleSize)
	if err != nil {
		log.Error().Err(err).Msg("sample questions")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	sess, err := game.New(game.Config{
		Participants: participants,
		Difficulty:   difficulty,
		Mode:         mode,
		Category:     category,
	}, qs)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	if err := s.sessions.Save(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setSaveState(sess.ID(), saveStatePending)

	// The watcher persists the outcome once the terminal snapshot arrives;
	// subscribe before the timer starts so no transition is missed.
	go s.watchSession(sess)
	sess.StartTimer()

	_ = json.NewEncoder(w).Encode(s.sessionView(sess))
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(s.sessionView(sess))
}

type answerReq struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}

	verdict, err := sess.SubmitAnswer(req.Answer)
	if err != nil {
		writeStateError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"verdict":  verdict,
		"snapshot": s.sessionView(sess),
	})
}

func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.GiveUp(); err != nil {
		writeStateError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(s.sessionView(sess))
}

func (s *Server) handleTogglePause(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.TogglePause()
	_ = json.NewEncoder(w).Encode(s.sessionView(sess))
}

// handleAbandon discards a session mid-game: the timer is cancelled and no
// outcome is finalized or persisted.
func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	s.sessions.Delete(r.Context(), id)
	s.mu.Lock()
	delete(s.saveState, id)
	s.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ------------------------------ PLAYERS ------------------------------------

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.List(r.Context())
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []player.Player{}
	}
	_ = json.NewEncoder(w).Encode(players)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	name, _ := r.Context().Value(ctxPlayerKey{}).(string)
	p, err := s.players.FindByName(r.Context(), name)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// ------------------------------ REPORTS ------------------------------------

func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	oc := sess.Outcome()
	if oc == nil {
		http.Error(w, `{"error":"session still in progress"}`, http.StatusConflict)
		return
	}
	pdf, err := report.SessionOutcome(oc)
	if err != nil {
		log.Error().Err(err).Msg("render session report")
		http.Error(w, `{"error":"render_failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(pdf)
}

func (s *Server) handleRosterReport(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.List(r.Context())
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	pdf, err := report.PlayerRoster(players)
	if err != nil {
		log.Error().Err(err).Msg("render roster report")
		http.Error(w, `{"error":"render_failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(pdf)
}

// ---------------------------- persistence ----------------------------------

// watchSession waits for the terminal snapshot and records the outcome
// once. An abandoned session closes the channel without a terminal
// snapshot, so nothing is persisted for it.
func (s *Server) watchSession(sess *game.Session) {
	ch, cancel := sess.Subscribe()
	defer cancel()
	for snap := range ch {
		if snap.Status == game.StatusEnded {
			s.persistOutcome(sess)
			return
		}
	}
}

func (s *Server) persistOutcome(sess *game.Session) {
	oc := sess.Outcome()
	if oc == nil {
		return
	}
	// The request that triggered the end may be long gone; persistence
	// gets its own context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.players.RecordOutcome(ctx, oc); err != nil {
		// Non-fatal: the in-memory outcome stays valid for display and
		// export.
		log.Warn().Err(err).Str("sessionId", sess.ID()).Msg("record outcome")
		s.setSaveState(sess.ID(), saveStateFailed)
		return
	}
	s.setSaveState(sess.ID(), saveStateSaved)
}

func (s *Server) setSaveState(id, state string) {
	s.mu.Lock()
	s.saveState[id] = state
	s.mu.Unlock()
}

// ------------------------------- helpers -----------------------------------

// sessionView is a snapshot plus the persistence state of its outcome.
type sessionView struct {
	game.Snapshot
	SaveState string `json:"saveState,omitempty"`
}

func (s *Server) sessionView(sess *game.Session) sessionView {
	s.mu.Lock()
	state := s.saveState[sess.ID()]
	s.mu.Unlock()
	return sessionView{Snapshot: sess.Snapshot(), SaveState: state}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionEnded):
		http.Error(w, `{"error":"session has ended"}`, http.StatusConflict)
	case errors.Is(err, game.ErrSessionPaused):
		http.Error(w, `{"error":"session is paused"}`, http.StatusConflict)
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	}
}
