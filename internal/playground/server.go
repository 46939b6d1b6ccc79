package playground

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/idom"
)

// Defaults for a zero Config.
const (
	DefaultMaxSessions = 100
	DefaultSessionTTL  = 30 * time.Minute

	maxBodyBytes = 1 << 20
)

// Config configures a Server.
type Config struct {
	// AllowedOrigins lists the origins allowed to open WebSockets. "*"
	// allows any origin; an empty list allows same-origin requests only.
	AllowedOrigins []string

	// MaxSessions caps the number of live sessions.
	MaxSessions int

	// SessionTTL is how long an idle session is kept.
	SessionTTL time.Duration

	// Logger receives request and patch logs. Defaults to slog.Default().
	Logger *slog.Logger

	// PatcherOptions are passed to the Patcher of every session and of
	// one-shot patches.
	PatcherOptions []idom.Option

	// MetricsHandler, if set, is mounted at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string
}

// Server is the playground HTTP handler.
type Server struct {
	cfg      Config
	log      *slog.Logger
	router   chi.Router
	upgrader websocket.Upgrader
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		cfg:      cfg,
		log:      cfg.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Post("/patch", s.handlePatch)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Put("/data", s.handlePutData)
			r.Patch("/data", s.handlePatchData)
			r.Get("/ws", s.handleWebSocket)
		})
	})
	if cfg.MetricsHandler != nil {
		r.Handle(cfg.MetricsPath, cfg.MetricsHandler)
	}
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Len returns the number of live sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Session returns the session with the given ID.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Close drops every session and disconnects its watchers.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

// StartJanitor removes idle sessions every interval until ctx is done.
func (s *Server) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.expire(s.now())
			}
		}
	}()
}

// expire removes the sessions idle for longer than the TTL at now. Sessions
// with connected WebSocket clients are kept.
func (s *Server) expire(now time.Time) int {
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleFor(now) > s.cfg.SessionTTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		s.log.Info("session expired", "session", sess.ID())
		sess.close()
	}
	return len(expired)
}

// checkOrigin allows requests without an Origin header, origins in the
// allow list and same-origin requests.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type sessionRequest struct {
	HTML    string          `json:"html"`
	Program string          `json:"program"`
	Data    json.RawMessage `json:"data"`
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess, res, err := newSession(r.Context(), "", req, s.cfg.PatcherOptions, s.log, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.close()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if s.Len() >= s.cfg.MaxSessions {
		s.writeError(w, r, errors.New("E406").WithReason("limit is %d", s.cfg.MaxSessions))
		return
	}

	id := ulid.Make().String()
	sess, res, err := newSession(r.Context(), id, req, s.cfg.PatcherOptions, s.log, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		s.writeError(w, r, errors.New("E406").WithReason("limit is %d", s.cfg.MaxSessions))
		return
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.InfoContext(r.Context(), "session created", "session", id)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.touch(s.now())
	writeJSON(w, http.StatusOK, Result{ID: sess.ID(), HTML: sess.HTML()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	sess.close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var data json.RawMessage
	if !s.decode(w, r, &data) {
		return
	}
	res, err := sess.SetData(r.Context(), data, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePatchData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var patch json.RawMessage
	if !s.decode(w, r, &patch) {
		return
	}
	res, err := sess.ApplyPatch(r.Context(), patch, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.Session(id)
	if !ok {
		s.writeError(w, r, errors.New("E401").WithReason("no session %q", id))
	}
	return sess, ok
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.New("E402").Wrap(err).WithReason("%v", err))
		return false
	}
	return true
}

type errorResponse struct {
	Error *errors.Error `json:"error"`
}

// writeError reports err as JSON with a status derived from its code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := errors.FromError(err, "E404")
	status := statusFor(e)
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		s.log.DebugContext(r.Context(), "request rejected", "code", e.Code, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: e})
}

func statusFor(e *errors.Error) int {
	var maxErr *http.MaxBytesError
	if stderrors.As(e, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch e.Code {
	case "E401":
		return http.StatusNotFound
	case "E402", "E405":
		return http.StatusBadRequest
	case "E406":
		return http.StatusTooManyRequests
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
