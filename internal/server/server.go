// Package server exposes one entity's memory over a read-only HTTP API.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oceanbase/episodic-go/pkg/core"
	"github.com/oceanbase/episodic-go/pkg/memory"
)

// Server is the episodic memory HTTP API server.
type Server struct {
	// mu serializes access to the client, which is not safe for concurrent use.
	mu       sync.Mutex
	client   *core.Client
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   chi.Router
	now      time.Duration
	started  time.Time
}

// New creates a Server for client. Retrieval scores recency against now,
// the simulated time the memory was last advanced to. A nil gatherer
// disables /metrics.
func New(client *core.Client, gatherer prometheus.Gatherer, now time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		client:   client,
		gatherer: gatherer,
		logger:   logger,
		now:      now,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// Replace swaps the served client, typically after the scenario behind it
// was replayed again.
func (s *Server) Replace(client *core.Client, now time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	s.now = now
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/memories", s.handleRetrieve)
		r.Get("/memories/{memoryID}", s.handleGetMemory)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entity := s.client.EntityID()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"entity": entity,
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.client.Snapshot()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, snap)
}

// handleRetrieve runs a scored retrieval. Query parameters: tag (repeatable),
// participant, context, limit, and valence/arousal/dominance for the mood cue.
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts []core.RetrieveOption

	for _, name := range q["tag"] {
		tag, err := memory.ParseMemoryTag(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, core.WithTagsForRetrieve(tag))
	}
	if p := q.Get("participant"); p != "" {
		opts = append(opts, core.WithParticipantForRetrieve(memory.EntityID(p)))
	}
	if c := q.Get("context"); c != "" {
		opts = append(opts, core.WithContextForRetrieve(memory.MicrosystemID(c)))
	}
	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		opts = append(opts, core.WithLimit(limit))
	}
	if q.Has("valence") || q.Has("arousal") || q.Has("dominance") {
		pad, err := parsePAD(q.Get("valence"), q.Get("arousal"), q.Get("dominance"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, core.WithMoodForRetrieve(pad))
	}

	s.mu.Lock()
	results := s.client.Retrieve(s.now, opts...)
	views := make([]scoredView, len(results))
	for i, res := range results {
		layer, _ := s.client.Layers().FindLayer(res.Entry.ID())
		views[i] = scoredView{Memory: newMemoryView(res.Entry, layer), Score: res.Score}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id, err := memory.ParseMemoryID(chi.URLParam(r, "memoryID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	entry, layer, err := s.client.Get(id)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newMemoryView(&entry, layer))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

func parsePAD(valence, arousal, dominance string) (memory.PAD, error) {
	var v [3]float64
	for i, raw := range []string{valence, arousal, dominance} {
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return memory.PAD{}, err
		}
		v[i] = f
	}
	return memory.NewPAD(v[0], v[1], v[2]), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
