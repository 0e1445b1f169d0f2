// Package httpapi exposes a read-only HTTP view of the memory store,
// intended for dashboards and local inspection alongside the MCP server.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SynapseHQ/limbic/internal/memory"
)

// Server is the limbic HTTP API server.
type Server struct {
	store   *memory.Store
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server backed by the given store.
func New(store *memory.Store, version string) *Server {
	s := &Server{
		store:   store,
		version: version,
		started: time.Now(),
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
		r.Get("/stats", s.handleStats)
		r.Get("/memories/{id}", s.handleGetMemory)
		r.Get("/search", s.handleSearch)
		r.Get("/triggers", s.handleTriggers)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if _, err := s.store.Count(r.Context()); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.store.Path(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	size, _ := s.store.Size()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		*memory.Stats
		DatabaseSize string `json:"database_size"`
	}{stats, size})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	mem, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if mem == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Memory not found: " + id,
		})
		return
	}

	// An inspection read does not count as an access
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mem)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts := memory.SearchOptions{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}

	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				opts.Tags = append(opts.Tags, tag)
			}
		}
	}

	limit, err := queryInt(r, "limit", memory.DefaultLimit)
	if err != nil || limit < 1 || limit > memory.MaxLimit {
		http.Error(w, `{"error":"limit must be between 1 and `+strconv.Itoa(memory.MaxLimit)+`"}`, http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		http.Error(w, `{"error":"offset must be a non-negative integer"}`, http.StatusBadRequest)
		return
	}
	opts.Limit = limit
	opts.Offset = offset

	page, err := s.store.Search(r.Context(), opts)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (s *Server) handleTriggers(w http.ResponseWriter, r *http.Request) {
	phrase := r.URL.Query().Get("q")
	if phrase == "" {
		http.Error(w, `{"error":"q parameter required"}`, http.StatusBadRequest)
		return
	}

	limit, err := queryInt(r, "limit", 10)
	if err != nil || limit < 1 || limit > memory.MaxLimit {
		http.Error(w, `{"error":"limit must be between 1 and `+strconv.Itoa(memory.MaxLimit)+`"}`, http.StatusBadRequest)
		return
	}

	memories, err := s.store.SearchByTrigger(r.Context(), phrase, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"phrase":   phrase,
		"count":    len(memories),
		"memories": memories,
	})
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
