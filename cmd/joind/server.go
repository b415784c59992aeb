package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/arcflow/joincore/internal/diagnostics"
	"github.com/arcflow/joincore/internal/dsl"
	"github.com/arcflow/joincore/internal/join"
)

// definitionEntry bundles everything a hosted join definition needs to
// serve HTTP: the compiled schema (for typed-erased emission), the
// activated definition itself (for diagnostics), and the WebSocket
// sink subscribers attach to.
type definitionEntry struct {
	compiled *dsl.CompiledSchema
	jd       *join.JoinDefinition
	notifier *diagnostics.WebSocketNotifier
	executor join.Executor
}

// Server hosts zero or more named join definitions over HTTP, each
// loaded from a declarative schema posted at runtime.
type Server struct {
	mu       sync.RWMutex
	entries  map[string]*definitionEntry
	registry *join.Registry

	diag       *diagnostics.Manager
	newExecutor func() join.Executor
	logger      join.Logger
}

// NewServer constructs a Server. newExecutor is called once per
// activated definition so callers can choose pooled vs. unbounded
// concurrency per deployment.
func NewServer(newExecutor func() join.Executor, diag *diagnostics.Manager, logger join.Logger) *Server {
	if logger == nil {
		logger = join.NewNoOpLogger()
	}
	return &Server{
		entries:     make(map[string]*definitionEntry),
		registry:    join.NewRegistry(),
		diag:        diag,
		newExecutor: newExecutor,
		logger:      logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/def/", s.handleDefRoutes)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// extractDefID pulls the {id} segment and remaining path out of a
// "/def/{id}/..." request path.
func extractDefID(path string) (id string, rest string) {
	if !strings.HasPrefix(path, "/def/") {
		return "", ""
	}
	trimmed := path[len("/def/"):]
	idx := strings.Index(trimmed, "/")
	if idx == -1 {
		return trimmed, ""
	}
	return trimmed[:idx], trimmed[idx:]
}

func (s *Server) handleDefRoutes(w http.ResponseWriter, r *http.Request) {
	id, rest := extractDefID(r.URL.Path)
	if id == "" {
		http.Error(w, "definition id is required in path: /def/{id}/...", http.StatusBadRequest)
		return
	}

	switch {
	case rest == "/schema" && r.Method == http.MethodPost:
		s.handleSchema(w, r, id)
	case strings.HasPrefix(rest, "/emit/") && r.Method == http.MethodPost:
		s.handleEmit(w, r, id, strings.TrimPrefix(rest, "/emit/"))
	case rest == "/contents" && r.Method == http.MethodGet:
		s.handleContents(w, r, id)
	case rest == "/watch" && r.Method == http.MethodGet:
		s.handleWatch(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// POST /def/{id}/schema — body is a dsl.SchemaConfig as JSON. Activates
// (or replaces) the named definition.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request, id string) {
	defer r.Body.Close()

	var cfg dsl.SchemaConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid schema json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.LoadSchema(id, cfg); err != nil {
		http.Error(w, "cannot activate schema: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("schema loaded"))
}

// LoadSchema compiles and activates cfg under id, replacing any
// definition already hosted at that id. It is the programmatic entry
// point handleSchema delegates to, also used to preload a definition
// from a config-file schema at startup.
func (s *Server) LoadSchema(id string, cfg dsl.SchemaConfig) error {
	compiled, err := dsl.Compile(cfg)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	exec := s.newExecutor()
	jd, err := join.Activate(exec, compiled.Reactions...)
	if err != nil {
		return fmt.Errorf("activate schema: %w", err)
	}

	notifier := diagnostics.NewWebSocketNotifier(id + "-ws")
	if s.diag != nil {
		s.diag.RegisterNotifier(notifier)
		jd.SetObserver(diagnostics.NewObserver(id, s.diag))
	}

	s.mu.Lock()
	old, exists := s.entries[id]
	if exists {
		_ = s.registry.Unregister(id)
	}
	s.entries[id] = &definitionEntry{compiled: compiled, jd: jd, notifier: notifier, executor: exec}
	s.mu.Unlock()

	// Tear down the replaced definition's notifier and executor outside
	// the lock, once the new entry is already visible to lookups — a
	// reload that skips this leaks the old executor's goroutines (a
	// GoExecutor's in-flight workers) or worker pool on every
	// POST /def/{id}/schema against an id that's already loaded.
	if exists {
		old.notifier.Close()
		old.executor.Shutdown()
	}

	_ = s.registry.Register(id, jd)
	return nil
}

// POST /def/{id}/emit/{species} — body is a raw JSON value. A sync
// species blocks the request goroutine for the reply; an async species
// returns as soon as the decision cycle has run.
func (s *Server) handleEmit(w http.ResponseWriter, r *http.Request, id, species string) {
	defer r.Body.Close()

	entry, ok := s.lookup(id)
	if !ok {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}

	var value any
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
			http.Error(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if entry.compiled.IsSync(species) {
		result, err := entry.compiled.EmitSync(species, value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reply": result})
		return
	}

	if err := entry.compiled.EmitAsync(species, value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// GET /def/{id}/contents — the bag snapshot, for diagnostics.
func (s *Server) handleContents(w http.ResponseWriter, r *http.Request, id string) {
	entry, ok := s.lookup(id)
	if !ok {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, join.TakeSnapshot(entry.jd))
}

// GET /def/{id}/watch — upgrades to a WebSocket stream of decision-cycle
// events for this definition.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request, id string) {
	entry, ok := s.lookup(id)
	if !ok {
		http.Error(w, "definition not found", http.StatusNotFound)
		return
	}
	if err := entry.notifier.Upgrade(w, r); err != nil {
		s.logger.Warnf("joind: websocket upgrade failed for %q: %v", id, err)
	}
}

func (s *Server) lookup(id string) (*definitionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
