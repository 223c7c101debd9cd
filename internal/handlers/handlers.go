// Package handlers implements the HTTP API over the index store, the sync
// engine, the snapshot engine, and the lifecycle manager.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-index/internal/database"
	"media-index/internal/lifecycle"
	"media-index/internal/logging"
	"media-index/internal/snapshot"
	"media-index/internal/syncer"
)

// Handlers carries the engine components the HTTP layer dispatches into.
type Handlers struct {
	db      *database.Database
	syncer  *syncer.Syncer
	manager *lifecycle.Manager
	engine  *snapshot.Engine
}

// New creates the handler set.
func New(db *database.Database, s *syncer.Syncer, m *lifecycle.Manager, e *snapshot.Engine) *Handlers {
	return &Handlers{db: db, syncer: s, manager: m, engine: e}
}

// RegisterRoutes attaches every API route to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/views/{view}", h.ViewPage).Methods("GET")
	api.HandleFunc("/folders", h.Folders).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")

	api.HandleFunc("/sync", h.TriggerSync).Methods("POST")
	api.HandleFunc("/sync/status", h.SyncStatus).Methods("GET")
	api.HandleFunc("/maintenance/vacuum", h.Vacuum).Methods("POST")

	api.HandleFunc("/media/{id:[0-9]+}", h.GetMedia).Methods("GET")
	api.HandleFunc("/media/{id:[0-9]+}/like", h.ToggleLiked).Methods("POST")

	api.HandleFunc("/media/trash", h.lifecycleBatch("trash")).Methods("POST")
	api.HandleFunc("/media/restore", h.lifecycleBatch("restore")).Methods("POST")
	api.HandleFunc("/media/archive", h.lifecycleBatch("archive")).Methods("POST")
	api.HandleFunc("/media/unarchive", h.lifecycleBatch("unarchive")).Methods("POST")
	api.HandleFunc("/media/private", h.lifecycleBatch("private")).Methods("POST")
	api.HandleFunc("/media/unprivate", h.lifecycleBatch("unprivate")).Methods("POST")

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/livez", h.Livez).Methods("GET")
	r.HandleFunc("/readyz", h.Readyz).Methods("GET")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// Health reports overall process health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Livez is the liveness probe.
func (h *Handlers) Livez(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readyz reports ready once the initial sync pass has completed. A failed
// initial pass still reads ready when the store has rows from a prior run.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.syncer.IsReady() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	if count, err := h.db.Count(r.Context()); err == nil && count > 0 {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready", "note": "serving prior index"})
		return
	}

	respondError(w, http.StatusServiceUnavailable, "initial sync not complete")
}
