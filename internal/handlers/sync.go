package handlers

import (
	"net/http"

	"media-index/internal/logging"
)

// TriggerSync requests an asynchronous reconciliation pass. A pass already in
// flight absorbs the request.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.syncer.IsSyncing() {
		respondJSON(w, http.StatusAccepted, map[string]any{
			"status": "already running",
		})
		return
	}

	h.syncer.TriggerSync()
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "started"})
}

// SyncStatus reports the sync engine's current state.
func (h *Handlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"syncing": h.syncer.IsSyncing(),
		"ready":   h.syncer.IsReady(),
	}

	if last := h.syncer.LastSyncTime(); !last.IsZero() {
		status["lastSync"] = last
	}
	if err := h.syncer.InitialSyncError(); err != nil {
		status["initialSyncError"] = err.Error()
	}

	respondJSON(w, http.StatusOK, status)
}

// Vacuum compacts the backing store. Useful after large reconciliation
// deletes or expiry sweeps.
func (h *Handlers) Vacuum(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Vacuum(); err != nil {
		logging.Error("Vacuum failed: %v", err)
		respondError(w, http.StatusInternalServerError, "vacuum failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
