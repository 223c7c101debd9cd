package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"media-index/internal/database"
	"media-index/internal/logging"
)

// Batch size ceiling for lifecycle requests.
const maxBatchIDs = 10000

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

// mediaDetail is the wire form of one full record with the packed groups
// decoded.
type mediaDetail struct {
	*database.MediaRecord

	Liked       bool  `json:"liked"`
	Trashed     bool  `json:"trashed"`
	Archived    bool  `json:"archived"`
	Private     bool  `json:"private"`
	Orientation uint8 `json:"orientation"`

	PositionMs *int32   `json:"positionMs,omitempty"`
	DurationMs *int32   `json:"durationMs,omitempty"`
	Width      *int32   `json:"width,omitempty"`
	Height     *int32   `json:"height,omitempty"`
	Latitude   *float32 `json:"latitude,omitempty"`
	Longitude  *float32 `json:"longitude,omitempty"`
}

func mediaDetailFromRecord(rec *database.MediaRecord) mediaDetail {
	detail := mediaDetail{
		MediaRecord: rec,
		Liked:       rec.Extras.Liked(),
		Trashed:     rec.Extras.Trashed(),
		Archived:    rec.Extras.Archived(),
		Private:     rec.Extras.Private(),
		Orientation: uint8(rec.Extras.Orientation()),
	}

	if rec.Timeline.Known() {
		p, d := rec.Timeline.Position(), rec.Timeline.Duration()
		detail.PositionMs = &p
		detail.DurationMs = &d
	}
	if rec.Resolution.Known() {
		w, ht := rec.Resolution.Width(), rec.Resolution.Height()
		detail.Width = &w
		detail.Height = &ht
	}
	if rec.Location.Known() {
		lat, lon := rec.Location.Latitude(), rec.Location.Longitude()
		detail.Latitude = &lat
		detail.Longitude = &lon
	}

	return detail
}

// GetMedia serves one record by id.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid media id")
		return
	}

	rec, err := h.db.GetByID(r.Context(), id)
	if err != nil {
		logging.Error("Failed to fetch media %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch media")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "media not found")
		return
	}

	respondJSON(w, http.StatusOK, mediaDetailFromRecord(rec))
}

// ToggleLiked flips the liked flag of one record.
func (h *Handlers) ToggleLiked(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid media id")
		return
	}

	if err := h.manager.ToggleLiked(r.Context(), id); err != nil {
		logging.Error("Failed to toggle liked on %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to toggle liked")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "toggled": true})
}

// lifecycleBatch builds a handler applying one lifecycle transition to a
// batch of ids.
func (h *Handlers) lifecycleBatch(operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.IDs) == 0 {
			respondError(w, http.StatusBadRequest, "ids is required")
			return
		}
		if len(req.IDs) > maxBatchIDs {
			respondError(w, http.StatusBadRequest, "too many ids")
			return
		}

		if err := h.applyLifecycle(r.Context(), operation, req.IDs); err != nil {
			logging.Error("Lifecycle %s failed: %v", operation, err)
			respondError(w, http.StatusInternalServerError, "operation failed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"operation": operation,
			"count":     len(req.IDs),
		})
	}
}

func (h *Handlers) applyLifecycle(ctx context.Context, operation string, ids []int64) error {
	switch operation {
	case "trash":
		return h.manager.Trash(ctx, ids)
	case "restore":
		return h.manager.Restore(ctx, ids)
	case "archive":
		return h.manager.Archive(ctx, ids)
	case "unarchive":
		return h.manager.Unarchive(ctx, ids)
	case "private":
		return h.manager.MarkPrivate(ctx, ids)
	case "unprivate":
		return h.manager.UnmarkPrivate(ctx, ids)
	}
	return fmt.Errorf("unknown lifecycle operation %q", operation)
}
