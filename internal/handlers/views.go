package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-index/internal/database"
	"media-index/internal/logging"
	"media-index/internal/snapshot"
)

// snapshotItem is the wire form of one snapshot row, with the packed
// attribute groups decoded into their logical parts.
type snapshotItem struct {
	ID           int64  `json:"id"`
	ThumbnailRef string `json:"thumbnailRef"`
	Order        int    `json:"order"`
	Header       string `json:"header,omitempty"`
	IsImage      bool   `json:"isImage"`
	DateModified int64  `json:"dateModified"`

	Liked       bool  `json:"liked"`
	Trashed     bool  `json:"trashed"`
	Archived    bool  `json:"archived"`
	Private     bool  `json:"private"`
	Orientation uint8 `json:"orientation"`

	DurationMs *int32 `json:"durationMs,omitempty"`
	Width      *int32 `json:"width,omitempty"`
	Height     *int32 `json:"height,omitempty"`
}

type pageResponse struct {
	View       string         `json:"view"`
	Items      []snapshotItem `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func snapshotItemFromRow(row *database.SnapshotRow) snapshotItem {
	item := snapshotItem{
		ID:           row.ID,
		ThumbnailRef: row.ThumbnailRef,
		Order:        row.Order,
		Header:       row.Header,
		IsImage:      row.IsImage,
		DateModified: row.DateModified,
		Liked:        row.Extras.Liked(),
		Trashed:      row.Extras.Trashed(),
		Archived:     row.Extras.Archived(),
		Private:      row.Extras.Private(),
		Orientation:  uint8(row.Extras.Orientation()),
	}

	if row.Timeline.Known() {
		d := row.Timeline.Duration()
		item.DurationMs = &d
	}
	if row.Resolution.Known() {
		w, ht := row.Resolution.Width(), row.Resolution.Height()
		item.Width = &w
		item.Height = &ht
	}

	return item
}

// ViewPage serves one page of a snapshot view. The cursor query parameter
// carries the grouping state between pages; omitting it starts a fresh
// listing.
func (h *Handlers) ViewPage(w http.ResponseWriter, r *http.Request) {
	view, err := database.ParseView(mux.Vars(r)["view"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	folder := r.URL.Query().Get("folder")
	if view == database.ViewFolder && folder == "" {
		respondError(w, http.StatusBadRequest, "folder view requires a folder parameter")
		return
	}

	pageSize := 0
	if v := r.URL.Query().Get("pageSize"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil || pageSize < 1 {
			respondError(w, http.StatusBadRequest, "invalid pageSize")
			return
		}
	}

	cursor, err := snapshot.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.engine.Page(r.Context(), view, folder, pageSize, cursor)
	if err != nil {
		logging.Error("Failed to fetch %s page: %v", view, err)
		respondError(w, http.StatusInternalServerError, "failed to fetch page")
		return
	}

	resp := pageResponse{
		View:  string(page.View),
		Items: make([]snapshotItem, len(page.Rows)),
	}
	for i := range page.Rows {
		resp.Items[i] = snapshotItemFromRow(&page.Rows[i])
	}
	if page.Next != nil {
		resp.NextCursor = page.Next.Encode()
	}

	respondJSON(w, http.StatusOK, resp)
}

// Folders serves the aggregated folder summaries.
func (h *Handlers) Folders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.engine.Folders(r.Context())
	if err != nil {
		logging.Error("Failed to fetch folder summaries: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch folders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

// Stats serves the cached index statistics.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.db.GetStats())
}
