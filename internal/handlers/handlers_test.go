package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-index/internal/database"
	"media-index/internal/lifecycle"
	"media-index/internal/packed"
	"media-index/internal/snapshot"
	"media-index/internal/source"
	"media-index/internal/syncer"
)

type testEnv struct {
	router *mux.Router
	db     *database.Database
}

type discardDeleter struct{}

func (discardDeleter) Remove(string) error { return nil }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := syncer.New(db, emptyEnumerator{}, time.Hour)
	m := lifecycle.New(db, discardDeleter{}, time.Hour, time.Hour)
	e := snapshot.New(db)

	router := mux.NewRouter()
	New(db, s, m, e).RegisterRoutes(router)

	return &testEnv{router: router, db: db}
}

type emptyEnumerator struct{}

func (emptyEnumerator) ListModifiedSince(ctx context.Context, watermark int64) ([]source.Item, error) {
	return nil, nil
}

func (emptyEnumerator) ListIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (env *testEnv) seed(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		id, err := env.db.Upsert(context.Background(), &database.MediaRecord{
			ExternalID:   int64(i + 1),
			Path:         fmt.Sprintf("a/%d.jpg", i),
			ParentPath:   "a",
			Name:         fmt.Sprintf("%d.jpg", i),
			Kind:         database.KindImage,
			SizeBytes:    1,
			Bitrate:      database.Absent,
			Year:         database.Absent,
			DateModified: int64(1000 + i),
			Extras:       packed.PackFlags(false, false, false, false, packed.OrientationUnspecified),
			Timeline:     packed.UnknownTimeline(),
			Resolution:   packed.UnknownResolution(),
			Location:     packed.UnknownGeoPoint(),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids[i] = id
	}
	return ids
}

func (env *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestViewPage(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 3)

	rec := env.do(t, "GET", "/api/views/timeline", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decode[pageResponse](t, rec)
	if resp.View != "timeline" || len(resp.Items) != 3 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Items[0].Header == "" {
		t.Error("first row must carry a group header")
	}
	if resp.NextCursor != "" {
		t.Error("short listing must not carry a cursor")
	}
}

func TestViewPageCursorFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 5)

	var items []snapshotItem
	target := "/api/views/timeline?pageSize=2"

	for {
		rec := env.do(t, "GET", target, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		resp := decode[pageResponse](t, rec)
		items = append(items, resp.Items...)

		if resp.NextCursor == "" {
			break
		}
		target = "/api/views/timeline?pageSize=2&cursor=" + resp.NextCursor
	}

	if len(items) != 5 {
		t.Fatalf("collected %d items, want 5", len(items))
	}
	// Same modification day throughout, so exactly one header.
	headers := 0
	for _, item := range items {
		if item.Header != "" {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("headers = %d, want 1", headers)
	}
}

func TestViewPageRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, "GET", "/api/views/bogus", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown view status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, "GET", "/api/views/timeline?cursor=zz", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad cursor status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, "GET", "/api/views/timeline?pageSize=0", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad pageSize status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, "GET", "/api/views/folder", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("folder view without folder status = %d, want 400", rec.Code)
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seed(t, 2)

	rec := env.do(t, "POST", "/api/media/trash", idsRequest{IDs: ids[:1]})
	if rec.Code != http.StatusOK {
		t.Fatalf("trash status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, _ := env.db.GetByID(context.Background(), ids[0])
	if !got.Extras.Trashed() || got.DateExpires == 0 {
		t.Errorf("trash not applied: %v expires=%d", got.Extras, got.DateExpires)
	}

	rec = env.do(t, "POST", "/api/media/restore", idsRequest{IDs: ids[:1]})
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d", rec.Code)
	}
	got, _ = env.db.GetByID(context.Background(), ids[0])
	if got.Extras.Trashed() || got.DateExpires != 0 {
		t.Errorf("restore not applied: %v", got.Extras)
	}

	if rec := env.do(t, "POST", "/api/media/archive", idsRequest{}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, "POST", "/api/media/archive", "not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

// A route wired to an operation the dispatch table does not know must
// report failure, not success.
func TestApplyLifecycleRejectsUnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seed(t, 1)

	h := New(env.db, nil, lifecycle.New(env.db, discardDeleter{}, time.Hour, time.Hour), nil)
	if err := h.applyLifecycle(context.Background(), "obliterate", ids); err == nil {
		t.Error("unknown operation must return an error")
	}
	if err := h.applyLifecycle(context.Background(), "archive", ids); err != nil {
		t.Errorf("known operation failed: %v", err)
	}
}

func TestToggleLikedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seed(t, 1)

	target := fmt.Sprintf("/api/media/%d/like", ids[0])

	if rec := env.do(t, "POST", target, nil); rec.Code != http.StatusOK {
		t.Fatalf("like status = %d", rec.Code)
	}
	got, _ := env.db.GetByID(context.Background(), ids[0])
	if !got.Extras.Liked() {
		t.Error("like not applied")
	}

	if rec := env.do(t, "POST", target, nil); rec.Code != http.StatusOK {
		t.Fatalf("second like status = %d", rec.Code)
	}
	got, _ = env.db.GetByID(context.Background(), ids[0])
	if got.Extras.Liked() {
		t.Error("second like should clear the flag")
	}
}

func TestGetMedia(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seed(t, 1)

	rec := env.do(t, "GET", fmt.Sprintf("/api/media/%d", ids[0]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var detail struct {
		ID    int64 `json:"id"`
		Liked bool  `json:"liked"`
		Width *int  `json:"width"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != ids[0] || detail.Liked {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Width != nil {
		t.Error("unknown resolution must be omitted")
	}

	if rec := env.do(t, "GET", "/api/media/99999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing media status = %d, want 404", rec.Code)
	}
}

func TestTriggerSyncAccepted(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/sync", nil)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}

	rec = env.do(t, "GET", "/api/sync/status", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status endpoint = %d", rec.Code)
	}
}

func TestVacuum(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 1)

	if rec := env.do(t, "POST", "/api/maintenance/vacuum", nil); rec.Code != http.StatusOK {
		t.Errorf("vacuum status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, "GET", "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
	if rec := env.do(t, "GET", "/livez", nil); rec.Code != http.StatusOK {
		t.Errorf("livez = %d", rec.Code)
	}

	// No initial sync has run and the store is empty.
	if rec := env.do(t, "GET", "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz on empty store = %d, want 503", rec.Code)
	}

	// A populated store from a prior run is good enough to serve.
	env.seed(t, 1)
	if rec := env.do(t, "GET", "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz with prior index = %d, want 200", rec.Code)
	}
}
