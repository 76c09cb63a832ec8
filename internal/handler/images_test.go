package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diancan-pos/api/internal/imagecache"
	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/state"
	"github.com/diancan-pos/api/internal/uploader"
	"github.com/go-chi/chi/v5"
)

// mockImageCache implements ImageCache with overridable functions
type mockImageCache struct {
	putFn   func(dishID, filename string, payload []byte) (imagecache.ImageRecord, error)
	listFn  func() ([]imagecache.ImageRecord, error)
	clearFn func() error
}

func (m *mockImageCache) Put(dishID, filename string, payload []byte) (imagecache.ImageRecord, error) {
	return m.putFn(dishID, filename, payload)
}

func (m *mockImageCache) List() ([]imagecache.ImageRecord, error) {
	return m.listFn()
}

func (m *mockImageCache) Clear() error {
	return m.clearFn()
}

// mockEnqueuer records enqueued jobs
type mockEnqueuer struct {
	enqueued []string
}

func (m *mockEnqueuer) Enqueue(dishID, filename string, payload []byte) {
	m.enqueued = append(m.enqueued, dishID)
}

func (m *mockEnqueuer) Jobs() []uploader.Job {
	return nil
}

func storeWithDish(id string) *state.Store {
	store := state.New()
	store.LoadDocument(model.Document{Menu: []model.MenuItem{{ID: id, Name: "Fried Rice"}}})
	return store
}

func imageRequest(t *testing.T, url string, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "dish.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(payload)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newImageRouter(cache ImageCache, queue Enqueuer, store *state.Store) chi.Router {
	h := NewImageHandler(cache, queue, store)
	r := chi.NewRouter()
	r.Post("/menu/{id}/image", h.Attach)
	r.Route("/images", h.RegisterRoutes)
	return r
}

func TestAttachImageCachesAndEnqueues(t *testing.T) {
	cache := &mockImageCache{
		putFn: func(dishID, filename string, payload []byte) (imagecache.ImageRecord, error) {
			return imagecache.ImageRecord{DishID: dishID, Filename: filename, Payload: payload}, nil
		},
	}
	queue := &mockEnqueuer{}
	r := newImageRouter(cache, queue, storeWithDish("dish-a"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, imageRequest(t, "/menu/dish-a/image", []byte("jpegbytes")))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != "dish-a" {
		t.Fatalf("expected one enqueued job for dish-a, got %v", queue.enqueued)
	}
}

func TestAttachImageQuotaExceededReturns507(t *testing.T) {
	cache := &mockImageCache{
		putFn: func(dishID, filename string, payload []byte) (imagecache.ImageRecord, error) {
			return imagecache.ImageRecord{}, imagecache.ErrQuotaExceeded
		},
	}
	queue := &mockEnqueuer{}
	r := newImageRouter(cache, queue, storeWithDish("dish-a"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, imageRequest(t, "/menu/dish-a/image", []byte("toolarge")))

	if rec.Code != http.StatusInsufficientStorage {
		t.Fatalf("expected 507, got %d", rec.Code)
	}
	if len(queue.enqueued) != 0 {
		t.Fatal("nothing should be enqueued when caching fails")
	}
}

func TestAttachImageUnknownDishReturns404(t *testing.T) {
	r := newImageRouter(&mockImageCache{}, &mockEnqueuer{}, state.New())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, imageRequest(t, "/menu/nope/image", []byte("x")))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAttachImageMissingFileReturns400(t *testing.T) {
	r := newImageRouter(&mockImageCache{}, &mockEnqueuer{}, storeWithDish("dish-a"))

	req := httptest.NewRequest(http.MethodPost, "/menu/dish-a/image", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
