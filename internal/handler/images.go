package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/diancan-pos/api/internal/imagecache"
	"github.com/diancan-pos/api/internal/state"
	"github.com/diancan-pos/api/internal/uploader"
	"github.com/go-chi/chi/v5"
)

// ImageCache defines the cache methods needed by image handlers.
// Satisfied by *imagecache.Cache.
type ImageCache interface {
	Put(dishID, filename string, payload []byte) (imagecache.ImageRecord, error)
	List() ([]imagecache.ImageRecord, error)
	Clear() error
}

// Enqueuer defines the queue methods needed by image handlers.
// Satisfied by *uploader.Queue.
type Enqueuer interface {
	Enqueue(dishID, filename string, payload []byte)
	Jobs() []uploader.Job
}

// ImageHandler handles dish image attachment. Payloads land in the local
// cache first so the dish renders immediately, then the queue pushes them
// to the cloud in the background.
type ImageHandler struct {
	cache ImageCache
	queue Enqueuer
	store *state.Store
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(cache ImageCache, queue Enqueuer, store *state.Store) *ImageHandler {
	return &ImageHandler{cache: cache, queue: queue, store: store}
}

// RegisterRoutes registers image endpoints on the given Chi router.
func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/", h.Clear)
	r.Get("/queue", h.Queue)
}

// imageRecordResponse is an ImageRecord without the inline payload.
type imageRecordResponse struct {
	DishID          string     `json:"dish_id"`
	Filename        string     `json:"filename"`
	SizeBytes       int        `json:"size_bytes"`
	UploadedToCloud bool       `json:"uploaded_to_cloud"`
	CloudURL        string     `json:"cloud_url,omitempty"`
	LocalLoadTime   time.Time  `json:"local_load_time"`
	UploadTime      *time.Time `json:"upload_time,omitempty"`
}

// Attach handles POST /menu/{id}/image: store locally, queue the upload.
func (h *ImageHandler) Attach(w http.ResponseWriter, r *http.Request) {
	dishID := chi.URLParam(r, "id")

	found := false
	for _, dish := range h.store.Menu() {
		if dish.ID == dishID {
			found = true
			break
		}
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
		return
	}

	file, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read image"})
		return
	}

	rec, err := h.cache.Put(dishID, hdr.Filename, payload)
	if err != nil {
		if errors.Is(err, imagecache.ErrQuotaExceeded) {
			writeJSON(w, http.StatusInsufficientStorage, map[string]string{
				"error": "local image storage is full, clear the cache or use a smaller image",
			})
			return
		}
		log.Printf("ERROR: cache image: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.queue.Enqueue(dishID, hdr.Filename, payload)
	writeJSON(w, http.StatusAccepted, map[string]any{"record": toImageRecordResponse(rec)})
}

// List handles GET /images.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.cache.List()
	if err != nil {
		log.Printf("ERROR: list image records: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	out := make([]imageRecordResponse, len(recs))
	for i, rec := range recs {
		out[i] = toImageRecordResponse(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

// Clear handles DELETE /images: the explicit cache-clear action.
func (h *ImageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(); err != nil {
		log.Printf("ERROR: clear image cache: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Queue handles GET /images/queue: pending and terminally failed uploads.
func (h *ImageHandler) Queue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": h.queue.Jobs()})
}

func toImageRecordResponse(rec imagecache.ImageRecord) imageRecordResponse {
	return imageRecordResponse{
		DishID:          rec.DishID,
		Filename:        rec.Filename,
		SizeBytes:       len(rec.Payload),
		UploadedToCloud: rec.UploadedToCloud,
		CloudURL:        rec.CloudURL,
		LocalLoadTime:   rec.LocalLoadTime,
		UploadTime:      rec.UploadTime,
	}
}
