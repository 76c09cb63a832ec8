package handler

import (
	"encoding/json"
	"net/http"

	"github.com/diancan-pos/api/internal/enum"
	"github.com/diancan-pos/api/internal/state"
	"github.com/go-chi/chi/v5"
)

// ViewHandler switches the device between the customer and kitchen views.
// The reconciler reads the view to decide whether a remote menu may be
// applied, so this is more than cosmetic.
type ViewHandler struct {
	store *state.Store
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(store *state.Store) *ViewHandler {
	return &ViewHandler{store: store}
}

// RegisterRoutes registers view endpoints on the given Chi router.
func (h *ViewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Set)
}

type viewResponse struct {
	View string `json:"view"`
}

// Get handles GET /view.
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewResponse{View: h.store.View()})
}

// Set handles PUT /view.
func (h *ViewHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req viewResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.View != enum.ViewCustomer && req.View != enum.ViewKitchen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "view must be customer or kitchen"})
		return
	}
	h.store.SetView(req.View)
	writeJSON(w, http.StatusOK, viewResponse{View: req.View})
}
