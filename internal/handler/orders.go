package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/service"
	"github.com/diancan-pos/api/internal/state"
	"github.com/go-chi/chi/v5"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SubmitOrder(ctx context.Context) (model.Order, error)
	Advance(ctx context.Context, orderID int64, expectedFrom string) (model.Order, error)
	Trash(ctx context.Context, orderID int64) error
	Restore(ctx context.Context, orderID int64) error
	Purge(orderID int64) error
}

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store *state.Store
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store *state.Store) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Post("/{id}/advance", h.Advance)
	r.Delete("/{id}", h.Trash)
}

// RegisterTrashRoutes registers the trash endpoints: list, restore, purge.
// Purge is destructive; the UI confirms before calling it.
func (h *OrderHandler) RegisterTrashRoutes(r chi.Router) {
	r.Get("/", h.ListTrash)
	r.Post("/{id}/restore", h.Restore)
	r.Delete("/{id}", h.Purge)
}

// --- Request / Response types ---

type advanceRequest struct {
	From string `json:"from"`
}

type orderResponse struct {
	Order   model.Order `json:"order"`
	Warning string      `json:"warning,omitempty"`
}

type orderListResponse struct {
	Orders []model.Order `json:"orders"`
}

// --- Handlers ---

// Submit handles POST /orders: cart → order.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.SubmitOrder(r.Context())
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusCreated, orderResponse{Order: order, Warning: warn})
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
			return
		}
		log.Printf("ERROR: submit order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse{Order: order})
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders := h.store.Orders()
	if s := r.URL.Query().Get("status"); s != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if o.Status == s {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: orders})
}

// Advance handles POST /orders/{id}/advance.
func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Advance(r.Context(), orderID, req.From)
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusOK, orderResponse{Order: order, Warning: warn})
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: advance order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Order: order})
}

// Trash handles DELETE /orders/{id}: soft delete.
func (h *OrderHandler) Trash(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	err := h.svc.Trash(r.Context(), orderID)
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusOK, map[string]string{"warning": warn})
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: trash order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "trashed"})
}

// ListTrash handles GET /trash.
func (h *OrderHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orderListResponse{Orders: h.store.Trash()})
}

// Restore handles POST /trash/{id}/restore.
func (h *OrderHandler) Restore(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	err := h.svc.Restore(r.Context(), orderID)
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusOK, map[string]string{"warning": warn})
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found in trash"})
			return
		}
		log.Printf("ERROR: restore order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// Purge handles DELETE /trash/{id}: permanent, irreversible delete.
func (h *OrderHandler) Purge(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Purge(orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found in trash"})
			return
		}
		log.Printf("ERROR: purge order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return 0, false
	}
	return id, true
}
