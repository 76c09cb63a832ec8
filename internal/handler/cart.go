package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/service"
	"github.com/diancan-pos/api/internal/state"
	"github.com/go-chi/chi/v5"
)

// CartServicer defines the service methods needed by cart handlers.
// Satisfied by *service.OrderService.
type CartServicer interface {
	AddToCart(dishID string, selectedOptions []string) error
	RemoveFromCart(dishID string) error
}

// CartHandler handles the session cart.
type CartHandler struct {
	svc   CartServicer
	store *state.Store
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc CartServicer, store *state.Store) *CartHandler {
	return &CartHandler{svc: svc, store: store}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/items", h.Add)
	r.Delete("/items/{id}", h.Remove)
}

type addToCartRequest struct {
	DishID          string   `json:"dish_id"`
	SelectedOptions []string `json:"selected_options"`
}

type cartResponse struct {
	Cart map[string]model.CartEntry `json:"cart"`
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartResponse{Cart: h.store.Cart()})
}

// Add handles POST /cart/items.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DishID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dish_id is required"})
		return
	}

	if err := h.svc.AddToCart(req.DishID, req.SelectedOptions); err != nil {
		switch {
		case errors.Is(err, service.ErrDishNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
		case isValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: add to cart: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: h.store.Cart()})
}

// Remove handles DELETE /cart/items/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveFromCart(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrDishNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not in cart"})
			return
		}
		log.Printf("ERROR: remove from cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: h.store.Cart()})
}
