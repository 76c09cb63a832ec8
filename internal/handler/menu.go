package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/service"
	"github.com/diancan-pos/api/internal/state"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// MenuServicer defines the service methods needed by menu handlers.
// Satisfied by *service.MenuService; narrow interface for testability.
type MenuServicer interface {
	CreateDish(ctx context.Context, req service.DishRequest) (model.MenuItem, error)
	UpdateDish(ctx context.Context, dishID string, req service.DishRequest) (model.MenuItem, error)
	DeleteDish(ctx context.Context, dishID string) error
}

// MenuHandler handles dish catalog endpoints.
type MenuHandler struct {
	svc   MenuServicer
	store *state.Store
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(svc MenuServicer, store *state.Store) *MenuHandler {
	return &MenuHandler{svc: svc, store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type dishRequest struct {
	Name        string            `json:"name"`
	Price       decimal.Decimal   `json:"price"`
	Category    string            `json:"category"`
	Stock       int               `json:"stock"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	Ingredients string            `json:"ingredients"`
	Spicy       string            `json:"spicy"`
	Taste       string            `json:"taste"`
	Options     []dishOptionInput `json:"options"`
}

type dishOptionInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type dishResponse struct {
	Dish    model.MenuItem `json:"dish"`
	Warning string         `json:"warning,omitempty"`
}

func (r dishRequest) toService() service.DishRequest {
	opts := make([]model.MenuOption, len(r.Options))
	for i, o := range r.Options {
		opts[i] = model.MenuOption{Name: o.Name, Price: o.Price}
	}
	return service.DishRequest{
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Stock:       r.Stock,
		Description: r.Description,
		Method:      r.Method,
		Ingredients: r.Ingredients,
		Spicy:       r.Spicy,
		Taste:       r.Taste,
		Options:     opts,
	}
}

// --- Handlers ---

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"menu": h.store.Menu()})
}

// Create handles POST /menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dish, err := h.svc.CreateDish(r.Context(), req.toService())
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusCreated, dishResponse{Dish: dish, Warning: warn})
		return
	}
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, dishResponse{Dish: dish})
}

// Update handles PUT /menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	dish, err := h.svc.UpdateDish(r.Context(), chi.URLParam(r, "id"), req.toService())
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusOK, dishResponse{Dish: dish, Warning: warn})
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDishNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
		case isValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update dish: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, dishResponse{Dish: dish})
}

// Delete handles DELETE /menu/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteDish(r.Context(), chi.URLParam(r, "id"))
	if warn := binWarning(err); warn != "" {
		writeJSON(w, http.StatusOK, map[string]string{"warning": warn})
		return
	}
	if err != nil {
		if errors.Is(err, service.ErrDishNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
			return
		}
		log.Printf("ERROR: delete dish: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
