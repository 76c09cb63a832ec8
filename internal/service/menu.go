package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/state"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by the menu service.
var (
	ErrNameRequired    = errors.New("name is required")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrNegativeStock   = errors.New("stock must not be negative")
	ErrDuplicateOption = errors.New("duplicate option name")
	ErrEmptyOptionName = errors.New("option name is required")
)

// DishRequest is the validated input for creating or updating a dish.
// Options come in as explicit name/price pairs.
type DishRequest struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Description string
	Method      string
	Ingredients string
	Spicy       string
	Taste       string
	Img         string
	Options     []model.MenuOption
}

// MenuService owns the dish catalog: staff CRUD plus the image reference
// patch the upload queue applies after a successful cloud upload.
type MenuService struct {
	store *state.Store
	bin   Saver
}

// NewMenuService creates a MenuService.
func NewMenuService(store *state.Store, bin Saver) *MenuService {
	return &MenuService{store: store, bin: bin}
}

// CreateDish adds a dish with a fresh id and pushes the menu to the bin.
func (s *MenuService) CreateDish(ctx context.Context, req DishRequest) (model.MenuItem, error) {
	if err := validateDish(req); err != nil {
		return model.MenuItem{}, err
	}

	dish := dishFromRequest(uuid.NewString(), req)
	s.store.Update("menu_changed", func(d *state.Data) bool {
		d.Menu = append(d.Menu, dish)
		return true
	})
	return dish, s.push(ctx)
}

// UpdateDish replaces a dish's fields in place.
func (s *MenuService) UpdateDish(ctx context.Context, dishID string, req DishRequest) (model.MenuItem, error) {
	if err := validateDish(req); err != nil {
		return model.MenuItem{}, err
	}

	var (
		dish model.MenuItem
		err  error
	)
	s.store.Update("menu_changed", func(d *state.Data) bool {
		for i := range d.Menu {
			if d.Menu[i].ID == dishID {
				dish = dishFromRequest(dishID, req)
				// An update without an img keeps the existing reference so
				// a pending upload is not lost.
				if dish.Img == "" {
					dish.Img = d.Menu[i].Img
				}
				d.Menu[i] = dish
				return true
			}
		}
		err = ErrDishNotFound
		return false
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return dish, s.push(ctx)
}

// DeleteDish hard-deletes a dish. Cart entries pointing at it are dropped
// silently at submission; existing orders keep their snapshots.
func (s *MenuService) DeleteDish(ctx context.Context, dishID string) error {
	var err error
	s.store.Update("menu_changed", func(d *state.Data) bool {
		for i := range d.Menu {
			if d.Menu[i].ID == dishID {
				d.Menu = append(d.Menu[:i], d.Menu[i+1:]...)
				return true
			}
		}
		err = ErrDishNotFound
		return false
	})
	if err != nil {
		return err
	}
	return s.push(ctx)
}

// SetDishImage patches a dish's image reference and pushes the menu.
// Called by the upload queue once the external host hands back a durable
// URL.
func (s *MenuService) SetDishImage(ctx context.Context, dishID, url string) error {
	var err error
	s.store.Update("menu_changed", func(d *state.Data) bool {
		for i := range d.Menu {
			if d.Menu[i].ID == dishID {
				d.Menu[i].Img = url
				return true
			}
		}
		err = ErrDishNotFound
		return false
	})
	if err != nil {
		return err
	}
	return s.push(ctx)
}

func (s *MenuService) push(ctx context.Context) error {
	return pushDocument(ctx, s.bin, s.store)
}

// --- Helpers ---

func validateDish(req DishRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrNameRequired
	}
	if req.Price.IsNegative() {
		return ErrNegativePrice
	}
	if req.Stock < 0 {
		return ErrNegativeStock
	}
	seen := make(map[string]bool, len(req.Options))
	for i, opt := range req.Options {
		if strings.TrimSpace(opt.Name) == "" {
			return fmt.Errorf("options[%d]: %w", i, ErrEmptyOptionName)
		}
		if opt.Price.IsNegative() {
			return fmt.Errorf("options[%d]: %w", i, ErrNegativePrice)
		}
		if seen[opt.Name] {
			return fmt.Errorf("options[%d]: %w: %s", i, ErrDuplicateOption, opt.Name)
		}
		seen[opt.Name] = true
	}
	return nil
}

func dishFromRequest(id string, req DishRequest) model.MenuItem {
	opts := make([]model.MenuOption, len(req.Options))
	copy(opts, req.Options)
	return model.MenuItem{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Description: req.Description,
		Method:      req.Method,
		Ingredients: req.Ingredients,
		Spicy:       req.Spicy,
		Taste:       req.Taste,
		Img:         req.Img,
		Options:     opts,
	}
}
