package service

import (
	"context"
	"errors"
	"testing"

	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/state"
	"github.com/shopspring/decimal"
)

func newTestMenuService() (*MenuService, *state.Store, *mockSaver) {
	store := state.New()
	store.LoadDocument(model.Document{Menu: testMenu()})
	saver := &mockSaver{}
	return NewMenuService(store, saver), store, saver
}

func TestCreateDish_Validation(t *testing.T) {
	svc, _, _ := newTestMenuService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  DishRequest
		want error
	}{
		{"missing name", DishRequest{Price: decimal.NewFromInt(1)}, ErrNameRequired},
		{"negative price", DishRequest{Name: "x", Price: decimal.NewFromInt(-1)}, ErrNegativePrice},
		{"negative stock", DishRequest{Name: "x", Stock: -1}, ErrNegativeStock},
		{"empty option name", DishRequest{Name: "x", Options: []model.MenuOption{{Name: " "}}}, ErrEmptyOptionName},
		{"negative option price", DishRequest{Name: "x", Options: []model.MenuOption{{Name: "o", Price: decimal.NewFromInt(-2)}}}, ErrNegativePrice},
		{"duplicate option", DishRequest{Name: "x", Options: []model.MenuOption{{Name: "o"}, {Name: "o"}}}, ErrDuplicateOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateDish(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got: %v", tt.want, err)
			}
		})
	}
}

func TestCreateDish_AppendsAndPushes(t *testing.T) {
	svc, store, saver := newTestMenuService()

	dish, err := svc.CreateDish(context.Background(), DishRequest{
		Name:     "Century Egg Congee",
		Price:    decimal.NewFromInt(15),
		Category: "Staples",
		Stock:    30,
	})
	if err != nil {
		t.Fatalf("create dish: %v", err)
	}
	if dish.ID == "" {
		t.Fatal("expected a generated dish id")
	}
	if len(store.Menu()) != 3 {
		t.Fatalf("menu length = %d, want 3", len(store.Menu()))
	}
	if len(saver.saved) != 1 || len(saver.saved[0].Menu) != 3 {
		t.Fatal("expected the full menu pushed to the bin")
	}
}

func TestUpdateDish_NotFound(t *testing.T) {
	svc, _, _ := newTestMenuService()
	_, err := svc.UpdateDish(context.Background(), "nope", DishRequest{Name: "x"})
	if !errors.Is(err, ErrDishNotFound) {
		t.Fatalf("expected ErrDishNotFound, got: %v", err)
	}
}

func TestUpdateDish_KeepsImageWhenOmitted(t *testing.T) {
	svc, store, _ := newTestMenuService()
	ctx := context.Background()

	if err := svc.SetDishImage(ctx, "dish-a", "https://img.example/a.jpg"); err != nil {
		t.Fatalf("set image: %v", err)
	}
	if _, err := svc.UpdateDish(ctx, "dish-a", DishRequest{Name: "Braised Pork", Price: decimal.NewFromInt(50)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := store.Menu()[0].Img; got != "https://img.example/a.jpg" {
		t.Fatalf("img = %q, want preserved URL", got)
	}
}

func TestDeleteDish_HardDelete(t *testing.T) {
	svc, store, saver := newTestMenuService()

	if err := svc.DeleteDish(context.Background(), "dish-a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.Menu()) != 1 {
		t.Fatalf("menu length = %d, want 1", len(store.Menu()))
	}
	if len(saver.saved[0].Menu) != 1 {
		t.Fatal("expected deletion pushed to the bin")
	}

	if err := svc.DeleteDish(context.Background(), "dish-a"); !errors.Is(err, ErrDishNotFound) {
		t.Fatalf("expected ErrDishNotFound on second delete, got: %v", err)
	}
}

func TestSetDishImage_NotFound(t *testing.T) {
	svc, _, _ := newTestMenuService()
	err := svc.SetDishImage(context.Background(), "nope", "https://img.example/x.jpg")
	if !errors.Is(err, ErrDishNotFound) {
		t.Fatalf("expected ErrDishNotFound, got: %v", err)
	}
}
