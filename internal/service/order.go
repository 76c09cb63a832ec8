package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/diancan-pos/api/internal/binstore"
	"github.com/diancan-pos/api/internal/enum"
	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/state"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrDishNotFound      = errors.New("dish not found")
	ErrOutOfStock        = errors.New("not enough stock")
	ErrInvalidOption     = errors.New("option not offered for this dish")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Saver pushes the full document to the remote bin.
// Satisfied by *binstore.Client.
type Saver interface {
	Save(ctx context.Context, doc model.Document) error
}

// nextStatus maps each advanceable status to its successor. Completed has
// no successor; everything else about the lifecycle (trash, restore,
// purge) happens out of band.
var nextStatus = map[string]string{
	enum.OrderStatusPending:    enum.OrderStatusProcessing,
	enum.OrderStatusProcessing: enum.OrderStatusCompleted,
}

// OrderService owns the cart and the order lifecycle. Every mutation is
// applied locally first and then eagerly pushed to the bin, which is what
// lets the reconciler leave orders alone on polls.
type OrderService struct {
	store *state.Store
	bin   Saver
	now   func() time.Time
}

// NewOrderService creates an OrderService. now is the clock used for order
// ids; pass time.Now outside tests.
func NewOrderService(store *state.Store, bin Saver, now func() time.Time) *OrderService {
	if now == nil {
		now = time.Now
	}
	return &OrderService{store: store, bin: bin, now: now}
}

// AddToCart puts one more of a dish into the session cart. Stock is
// checked here, at add time, and never again at submission: the stock
// field is maintained by hand and submission does not decrement it.
func (s *OrderService) AddToCart(dishID string, selectedOptions []string) error {
	var err error
	s.store.Update("cart_changed", func(d *state.Data) bool {
		dish, ok := findDish(d.Menu, dishID)
		if !ok {
			err = ErrDishNotFound
			return false
		}
		for _, name := range selectedOptions {
			if !hasOption(dish, name) {
				err = fmt.Errorf("%w: %s", ErrInvalidOption, name)
				return false
			}
		}
		entry := d.Cart[dishID]
		if entry.Quantity+1 > dish.Stock {
			err = ErrOutOfStock
			return false
		}
		entry.Quantity++
		if selectedOptions != nil {
			entry.SelectedOptions = append([]string(nil), selectedOptions...)
		}
		d.Cart[dishID] = entry
		return true
	})
	return err
}

// RemoveFromCart takes one of a dish out of the cart, dropping the entry
// when it reaches zero.
func (s *OrderService) RemoveFromCart(dishID string) error {
	var err error
	s.store.Update("cart_changed", func(d *state.Data) bool {
		entry, ok := d.Cart[dishID]
		if !ok {
			err = ErrDishNotFound
			return false
		}
		entry.Quantity--
		if entry.Quantity <= 0 {
			delete(d.Cart, dishID)
		} else {
			d.Cart[dishID] = entry
		}
		return true
	})
	return err
}

// SubmitOrder materializes the cart into a Pending order, clears the cart,
// and pushes the new order list to the bin. Cart entries whose dish has
// been deleted from the menu are silently dropped; if nothing resolvable
// remains the submission fails with ErrEmptyCart and no state changes.
//
// The returned error may be binstore.ErrPayloadTooLarge after the order
// was created locally; callers surface that as a warning, not a failure.
func (s *OrderService) SubmitOrder(ctx context.Context) (model.Order, error) {
	var (
		order model.Order
		err   error
	)
	s.store.Update("order_submitted", func(d *state.Data) bool {
		items := resolveCart(d.Menu, d.Cart)
		if len(items) == 0 {
			err = ErrEmptyCart
			return false
		}

		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		now := s.now().UnixMilli()
		order = model.Order{
			ID:        now,
			Items:     items,
			Total:     total,
			Status:    enum.OrderStatusPending,
			Timestamp: now,
		}
		d.Orders = append(d.Orders, order)
		d.Cart = make(map[string]model.CartEntry)
		return true
	})
	if err != nil {
		return model.Order{}, err
	}
	return order, s.push(ctx)
}

// Advance moves an order Pending→Processing or Processing→Completed.
// The caller states which status it believes the order is in; a stale
// expectation (including a missing order) fails with ErrInvalidTransition
// and leaves the status untouched. Two devices advancing the same order
// concurrently still race at the bin — last write wins, by design.
func (s *OrderService) Advance(ctx context.Context, orderID int64, expectedFrom string) (model.Order, error) {
	target, ok := nextStatus[expectedFrom]
	if !ok {
		return model.Order{}, fmt.Errorf("%w: cannot advance from %q", ErrInvalidTransition, expectedFrom)
	}

	var (
		updated model.Order
		err     error
	)
	s.store.Update("order_advanced", func(d *state.Data) bool {
		i := findOrder(d.Orders, orderID)
		if i < 0 {
			err = fmt.Errorf("%w: order %d not found", ErrInvalidTransition, orderID)
			return false
		}
		if d.Orders[i].Status != expectedFrom {
			err = fmt.Errorf("%w: order %d is %s, not %s", ErrInvalidTransition, orderID, d.Orders[i].Status, expectedFrom)
			return false
		}
		d.Orders[i].Status = target
		updated = d.Orders[i]
		return true
	})
	if err != nil {
		return model.Order{}, err
	}
	return updated, s.push(ctx)
}

// Trash soft-deletes an order: it leaves the active list (and the bin)
// and moves to the device-local trash, status preserved. Allowed from any
// active status.
func (s *OrderService) Trash(ctx context.Context, orderID int64) error {
	var err error
	s.store.Update("order_trashed", func(d *state.Data) bool {
		i := findOrder(d.Orders, orderID)
		if i < 0 {
			err = ErrOrderNotFound
			return false
		}
		d.Trash = append(d.Trash, d.Orders[i])
		d.Orders = append(d.Orders[:i], d.Orders[i+1:]...)
		return true
	})
	if err != nil {
		return err
	}
	return s.push(ctx)
}

// Restore moves a trashed order back to the active list with the status
// it had when it was trashed.
func (s *OrderService) Restore(ctx context.Context, orderID int64) error {
	var err error
	s.store.Update("order_restored", func(d *state.Data) bool {
		i := findOrder(d.Trash, orderID)
		if i < 0 {
			err = ErrOrderNotFound
			return false
		}
		d.Orders = append(d.Orders, d.Trash[i])
		d.Trash = append(d.Trash[:i], d.Trash[i+1:]...)
		return true
	})
	if err != nil {
		return err
	}
	return s.push(ctx)
}

// Purge removes an order from the trash permanently. The trash never
// leaves the device, so no remote write happens here.
func (s *OrderService) Purge(orderID int64) error {
	var err error
	s.store.Update("order_purged", func(d *state.Data) bool {
		i := findOrder(d.Trash, orderID)
		if i < 0 {
			err = ErrOrderNotFound
			return false
		}
		d.Trash = append(d.Trash[:i], d.Trash[i+1:]...)
		return true
	})
	return err
}

func (s *OrderService) push(ctx context.Context) error {
	return pushDocument(ctx, s.bin, s.store)
}

// pushDocument saves the current document to the bin. Transient failures
// keep the local state and are only logged ("saved locally, sync failed");
// payload-too-large comes back to the caller so its specific warning can
// reach the user.
func pushDocument(ctx context.Context, bin Saver, store *state.Store) error {
	err := bin.Save(ctx, store.Document())
	if err == nil {
		return nil
	}
	if errors.Is(err, binstore.ErrPayloadTooLarge) {
		return err
	}
	log.Printf("ERROR: push to bin failed, keeping local state: %v", err)
	return nil
}

// --- Helpers ---

// resolveCart turns cart entries into order item snapshots. Entries with
// non-positive quantity or a dish no longer on the menu are dropped. The
// unit price snapshots the dish price plus any selected option surcharges.
func resolveCart(menu []model.MenuItem, cart map[string]model.CartEntry) []model.OrderItem {
	var items []model.OrderItem
	for dishID, entry := range cart {
		if entry.Quantity <= 0 {
			continue
		}
		dish, ok := findDish(menu, dishID)
		if !ok {
			continue
		}
		price := dish.Price
		for _, name := range entry.SelectedOptions {
			for _, opt := range dish.Options {
				if opt.Name == name {
					price = price.Add(opt.Price)
					break
				}
			}
		}
		items = append(items, model.OrderItem{
			ID:              dish.ID,
			Name:            dish.Name,
			Price:           price,
			Quantity:        entry.Quantity,
			SelectedOptions: append([]string(nil), entry.SelectedOptions...),
		})
	}
	// Map iteration order is random; keep item rows stable across devices.
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func findDish(menu []model.MenuItem, id string) (model.MenuItem, bool) {
	for _, m := range menu {
		if m.ID == id {
			return m, true
		}
	}
	return model.MenuItem{}, false
}

func hasOption(dish model.MenuItem, name string) bool {
	for _, opt := range dish.Options {
		if opt.Name == name {
			return true
		}
	}
	return false
}

func findOrder(orders []model.Order, id int64) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}
