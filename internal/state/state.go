package state

import (
	"sync"

	"github.com/diancan-pos/api/internal/enum"
	"github.com/diancan-pos/api/internal/model"
)

// Data is the mutable application state for one device: the menu catalog,
// the active orders, the trash holding area, the session cart, and the
// current view. An explicit container injected into everything that
// mutates it; there are no package-level globals.
type Data struct {
	Menu   []model.MenuItem
	Orders []model.Order
	Trash  []model.Order
	Cart   map[string]model.CartEntry
	View   string
}

// Store guards Data behind a mutex and fires a notification hook after
// every mutation so attached UI sessions can re-render.
type Store struct {
	mu     sync.RWMutex
	data   Data
	notify func(event string)
}

// New creates a Store starting in the customer view with an empty cart.
func New() *Store {
	return &Store{
		data: Data{
			Cart: make(map[string]model.CartEntry),
			View: enum.ViewCustomer,
		},
	}
}

// SetNotify installs the change hook. The hook runs outside the lock.
func (s *Store) SetNotify(fn func(event string)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Update runs fn with exclusive access to the state. Compound mutations
// (read cart, append order, clear cart) go through a single Update call so
// no other handler observes a half-applied change. The change hook fires
// only when fn reports that it actually mutated something.
func (s *Store) Update(event string, fn func(d *Data) bool) {
	s.mu.Lock()
	applied := fn(&s.data)
	hook := s.notify
	s.mu.Unlock()

	if applied && hook != nil {
		hook(event)
	}
}

// Read runs fn with shared access to the state.
func (s *Store) Read(fn func(d *Data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

// Menu returns a deep copy of the catalog.
func (s *Store) Menu() []model.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneMenu(s.data.Menu)
}

// Orders returns a deep copy of the active orders.
func (s *Store) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneOrders(s.data.Orders)
}

// Trash returns a deep copy of the soft-deleted orders.
func (s *Store) Trash() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneOrders(s.data.Trash)
}

// Cart returns a copy of the session cart.
func (s *Store) Cart() map[string]model.CartEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.CartEntry, len(s.data.Cart))
	for id, e := range s.data.Cart {
		if e.SelectedOptions != nil {
			sel := make([]string, len(e.SelectedOptions))
			copy(sel, e.SelectedOptions)
			e.SelectedOptions = sel
		}
		out[id] = e
	}
	return out
}

// View returns the current session view.
func (s *Store) View() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.View
}

// SetView switches between the customer and kitchen views.
func (s *Store) SetView(view string) {
	s.Update("view_changed", func(d *Data) bool {
		d.View = view
		return true
	})
}

// Document snapshots the state that gets pushed to the remote bin. Trash
// is deliberately absent: it is device-local.
func (s *Store) Document() model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Document{
		Menu:   model.CloneMenu(s.data.Menu),
		Orders: model.CloneOrders(s.data.Orders),
	}
}

// LoadDocument replaces menu and orders from an initial remote load.
// Only used at boot; after that, orders are locally authoritative.
func (s *Store) LoadDocument(doc model.Document) {
	s.Update("loaded", func(d *Data) bool {
		d.Menu = model.CloneMenu(doc.Menu)
		d.Orders = model.CloneOrders(doc.Orders)
		return true
	})
}

// ReplaceMenu overwrites the catalog from a remote poll.
func (s *Store) ReplaceMenu(menu []model.MenuItem) {
	s.Update("menu_synced", func(d *Data) bool {
		d.Menu = model.CloneMenu(menu)
		return true
	})
}
