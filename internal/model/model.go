package model

import (
	"github.com/shopspring/decimal"
)

// MenuOption is a named surcharge a customer can attach to a dish.
type MenuOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is one dish in the catalog. Mutated only by staff actions;
// hard-deleted, never soft-deleted.
type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	Method      string          `json:"method,omitempty"`
	Ingredients string          `json:"ingredients,omitempty"`
	Spicy       string          `json:"spicy,omitempty"`
	Taste       string          `json:"taste,omitempty"`
	Img         string          `json:"img,omitempty"`
	Options     []MenuOption    `json:"options,omitempty"`
}

// CartEntry is one line of the session cart, keyed by dish ID.
// Ephemeral; cleared on successful order submission.
type CartEntry struct {
	Quantity        int      `json:"quantity"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}

// OrderItem is a dish snapshot inside a submitted order. Price is copied
// at submission time so later menu edits never alter existing orders.
type OrderItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	SelectedOptions []string        `json:"selected_options,omitempty"`
}

// Order is a submitted customer order. ID is the creation time in
// milliseconds, matching what every device derives independently.
type Order struct {
	ID        int64           `json:"id"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	Timestamp int64           `json:"timestamp"`
}

// Document is the full remote document: the entire thing is replaced on
// every save, and trash stays device-local.
type Document struct {
	Menu   []MenuItem `json:"menu"`
	Orders []Order    `json:"orders"`
}

// CloneMenu deep-copies a menu slice so callers can hand it out without
// sharing option slices.
func CloneMenu(menu []MenuItem) []MenuItem {
	if menu == nil {
		return nil
	}
	out := make([]MenuItem, len(menu))
	copy(out, menu)
	for i := range out {
		if out[i].Options != nil {
			opts := make([]MenuOption, len(out[i].Options))
			copy(opts, out[i].Options)
			out[i].Options = opts
		}
	}
	return out
}

// CloneOrders deep-copies an order slice including item rows.
func CloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	copy(out, orders)
	for i := range out {
		if out[i].Items != nil {
			items := make([]OrderItem, len(out[i].Items))
			copy(items, out[i].Items)
			for j := range items {
				if items[j].SelectedOptions != nil {
					sel := make([]string, len(items[j].SelectedOptions))
					copy(sel, items[j].SelectedOptions)
					items[j].SelectedOptions = sel
				}
			}
			out[i].Items = items
		}
	}
	return out
}
