package cart

import (
	"slices"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Reduce applies a to state and returns the next state. The input state is
// never modified; when a is a no-op the input is returned as is.
func Reduce(state domain.CartState, a Action) domain.CartState {
	switch a := a.(type) {
	case AddItem:
		return addItem(state, a.Item)
	case RemoveItem:
		return removeItem(state, a.ID)
	case SetQty:
		if a.Qty <= 0 {
			return removeItem(state, a.ID)
		}
		return setQty(state, a.ID, a.Qty)
	case Clear:
		return domain.EmptyCart()
	default:
		return state
	}
}

func addItem(state domain.CartState, item domain.CartItem) domain.CartState {
	existing, idx := state.Find(item.ID)
	if idx < 0 {
		items := make([]domain.CartItem, 0, len(state.Items)+1)
		items = append(items, state.Items...)
		return domain.CartState{Items: append(items, item)}
	}

	items := slices.Clone(state.Items)
	existing.Qty += item.Qty
	items[idx] = existing
	return domain.CartState{Items: items}
}

func removeItem(state domain.CartState, id string) domain.CartState {
	if _, idx := state.Find(id); idx < 0 {
		return state
	}

	items := make([]domain.CartItem, 0, len(state.Items)-1)
	for _, it := range state.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	return domain.CartState{Items: items}
}

func setQty(state domain.CartState, id string, qty int) domain.CartState {
	existing, idx := state.Find(id)
	if idx < 0 {
		return state
	}

	items := slices.Clone(state.Items)
	existing.Qty = qty
	items[idx] = existing
	return domain.CartState{Items: items}
}
