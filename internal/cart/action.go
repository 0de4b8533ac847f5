package cart

import "github.com/fjod/go_cart/storefront/internal/domain"

// Action is one of AddItem, RemoveItem, SetQty or Clear.
type Action interface {
	action()
}

// AddItem merges Item into the cart. An existing line keeps its fields and
// only gains quantity.
type AddItem struct {
	Item domain.CartItem
}

type RemoveItem struct {
	ID string
}

// SetQty replaces the quantity of a line. Zero or less removes it.
type SetQty struct {
	ID  string
	Qty int
}

type Clear struct{}

func (AddItem) action()    {}
func (RemoveItem) action() {}
func (SetQty) action()     {}
func (Clear) action()      {}
