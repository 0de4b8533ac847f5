package domain

import "github.com/fjod/go_cart/storefront/internal/pricing"

// CartItem is one line of the cart. The JSON layout is the persisted
// snapshot format and must stay stable across releases.
type CartItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	ImageURL        string  `json:"imageUrl,omitempty"`
	Qty             int     `json:"qty"`
}

func (i CartItem) EffectivePrice() float64 {
	return pricing.EffectivePrice(i.Price, i.DiscountedPrice)
}

func (i CartItem) LineTotal() float64 {
	return pricing.LineTotal(i.EffectivePrice(), i.Qty)
}

// CartState is treated as immutable: transitions build a new Items slice
// instead of writing into the existing one.
type CartState struct {
	Items []CartItem `json:"items"`
}

func EmptyCart() CartState {
	return CartState{Items: []CartItem{}}
}

type CartSelectors struct {
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
}

// Selectors folds the current items into aggregates. It is recomputed on
// every call and never cached.
func (s CartState) Selectors() CartSelectors {
	var count int
	lines := make([]float64, 0, len(s.Items))
	for _, it := range s.Items {
		count += it.Qty
		lines = append(lines, it.LineTotal())
	}
	return CartSelectors{ItemCount: count, Subtotal: pricing.Sum(lines...)}
}

// Find returns the item with the given id and its position, or -1.
func (s CartState) Find(id string) (CartItem, int) {
	for i, it := range s.Items {
		if it.ID == id {
			return it, i
		}
	}
	return CartItem{}, -1
}

func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}

// ToCartItem projects a product into a cart line with the given quantity.
func ToCartItem(p Product, qty int) CartItem {
	return CartItem{
		ID:              p.ID,
		Title:           p.Title,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice,
		ImageURL:        p.ImageURL(),
		Qty:             qty,
	}
}
