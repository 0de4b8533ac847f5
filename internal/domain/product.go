package domain

import (
	"encoding/json"

	"github.com/fjod/go_cart/storefront/internal/pricing"
)

type Product struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	DiscountedPrice float64  `json:"discountedPrice"`
	Rating          *float64 `json:"rating,omitempty"`
	Image           *Image   `json:"image,omitempty"`
	Reviews         []Review `json:"reviews,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Review struct {
	ID          string  `json:"id"`
	Username    string  `json:"username,omitempty"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description,omitempty"`
}

// UnmarshalJSON falls back to the listed price when the payload has no
// discountedPrice, so a missing field never reads as a free product.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		DiscountedPrice *float64 `json:"discountedPrice"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DiscountedPrice != nil {
		p.DiscountedPrice = *aux.DiscountedPrice
	} else {
		p.DiscountedPrice = p.Price
	}
	return nil
}

func (p Product) EffectivePrice() float64 {
	return pricing.EffectivePrice(p.Price, p.DiscountedPrice)
}

func (p Product) DiscountPercent() int {
	return pricing.DiscountPercent(p.Price, p.DiscountedPrice)
}

func (p Product) ImageURL() string {
	if p.Image == nil {
		return ""
	}
	return p.Image.URL
}
