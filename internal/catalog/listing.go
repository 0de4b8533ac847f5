package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type SortMode string

const (
	SortTitleAsc  SortMode = "title-asc"
	SortTitleDesc SortMode = "title-desc"
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-desc"
)

// ParseSortMode falls back to title-asc for anything it does not know.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc:
		return m
	default:
		return SortTitleAsc
	}
}

// Filter keeps products whose title, description or tags contain query,
// ignoring case. A blank query keeps everything.
func Filter(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(products)
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy. Prices compare by effective price and ties
// keep their upstream order.
func Sort(products []domain.Product, mode SortMode) []domain.Product {
	out := slices.Clone(products)

	var less func(a, b domain.Product) int
	switch mode {
	case SortPriceAsc:
		less = func(a, b domain.Product) int { return cmp.Compare(a.EffectivePrice(), b.EffectivePrice()) }
	case SortPriceDesc:
		less = func(a, b domain.Product) int { return cmp.Compare(b.EffectivePrice(), a.EffectivePrice()) }
	case SortTitleDesc:
		less = func(a, b domain.Product) int { return compareTitles(b, a) }
	default:
		less = compareTitles
	}

	slices.SortStableFunc(out, less)
	return out
}

func compareTitles(a, b domain.Product) int {
	return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}
