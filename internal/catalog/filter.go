package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter narrows a product listing. Zero values leave a predicate unset; all
// set predicates must match. Merchant matches the merchant id exactly or the
// merchant name ignoring case. Search is a case-insensitive substring match over
// name, description and tags.
type Filter struct {
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Merchant  string
	MinRating *float64
	Search    string
}

func (f Filter) matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Merchant != "" && p.MerchantID != f.Merchant && !strings.EqualFold(p.MerchantName, f.Merchant) {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" && !matchesSearch(p, term) {
		return false
	}
	return true
}

func matchesSearch(p Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Filter returns the products matching every set predicate, in catalog order.
func (c *Catalog) Filter(f Filter) []Product {
	out := []Product{}
	for _, p := range c.products {
		if f.matches(p) {
			out = append(out, cloneProduct(p))
		}
	}
	return out
}
