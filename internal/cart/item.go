package cart

import (
	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/shopspring/decimal"
)

// ProductRef is the product snapshot a line item keeps.
type ProductRef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MerchantID   string `json:"merchantId"`
	MerchantName string `json:"merchantName"`
	Image        string `json:"image"`
}

// LineItem is one product in the cart. UnitPrice is frozen when the product is
// first added.
type LineItem struct {
	Product   ProductRef      `json:"product"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice × Quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func refFor(p catalog.Product) ProductRef {
	return ProductRef{
		ID:           p.ID,
		Name:         p.Name,
		MerchantID:   p.MerchantID,
		MerchantName: p.MerchantName,
		Image:        p.Image,
	}
}

type Totals struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ComputeTotals sums quantities and line totals.
func ComputeTotals(items []LineItem) Totals {
	totals := Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		totals.ItemCount += item.Quantity
		totals.Subtotal = totals.Subtotal.Add(item.LineTotal())
	}
	return totals
}

func validItems(items []LineItem) bool {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.Product.ID == "" || item.Quantity < 1 || item.Quantity > MaxQuantity || item.UnitPrice.IsNegative() {
			return false
		}
		if _, dup := seen[item.Product.ID]; dup {
			return false
		}
		seen[item.Product.ID] = struct{}{}
	}
	return true
}

func cloneItems(items []LineItem) []LineItem {
	return append([]LineItem{}, items...)
}
