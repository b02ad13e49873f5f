package controllers

import (
	"time"

	"github.com/angelmondragon/vendorverse/internal/cart"
	"github.com/angelmondragon/vendorverse/internal/catalog"
	"github.com/angelmondragon/vendorverse/internal/session"
)

const moneyPlaces = 2

type UserResponse struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	Role             string  `json:"role"`
	Avatar           *string `json:"avatar,omitempty"`
	IsApproved       *bool   `json:"is_approved,omitempty"`
	StoreName        *string `json:"store_name,omitempty"`
	StoreDescription *string `json:"store_description,omitempty"`
}

func userResponse(u *session.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role.String(),
		Avatar:           u.Avatar,
		IsApproved:       u.IsApproved,
		StoreName:        u.StoreName,
		StoreDescription: u.StoreDescription,
	}
}

type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user"`
}

func sessionResponse(u *session.User) SessionResponse {
	return SessionResponse{Authenticated: u != nil, User: userResponse(u)}
}

type CartItemResponse struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	Image        string `json:"image"`
	UnitPrice    string `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	LineTotal    string `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  string             `json:"subtotal"`
}

func cartResponse(items []cart.LineItem) CartResponse {
	totals := cart.ComputeTotals(items)
	out := CartResponse{
		Items:     make([]CartItemResponse, 0, len(items)),
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal.StringFixed(moneyPlaces),
	}
	for _, item := range items {
		out.Items = append(out.Items, CartItemResponse{
			ProductID:    item.Product.ID,
			Name:         item.Product.Name,
			MerchantID:   item.Product.MerchantID,
			MerchantName: item.Product.MerchantName,
			Image:        item.Product.Image,
			UnitPrice:    item.UnitPrice.StringFixed(moneyPlaces),
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal().StringFixed(moneyPlaces),
		})
	}
	return out
}

type ProductResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	MerchantID   string    `json:"merchant_id"`
	MerchantName string    `json:"merchant_name"`
	Stock        int       `json:"stock"`
	InStock      bool      `json:"in_stock"`
	LowStock     bool      `json:"low_stock"`
	Rating       float64   `json:"rating"`
	Reviews      int       `json:"reviews"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func productResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price.StringFixed(moneyPlaces),
		Image:        p.Image,
		Category:     p.Category,
		MerchantID:   p.MerchantID,
		MerchantName: p.MerchantName,
		Stock:        p.Stock,
		InStock:      p.InStock(),
		LowStock:     p.LowStock(),
		Rating:       p.Rating,
		Reviews:      p.Reviews,
		Tags:         p.Tags,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func productsResponse(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse(p))
	}
	return out
}
