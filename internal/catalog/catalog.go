package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/vendorverse/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seed []byte

const lowStockThreshold = 5

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	MerchantID   string          `json:"merchantId"`
	MerchantName string          `json:"merchantName"`
	Stock        int             `json:"stock"`
	Rating       float64         `json:"rating"`
	Reviews      int             `json:"reviews"`
	Tags         []string        `json:"tags"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// LowStock reports whether the product is nearly sold out.
func (p Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= lowStockThreshold
}

type Category struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
}

// Catalog is an immutable, ordered product list.
type Catalog struct {
	products   []Product
	byID       map[string]int
	categories []Category
}

type document struct {
	Categories []Category    `yaml:"categories"`
	Products   []productYAML `yaml:"products"`
}

type productYAML struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Price        string   `yaml:"price"`
	Image        string   `yaml:"image"`
	Category     string   `yaml:"category"`
	MerchantID   string   `yaml:"merchantId"`
	MerchantName string   `yaml:"merchantName"`
	Stock        int      `yaml:"stock"`
	Rating       float64  `yaml:"rating"`
	Reviews      int      `yaml:"reviews"`
	Tags         []string `yaml:"tags"`
	CreatedAt    string   `yaml:"createdAt"`
	UpdatedAt    string   `yaml:"updatedAt"`
}

func (p productYAML) toProduct() (Product, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Product{}, fmt.Errorf("product id is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return Product{}, fmt.Errorf("product %s: invalid price %q: %w", p.ID, p.Price, err)
	}
	if price.IsNegative() {
		return Product{}, fmt.Errorf("product %s: price must be non-negative", p.ID)
	}
	if p.Stock < 0 {
		return Product{}, fmt.Errorf("product %s: stock must be non-negative", p.ID)
	}
	createdAt, err := parseTimestamp(p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: createdAt: %w", p.ID, err)
	}
	updatedAt, err := parseTimestamp(p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: updatedAt: %w", p.ID, err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        price,
		Image:        p.Image,
		Category:     p.Category,
		MerchantID:   p.MerchantID,
		MerchantName: p.MerchantName,
		Stock:        p.Stock,
		Rating:       p.Rating,
		Reviews:      p.Reviews,
		Tags:         tags,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(seed))
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products:   make([]Product, 0, len(doc.Products)),
		byID:       make(map[string]int, len(doc.Products)),
		categories: doc.Categories,
	}
	for _, raw := range doc.Products {
		product, err := raw.toProduct()
		if err != nil {
			return nil, err
		}
		if _, dup := c.byID[product.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", product.ID)
		}
		c.byID[product.ID] = len(c.products)
		c.products = append(c.products, product)
	}
	return c, nil
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []Product {
	return cloneProducts(c.products)
}

// GetByID returns the product with id or a NOT_FOUND error.
func (c *Catalog) GetByID(id string) (Product, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return cloneProduct(c.products[idx]), nil
}

// ListByCategory returns the products whose category name equals category.
func (c *Catalog) ListByCategory(category string) []Product {
	return c.Filter(Filter{Category: category})
}

// Featured returns the first n products.
func (c *Catalog) Featured(n int) []Product {
	if n <= 0 {
		return []Product{}
	}
	if n > len(c.products) {
		n = len(c.products)
	}
	return cloneProducts(c.products[:n])
}

func (c *Catalog) Categories() []Category {
	return append([]Category{}, c.categories...)
}

func cloneProduct(p Product) Product {
	p.Tags = append([]string{}, p.Tags...)
	return p
}

func cloneProducts(in []Product) []Product {
	out := make([]Product, 0, len(in))
	for _, p := range in {
		out = append(out, cloneProduct(p))
	}
	return out
}
