package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atinyakov/GophMall/internal/models"
)

// Catalog serves products and merchants from fixtures.
type Catalog struct {
	products  []models.Product
	merchants []models.Merchant
}

// NewCatalog returns a catalog over the given fixtures.
func NewCatalog(products []models.Product, merchants []models.Merchant) *Catalog {
	return &Catalog{products: products, merchants: merchants}
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Keyword  string
	Category string
}

// Products lists matching products ordered by id, together with the total
// number of matches before paging. page starts at 1.
func (c *Catalog) Products(_ context.Context, f ProductFilter, page, pageSize int) ([]models.Product, int) {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	var matched []models.Product
	for _, p := range c.products {
		if keyword != "" && !strings.Contains(strings.ToLower(p.Name), keyword) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = total
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []models.Product{}, total
	}
	end := min(start+pageSize, total)
	return matched[start:end], total
}

// Product returns the product with id.
func (c *Catalog) Product(_ context.Context, id string) (*models.Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// MerchantsOwnedBy lists the merchants operated by user id.
func (c *Catalog) MerchantsOwnedBy(_ context.Context, userID string) []models.Merchant {
	out := []models.Merchant{}
	for _, m := range c.merchants {
		if m.OwnerID == userID {
			out = append(out, m)
		}
	}
	return out
}

// Categories lists the distinct product categories.
func (c *Catalog) Categories(_ context.Context) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// DefaultCatalog is the catalog the development server starts with. The
// merchants belong to the seeded "merchant" user.
func DefaultCatalog() *Catalog {
	price := decimal.RequireFromString
	return NewCatalog(
		[]models.Product{
			{ID: "p1001", MerchantID: "m1", Name: "Green Tea", Image: "/static/tea-green.png", Price: price("12.50"), Stock: 40, Category: "tea"},
			{ID: "p1002", MerchantID: "m1", Name: "Oolong Tea", Image: "/static/tea-oolong.png", Price: price("18.00"), Stock: 5, Category: "tea"},
			{ID: "p1003", MerchantID: "m1", Name: "Tea Cup Set", Image: "/static/cups.png", Price: price("45.90"), Stock: 0, Category: "homeware"},
			{ID: "p2001", MerchantID: "m2", Name: "Go Programming Book", Image: "/static/go-book.png", Price: price("39.99"), Stock: 12, Category: "books"},
			{ID: "p2002", MerchantID: "m2", Name: "Notebook", Image: "/static/notebook.png", Price: price("3.20"), Stock: 200, Category: "stationery"},
		},
		[]models.Merchant{
			{ID: "m1", Name: "Tea House", OwnerID: "u-merchant"},
			{ID: "m2", Name: "Book Nook", OwnerID: "u-merchant"},
		},
	)
}
