package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is what the caller adds to the cart, usually straight from a
// product detail response.
type Product struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	// Stock is nil when the backend did not say.
	Stock   *int   `json:"stock,omitempty"`
	SKUID   string `json:"skuId,omitempty"`
	SKUText string `json:"skuText,omitempty"`
}

// Item is one cart line. There is at most one per ProductID.
type Item struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
	Quantity  int
	Selected  bool
	Stock     *int
	SKUID     string
	SKUText   string
}

// Subtotal is Price × Quantity.
func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// itemJSON is the persisted shape. Prices are written as JSON numbers.
type itemJSON struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Image     string      `json:"image"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	Selected  bool        `json:"selected"`
	Stock     *int        `json:"stock,omitempty"`
	SKUID     string      `json:"skuId,omitempty"`
	SKUText   string      `json:"skuText,omitempty"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		ProductID: it.ProductID,
		Name:      it.Name,
		Image:     it.Image,
		Price:     json.Number(it.Price.String()),
		Quantity:  it.Quantity,
		Selected:  it.Selected,
		Stock:     it.Stock,
		SKUID:     it.SKUID,
		SKUText:   it.SKUText,
	})
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var aux struct {
		ProductID string          `json:"productId"`
		Name      string          `json:"name"`
		Image     string          `json:"image"`
		Price     decimal.Decimal `json:"price"`
		Quantity  int             `json:"quantity"`
		Selected  bool            `json:"selected"`
		Stock     *int            `json:"stock"`
		SKUID     string          `json:"skuId"`
		SKUText   string          `json:"skuText"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*it = Item{
		ProductID: aux.ProductID,
		Name:      aux.Name,
		Image:     aux.Image,
		Price:     aux.Price,
		Quantity:  aux.Quantity,
		Selected:  aux.Selected,
		Stock:     aux.Stock,
		SKUID:     aux.SKUID,
		SKUText:   aux.SKUText,
	}
	return nil
}

func newItem(p Product, quantity int) Item {
	return Item{
		ProductID: p.ProductID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     p.Price,
		Quantity:  quantity,
		Selected:  true,
		Stock:     copyInt(p.Stock),
		SKUID:     p.SKUID,
		SKUText:   p.SKUText,
	}
}

func (it Item) clone() Item {
	it.Stock = copyInt(it.Stock)
	return it
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
