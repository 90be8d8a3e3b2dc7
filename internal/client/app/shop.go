package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/atinyakov/GophMall/internal/client/api"
	"github.com/atinyakov/GophMall/internal/client/cart"
)

// ErrNothingSelected is returned by Checkout when no cart line is selected.
var ErrNothingSelected = errors.New("no cart items selected")

// Fetch runs fn and returns the payload when the response succeeds under
// the configured convention. Otherwise the error is an *api.Error whose
// message falls back to fallback.
func (a *App) Fetch(fallback string, fn func() (*api.Response, error)) (gjson.Result, error) {
	resp, err := fn()
	if err != nil || !a.convention.Succeeded(resp) {
		return gjson.Result{}, api.Reject(resp, err, fallback)
	}
	return a.convention.Payload(resp), nil
}

// AddProduct fetches product id and adds quantity of it to the cart.
func (a *App) AddProduct(ctx context.Context, id string, quantity int) error {
	payload, err := a.Fetch("failed to load product", func() (*api.Response, error) {
		return a.API.ProductDetail(ctx, id)
	})
	if err != nil {
		return err
	}
	var p cart.Product
	if err := json.Unmarshal([]byte(payload.Raw), &p); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}
	return a.Cart.AddItem(ctx, p, quantity)
}

type orderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Checkout places an order for the selected cart lines and removes them
// from the cart once the backend accepts it.
func (a *App) Checkout(ctx context.Context, addressID string) (gjson.Result, error) {
	selected := a.Cart.SelectedItems()
	if len(selected) == 0 {
		return gjson.Result{}, ErrNothingSelected
	}

	lines := make([]orderLine, 0, len(selected))
	for _, it := range selected {
		lines = append(lines, orderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := a.Fetch("failed to place order", func() (*api.Response, error) {
		return a.API.PlaceOrder(ctx, map[string]any{
			"addressId": addressID,
			"items":     lines,
		})
	})
	if err != nil {
		return gjson.Result{}, err
	}

	var errs []error
	for _, it := range selected {
		errs = append(errs, a.Cart.RemoveItem(ctx, it.ProductID))
	}
	return order, errors.Join(errs...)
}
