package usecases

import (
	"context"
	"errors"
	"orderchat/internal/entities"
	"sync"

	"github.com/shopspring/decimal"
)

var errBackend = errors.New("backend unavailable")

type fakeCatalog struct {
	products []entities.Product
	err      error
	calls    int
}

func (f *fakeCatalog) ListCatalog(ctx context.Context) ([]entities.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeCart struct {
	mu           sync.Mutex
	cart         *entities.CartSnapshot
	added        []string
	removeCalls  int
	checkoutCall int
	removeStatus string
	err          error
}

func (f *fakeCart) AddToCart(ctx context.Context, ownerID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, ownerID+"/"+productID)
	return nil
}

func (f *fakeCart) GetCart(ctx context.Context, ownerID string) (*entities.CartSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.cart, nil
}

func (f *fakeCart) RemoveAllItems(ctx context.Context, ownerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.removeStatus, nil
}

func (f *fakeCart) Checkout(ctx context.Context, ownerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCall++
	if f.err != nil {
		return "", f.err
	}
	return "Order placed.", nil
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{products: []entities.Product{
		{ID: "P-1", Name: "Milk", UnitPrice: decimal.RequireFromString("45.50")},
		{ID: "P-2", Name: "Bread", UnitPrice: decimal.RequireFromString("30")},
	}}
}

func sampleCart() *entities.CartSnapshot {
	return &entities.CartSnapshot{
		Items: []entities.CartItem{{
			ProductName: "Milk",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("45.50"),
			TotalPrice:  decimal.RequireFromString("91.00"),
		}},
		GrandTotal: decimal.RequireFromString("91.00"),
	}
}
