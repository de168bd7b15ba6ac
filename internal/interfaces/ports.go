package interfaces

import (
	"context"
	"orderchat/internal/entities"
)

type CatalogService interface {
	ListCatalog(ctx context.Context) ([]entities.Product, error)
}

type ProductSearcher interface {
	SearchCatalog(ctx context.Context, query string) ([]entities.Product, error)
}

// ProductCatalog is the read side of the product list served over HTTP
type ProductCatalog interface {
	CatalogService
	ProductSearcher
}

// CartService is the order side of the assistant. RemoveAllItems and Checkout
// return a human readable status line that is shown to the user as is.
type CartService interface {
	AddToCart(ctx context.Context, ownerID, productID string) error
	GetCart(ctx context.Context, ownerID string) (*entities.CartSnapshot, error)
	RemoveAllItems(ctx context.Context, ownerID string) (string, error)
	Checkout(ctx context.Context, ownerID string) (string, error)
}

type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}

// OrderStore is everything a storage backend has to provide
type OrderStore interface {
	ProductCatalog
	CartService
	UserStore
	UpsertProducts(ctx context.Context, products []entities.Product) error
}
