package infrastructure

import (
	"context"
	"orderchat/internal/entities"
	"orderchat/internal/usecases"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// memStore keeps carts in memory, keyed by owner
type memStore struct {
	mu    sync.Mutex
	carts map[string][]entities.CartItem
}

func newMemStore() *memStore {
	return &memStore{carts: make(map[string][]entities.CartItem)}
}

func (m *memStore) ListCatalog(ctx context.Context) ([]entities.Product, error) {
	return []entities.Product{
		{ID: "MILK", Name: "Milk", UnitPrice: decimal.RequireFromString("45.50")},
	}, nil
}

func (m *memStore) AddToCart(ctx context.Context, ownerID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	price := decimal.RequireFromString("45.50")
	m.carts[ownerID] = append(m.carts[ownerID], entities.CartItem{
		ProductName: "Milk", Quantity: 1, UnitPrice: price, TotalPrice: price,
	})
	return nil
}

func (m *memStore) GetCart(ctx context.Context, ownerID string) (*entities.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[ownerID]
	if len(items) == 0 {
		return nil, nil
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return &entities.CartSnapshot{Items: append([]entities.CartItem(nil), items...), GrandTotal: total}, nil
}

func (m *memStore) RemoveAllItems(ctx context.Context, ownerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, ownerID)
	return "removed", nil
}

func (m *memStore) Checkout(ctx context.Context, ownerID string) (string, error) {
	return m.RemoveAllItems(ctx, ownerID)
}

func newTestSessions(store *memStore, ttl time.Duration) *SessionManager {
	factory := func(ownerID string) *usecases.ChatWidget {
		return usecases.NewChatWidget(ownerID, store, store, usecases.WithTypingDelay(5*time.Millisecond))
	}
	return NewSessionManager(factory, ttl, zerolog.Nop())
}

type recordingSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (r *recordingSender) messages() []tgbotapi.MessageConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), r.sent...)
}
