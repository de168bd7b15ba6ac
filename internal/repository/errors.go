package repository

import "errors"

var ErrProductNotFound = errors.New("product not found")

// Status lines returned to the chat by RemoveAllItems and Checkout
const (
	RemovedAllText        = "🗑️ All items removed from your cart."
	NothingToRemoveText   = "🛒 Your cart is already empty."
	NothingToCheckoutText = "🛒 Your cart is empty. Add something before checking out."
	orderPlacedFormat     = "✅ Order #%d placed. Total: ₹%s. Thank you!"
)
