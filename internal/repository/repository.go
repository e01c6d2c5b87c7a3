package repository

import (
	"context"
	"errors"

	"github.com/shopping-ecommerce/cart-service/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository is the persistence contract for carts. SaveCart owns the
// TTL refresh: every successful save restarts the cart's expiration.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
