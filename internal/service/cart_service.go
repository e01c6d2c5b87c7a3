package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/shopping-ecommerce/cart-service/internal/catalog"
	"github.com/shopping-ecommerce/cart-service/internal/domain"
	"github.com/shopping-ecommerce/cart-service/internal/repository"
)

// Resolver is the product-catalog lookup the service depends on.
type Resolver interface {
	Resolve(ctx context.Context, productID string, options map[string]string) (*catalog.Product, error)
}

// AddItemParams carries an add-to-cart request past input validation.
type AddItemParams struct {
	UserID     string
	ProductID  string
	SellerID   string
	SellerName string
	Quantity   int
	Options    map[string]string
}

// ItemKey addresses one line in a cart by its identity components.
type ItemKey struct {
	SellerID  string
	ProductID string
	Options   map[string]string
}

func (k ItemKey) uniqueKey() string {
	return domain.UniqueKey(k.SellerID, k.ProductID, k.Options)
}

// CartService runs each operation as a single load, mutate, recompute,
// save unit. A failed mutation never saves.
type CartService struct {
	repo     repository.CartRepository
	catalog  Resolver
	shipping domain.ShippingPolicy
	logger   zerolog.Logger
	sfg      singleflight.Group // coalesces concurrent reads per user
}

func NewCartService(repo repository.CartRepository, resolver Resolver, shipping domain.ShippingPolicy, logger zerolog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		catalog:  resolver,
		shipping: shipping,
		logger:   logger,
	}
}

// AddItem resolves the product against the catalog and merges it into the
// user's cart. The catalog's price, name and image are authoritative; a
// product-not-found from the resolver is propagated untouched.
func (s *CartService) AddItem(ctx context.Context, p AddItemParams) (*domain.Cart, error) {
	cart, err := s.loadOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.Resolve(ctx, p.ProductID, p.Options)
	if err != nil {
		return nil, err
	}

	cart.AddOrMergeItem(domain.CartItem{
		ProductID:    p.ProductID,
		SellerID:     p.SellerID,
		SellerName:   p.SellerName,
		Options:      p.Options,
		UnitPrice:    product.Price,
		Quantity:     p.Quantity,
		ProductName:  product.Name,
		ProductImage: product.Image,
	})
	cart.CalculateTotals(s.shipping)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", p.UserID).Msg("save cart failed")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", p.UserID).
		Str("product_id", p.ProductID).
		Str("seller_id", p.SellerID).
		Int("quantity", p.Quantity).
		Msg("item added to cart")
	return cart, nil
}

// GetOrCreateCart never fails on absence: a missing cart is returned as a
// fresh empty one, persisted only once a mutation happens.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		return s.loadOrCreate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// GetCart requires an existing cart and propagates ErrCartNotFound.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetCart(ctx, userID)
}

// UpdateQuantity overwrites the quantity of one line. Zero or negative
// removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, key ItemKey, quantity int) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.SetItemQuantity(key.uniqueKey(), quantity); err != nil {
		return nil, err
	}
	cart.CalculateTotals(s.shipping)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("save cart failed")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Int("quantity", quantity).Msg("cart item quantity updated")
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, key ItemKey) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := cart.RemoveItem(key.uniqueKey()); err != nil {
		return nil, err
	}
	cart.CalculateTotals(s.shipping)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("save cart failed")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("cart item removed")
	return cart, nil
}

// RemoveItems deletes every matching line in one pass. Unmatched keys are
// ignored; the call fails only when no key matched at all.
func (s *CartService) RemoveItems(ctx context.Context, userID string, keys []ItemKey) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	uniqueKeys := make([]string, len(keys))
	for i, k := range keys {
		uniqueKeys[i] = k.uniqueKey()
	}

	if err := cart.RemoveItems(uniqueKeys); err != nil {
		return nil, err
	}
	cart.CalculateTotals(s.shipping)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("save cart failed")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Int("requested", len(keys)).Msg("cart items removed")
	return cart, nil
}

// ClearCart empties an existing cart. The emptied cart is saved, which
// also refreshes its TTL.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	cart.CalculateTotals(s.shipping)

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("save cart failed")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("cart cleared")
	return cart, nil
}

// GetSummary builds the checkout summary from a snapshot. Read only: the
// cart is not mutated and nothing is saved.
func (s *CartService) GetSummary(ctx context.Context, userID string) (*domain.CartSummary, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.BuildSummary(cart, s.shipping), nil
}

// GetItemCount reports the total quantity across lines, zero when the user
// has no cart.
func (s *CartService) GetItemCount(ctx context.Context, userID string) (int, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

func (s *CartService) loadOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}
