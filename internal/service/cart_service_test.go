package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopping-ecommerce/cart-service/internal/catalog"
	"github.com/shopping-ecommerce/cart-service/internal/domain"
	"github.com/shopping-ecommerce/cart-service/internal/repository"
)

type mockRepository struct {
	m       sync.RWMutex
	cart    *domain.Cart
	getErr  error
	saveErr error
	saves   int
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cart, nil
}

func (m *mockRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cart = cart
	m.saves++
	return nil
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return nil
}

func (m *mockRepository) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

type mockResolver struct {
	product *catalog.Product
	err     error
}

func (m *mockResolver) Resolve(context.Context, string, map[string]string) (*catalog.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func testPolicy() domain.ShippingPolicy {
	return domain.ShippingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(500000),
		ShippingFee:           decimal.NewFromInt(30000),
	}
}

func newService(repo repository.CartRepository, resolver Resolver) *CartService {
	return NewCartService(repo, resolver, testPolicy(), zerolog.Nop())
}

func widgetResolver() *mockResolver {
	return &mockResolver{
		product: &catalog.Product{
			Name:  "Widget",
			Image: "widget.jpg",
			Price: decimal.NewFromInt(100000),
		},
	}
}

func TestAddItem_CreatesCartOnFirstAdd(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	cart, err := sut.AddItem(context.Background(), AddItemParams{
		UserID:     "user1",
		ProductID:  "p1",
		SellerID:   "s1",
		SellerName: "Seller One",
		Quantity:   2,
	})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Widget", cart.Items[0].ProductName)
	assert.True(t, cart.Items[0].UnitPrice.Equal(decimal.NewFromInt(100000)))
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(200000)))
	assert.True(t, cart.TotalAmount.Equal(decimal.NewFromInt(230000)))
	assert.Equal(t, 1, mockRepo.saveCount())
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	existing := domain.NewCart("user1")
	existing.AddOrMergeItem(domain.CartItem{
		ProductID:   "p1",
		SellerID:    "s1",
		UnitPrice:   decimal.NewFromInt(100000),
		Quantity:    2,
		ProductName: "Widget",
	})
	existing.CalculateTotals(testPolicy())
	mockRepo := &mockRepository{cart: existing}

	resolver := widgetResolver()
	resolver.product.Name = "Widget v2"

	sut := newService(mockRepo, resolver)
	cart, err := sut.AddItem(context.Background(), AddItemParams{
		UserID:    "user1",
		ProductID: "p1",
		SellerID:  "s1",
		Quantity:  1,
	})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "Widget v2", cart.Items[0].ProductName)
	assert.True(t, cart.Items[0].TotalPrice.Equal(decimal.NewFromInt(300000)))
}

func TestAddItem_ProductNotFound_NoSave(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}
	resolver := &mockResolver{err: catalog.ErrProductNotFound}

	sut := newService(mockRepo, resolver)
	_, err := sut.AddItem(context.Background(), AddItemParams{
		UserID:    "user1",
		ProductID: "missing",
		SellerID:  "s1",
		Quantity:  1,
	})

	// The resolver failure is propagated untouched and nothing is saved.
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	assert.Equal(t, 0, mockRepo.saveCount())
}

func TestAddItem_SaveError(t *testing.T) {
	mockRepo := &mockRepository{
		getErr:  repository.ErrCartNotFound,
		saveErr: fmt.Errorf("redis down"),
	}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.AddItem(context.Background(), AddItemParams{
		UserID:    "user1",
		ProductID: "p1",
		SellerID:  "s1",
		Quantity:  1,
	})
	require.ErrorContains(t, err, "redis down")
}

func TestGetOrCreateCart_ReturnsEmptyCartWhenAbsent(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	cart, err := sut.GetOrCreateCart(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, "user1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, mockRepo.saveCount(), "an ephemeral cart must not be persisted")
}

func TestGetOrCreateCart_RepoError(t *testing.T) {
	mockRepo := &mockRepository{getErr: fmt.Errorf("database error")}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.GetOrCreateCart(context.Background(), "user1")
	require.ErrorContains(t, err, "database error")
}

func TestGetCart_NotFoundPropagates(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.GetCart(context.Background(), "user1")
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestUpdateQuantity_Success(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  2,
	})
	cart.CalculateTotals(testPolicy())
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	updated, err := sut.UpdateQuantity(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "p1"}, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, updated.Items[0].Quantity)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(700000)))
	assert.True(t, updated.EstimatedShipping.Equal(decimal.Zero))
	assert.Equal(t, 1, mockRepo.saveCount())
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  2,
	})
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	updated, err := sut.UpdateQuantity(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "p1"}, 0)
	require.NoError(t, err)
	assert.Empty(t, updated.Items)
}

func TestUpdateQuantity_ItemNotFound_NoSave(t *testing.T) {
	mockRepo := &mockRepository{cart: domain.NewCart("user1")}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.UpdateQuantity(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "missing"}, 3)

	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Equal(t, 0, mockRepo.saveCount())
}

func TestUpdateQuantity_CartNotFound(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.UpdateQuantity(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "p1"}, 3)
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestRemoveItem_Success(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		Options:   map[string]string{"size": "M"},
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  1,
	})
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p2",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(50000),
		Quantity:  1,
	})
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	updated, err := sut.RemoveItem(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "p1", Options: map[string]string{"size": "M"}})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, "p2", updated.Items[0].ProductID)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(50000)))
}

func TestRemoveItem_NotFound(t *testing.T) {
	mockRepo := &mockRepository{cart: domain.NewCart("user1")}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.RemoveItem(context.Background(), "user1",
		ItemKey{SellerID: "s1", ProductID: "missing"})

	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Equal(t, 0, mockRepo.saveCount())
}

func TestRemoveItems_PartialMatchSucceeds(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  1,
	})
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	updated, err := sut.RemoveItems(context.Background(), "user1", []ItemKey{
		{SellerID: "s1", ProductID: "p1"},
		{SellerID: "s9", ProductID: "missing"},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Items)
	assert.Equal(t, 1, mockRepo.saveCount())
}

func TestRemoveItems_NothingRemoved_NoSave(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  1,
	})
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.RemoveItems(context.Background(), "user1", []ItemKey{
		{SellerID: "s9", ProductID: "missing"},
	})

	assert.ErrorIs(t, err, domain.ErrNothingRemoved)
	assert.Equal(t, 0, mockRepo.saveCount())
}

func TestClearCart_SavesEmptiedCart(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "s1",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  2,
	})
	cart.CalculateTotals(testPolicy())
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	cleared, err := sut.ClearCart(context.Background(), "user1")
	require.NoError(t, err)

	assert.Empty(t, cleared.Items)
	assert.True(t, cleared.Subtotal.Equal(decimal.Zero))
	assert.Equal(t, 1, mockRepo.saveCount())
}

func TestClearCart_CartNotFound(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	_, err := sut.ClearCart(context.Background(), "user1")
	assert.ErrorIs(t, err, repository.ErrCartNotFound)
}

func TestGetSummary_EmptyCart(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	summary, err := sut.GetSummary(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalItems)
	assert.False(t, summary.CanCheckout)
	assert.Equal(t, "Cart is empty", summary.CheckoutMessage)
	assert.Equal(t, 0, mockRepo.saveCount(), "summary is read only")
}

func TestGetSummary_GroupsBySeller(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p1",
		SellerID:  "sellerA",
		UnitPrice: decimal.NewFromInt(600000),
		Quantity:  1,
	})
	cart.AddOrMergeItem(domain.CartItem{
		ProductID: "p2",
		SellerID:  "sellerB",
		UnitPrice: decimal.NewFromInt(100000),
		Quantity:  1,
	})
	cart.CalculateTotals(testPolicy())
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	summary, err := sut.GetSummary(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSellers)
	assert.True(t, summary.TotalShipping.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, 0, mockRepo.saveCount())
}

func TestGetItemCount_NoCartIsZero(t *testing.T) {
	mockRepo := &mockRepository{getErr: repository.ErrCartNotFound}

	sut := newService(mockRepo, widgetResolver())
	count, err := sut.GetItemCount(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGetItemCount_SumsQuantities(t *testing.T) {
	cart := domain.NewCart("user1")
	cart.AddOrMergeItem(domain.CartItem{ProductID: "p1", SellerID: "s1", Quantity: 2})
	cart.AddOrMergeItem(domain.CartItem{ProductID: "p2", SellerID: "s1", Quantity: 3})
	mockRepo := &mockRepository{cart: cart}

	sut := newService(mockRepo, widgetResolver())
	count, err := sut.GetItemCount(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
