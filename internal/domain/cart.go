package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound   = errors.New("item not found in cart")
	ErrNothingRemoved = errors.New("no matching items in cart")
)

// ShippingPolicy holds the per-deployment shipping rule. Injected from
// config so per-market values can differ without code changes.
type ShippingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

type CartItem struct {
	ProductID    string            `json:"product_id"`
	SellerID     string            `json:"seller_id"`
	SellerName   string            `json:"seller_name"`
	Options      map[string]string `json:"options,omitempty"`
	UnitPrice    decimal.Decimal   `json:"unit_price"`
	Quantity     int               `json:"quantity"`
	TotalPrice   decimal.Decimal   `json:"total_price"`
	ProductName  string            `json:"product_name"`
	ProductImage string            `json:"product_image"`
}

type Cart struct {
	UserID            string          `json:"user_id"`
	Items             []CartItem      `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	EstimatedShipping decimal.Decimal `json:"estimated_shipping"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		UserID:            userID,
		Items:             []CartItem{},
		Subtotal:          decimal.Zero,
		TotalDiscount:     decimal.Zero,
		EstimatedShipping: decimal.Zero,
		TotalAmount:       decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// CanonicalOptions normalizes a variant-option mapping into a deterministic
// string: keys are trimmed and lowercased, values trimmed, pairs sorted and
// joined as k=v with '|'. A nil or empty mapping canonicalizes to "".
func CanonicalOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(options))
	for k, v := range options {
		pairs = append(pairs, strings.ToLower(strings.TrimSpace(k))+"="+strings.TrimSpace(v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "|")
}

// UniqueKey derives the line-item identity from seller, product and options.
// Same key means the same purchasable line, regardless of display fields.
func UniqueKey(sellerID, productID string, options map[string]string) string {
	return sellerID + "-" + productID + "-" + CanonicalOptions(options)
}

func (i CartItem) UniqueKey() string {
	return UniqueKey(i.SellerID, i.ProductID, i.Options)
}

func (i *CartItem) CalculateTotalPrice() {
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AddOrMergeItem appends the item, or merges it into an existing line with
// the same identity. On merge, quantities are summed and the display fields
// are overwritten field by field with the incoming catalog data, which is
// considered fresher. The unit price of the existing line is kept.
func (c *Cart) AddOrMergeItem(item CartItem) {
	item.CalculateTotalPrice()

	key := item.UniqueKey()
	for i := range c.Items {
		if c.Items[i].UniqueKey() != key {
			continue
		}
		existing := &c.Items[i]
		existing.Quantity += item.Quantity
		existing.ProductName = item.ProductName
		existing.ProductImage = item.ProductImage
		existing.SellerName = item.SellerName
		existing.CalculateTotalPrice()
		return
	}

	c.Items = append(c.Items, item)
}

// SetItemQuantity overwrites the quantity of the line matching key.
// A quantity of zero or less removes the line entirely.
func (c *Cart) SetItemQuantity(key string, quantity int) error {
	for i := range c.Items {
		if c.Items[i].UniqueKey() != key {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = quantity
		c.Items[i].CalculateTotalPrice()
		return nil
	}
	return ErrItemNotFound
}

func (c *Cart) RemoveItem(key string) error {
	for i := range c.Items {
		if c.Items[i].UniqueKey() == key {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// RemoveItems deletes every line whose identity is in keys, in one pass.
// Keys without a matching line are ignored; the call only fails when
// nothing at all was removed.
func (c *Cart) RemoveItems(keys []string) error {
	toRemove := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		toRemove[k] = struct{}{}
	}

	kept := c.Items[:0]
	removed := 0
	for _, item := range c.Items {
		if _, ok := toRemove[item.UniqueKey()]; ok {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept

	if removed == 0 {
		return ErrNothingRemoved
	}
	return nil
}

// Clear empties the cart. Clearing an already-empty cart is fine.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// TotalItems is the sum of line quantities, not the number of lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// CalculateTotals recomputes the cart-level money fields. Must run after
// every structural mutation; the persisted record is never left stale.
func (c *Cart) CalculateTotals(policy ShippingPolicy) {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	c.Subtotal = subtotal

	// Reserved extension point, always zero for now.
	c.TotalDiscount = decimal.Zero

	if subtotal.GreaterThanOrEqual(policy.FreeShippingThreshold) {
		c.EstimatedShipping = decimal.Zero
	} else {
		c.EstimatedShipping = policy.ShippingFee
	}

	c.TotalAmount = subtotal.Add(c.EstimatedShipping).Sub(c.TotalDiscount)
	c.UpdatedAt = time.Now()
}
