package domain

import "github.com/shopspring/decimal"

// SellerSummary is the per-seller slice of a checkout summary. The shipping
// rule is evaluated against the seller's own subtotal, not the cart total.
type SellerSummary struct {
	SellerID              string          `json:"seller_id"`
	SellerName            string          `json:"seller_name"`
	ItemCount             int             `json:"item_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	FreeShipping          bool            `json:"free_shipping"`
	AmountForFreeShipping decimal.Decimal `json:"amount_for_free_shipping"`
	Items                 []CartItem      `json:"items"`
}

type CartSummary struct {
	TotalItems         int             `json:"total_items"`
	TotalSellers       int             `json:"total_sellers"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalShipping      decimal.Decimal `json:"total_shipping"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	FinalAmount        decimal.Decimal `json:"final_amount"`
	SellerSummaries    []SellerSummary `json:"seller_summaries"`
	HasOutOfStockItems bool            `json:"has_out_of_stock_items"`
	CanCheckout        bool            `json:"can_checkout"`
	CheckoutMessage    string          `json:"checkout_message"`
}

// BuildSummary derives a checkout-ready summary from a cart snapshot.
// Pure function: the cart is not mutated and nothing is persisted.
func BuildSummary(cart *Cart, policy ShippingPolicy) *CartSummary {
	if len(cart.Items) == 0 {
		return &CartSummary{
			Subtotal:        decimal.Zero,
			TotalShipping:   decimal.Zero,
			TotalDiscount:   decimal.Zero,
			FinalAmount:     decimal.Zero,
			SellerSummaries: []SellerSummary{},
			CanCheckout:     false,
			CheckoutMessage: "Cart is empty",
		}
	}

	// Group by seller in first-seen order so the output is stable.
	sellerOrder := make([]string, 0)
	itemsBySeller := make(map[string][]CartItem)
	for _, item := range cart.Items {
		if _, seen := itemsBySeller[item.SellerID]; !seen {
			sellerOrder = append(sellerOrder, item.SellerID)
		}
		itemsBySeller[item.SellerID] = append(itemsBySeller[item.SellerID], item)
	}

	sellerSummaries := make([]SellerSummary, 0, len(sellerOrder))
	totalShipping := decimal.Zero

	for _, sellerID := range sellerOrder {
		items := itemsBySeller[sellerID]

		sellerSubtotal := decimal.Zero
		for _, item := range items {
			sellerSubtotal = sellerSubtotal.Add(item.TotalPrice)
		}

		freeShipping := sellerSubtotal.GreaterThanOrEqual(policy.FreeShippingThreshold)
		shippingFee := policy.ShippingFee
		amountForFreeShipping := decimal.Zero
		if freeShipping {
			shippingFee = decimal.Zero
		} else {
			amountForFreeShipping = policy.FreeShippingThreshold.Sub(sellerSubtotal)
		}
		totalShipping = totalShipping.Add(shippingFee)

		sellerName := items[0].SellerName
		if sellerName == "" {
			sellerName = "Unknown seller"
		}

		sellerSummaries = append(sellerSummaries, SellerSummary{
			SellerID:              sellerID,
			SellerName:            sellerName,
			ItemCount:             len(items),
			Subtotal:              sellerSubtotal,
			ShippingFee:           shippingFee,
			FreeShipping:          freeShipping,
			AmountForFreeShipping: amountForFreeShipping,
			Items:                 items,
		})
	}

	return &CartSummary{
		TotalItems:      cart.TotalItems(),
		TotalSellers:    len(sellerOrder),
		Subtotal:        cart.Subtotal,
		TotalShipping:   totalShipping,
		TotalDiscount:   cart.TotalDiscount,
		FinalAmount:     cart.Subtotal.Add(totalShipping).Sub(cart.TotalDiscount),
		SellerSummaries: sellerSummaries,
		CanCheckout:     true,
		CheckoutMessage: "Ready to checkout",
	}
}
