package model

// CartLineItem is one row in the cart: a product, its selected variation if
// any, and the quantity. Prices are snapshotted at add time.
type CartLineItem struct {
	ProductID   string  `json:"productId"`
	VariationID *string `json:"variationId"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unitPrice"`
	ImageURL    *string `json:"imageUrl"`
	Quantity    int     `json:"quantity"`
}

// Key returns the line item identity. At most one line item may exist per
// key; adding a duplicate increments quantity instead of appending a row.
func (i CartLineItem) Key() string {
	if i.VariationID == nil {
		return i.ProductID
	}
	return i.ProductID + "/" + *i.VariationID
}

// LineTotal returns unit price times quantity.
func (i CartLineItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Cart is the persisted cart record. TotalItems and TotalPrice are derived
// from Items and recomputed on every mutation, never set independently.
type Cart struct {
	Items      []CartLineItem `json:"items"`
	TotalItems int            `json:"totalItems"`
	TotalPrice float64        `json:"totalPrice"`
}

// Recompute refreshes the derived aggregates from the line items.
func (c *Cart) Recompute() {
	totalItems := 0
	totalPrice := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalPrice += item.LineTotal()
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
}

// IsEmpty reports whether the cart holds no line items.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
