package rules

// ItemContext is one order line augmented with catalog context for rule
// evaluation. HasStockData is false when no local product is linked to the
// line, or the product carries no inventory information.
type ItemContext struct {
	OfferSKU     string
	Quantity     int
	Category     string
	HasStockData bool
	OnHandQty    int
}

// EvaluationContext carries everything the condition evaluator may need
// about one order. It is assembled by the application layer from the order
// and its resolved products.
type EvaluationContext struct {
	OrderID         string
	RemoteOrderID   string
	OrderTotalCents int64
	MaxItemQuantity int
	TotalQuantity   int
	ShippingZone    string
	ShippingCountry string
	Items           []ItemContext
}

// AllItemsInStock reports whether every line has enough on-hand stock.
// Lines without stock data are assumed in stock (permissive default).
func (c *EvaluationContext) AllItemsInStock() bool {
	for _, it := range c.Items {
		if !it.HasStockData {
			continue
		}
		if it.OnHandQty < it.Quantity {
			return false
		}
	}
	return true
}

// AnyItemOutOfStock reports whether any line lacks on-hand stock.
// Lines without stock data count as out of stock (restrictive default).
// The asymmetry with AllItemsInStock is long-standing documented behavior
// and is preserved as-is.
func (c *EvaluationContext) AnyItemOutOfStock() bool {
	for _, it := range c.Items {
		if !it.HasStockData {
			return true
		}
		if it.OnHandQty < it.Quantity {
			return true
		}
	}
	return false
}

// Categories returns the distinct line categories
func (c *EvaluationContext) Categories() []string {
	seen := make(map[string]struct{}, len(c.Items))
	out := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Category == "" {
			continue
		}
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	return out
}
