package catalog

// Product is one catalog entry. DiscountRules maps a minimum purchase
// quantity to the discounted unit price that applies from that quantity
// up. A threshold of zero is never stored.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" validate:"required"`
	UnitPrice     float64         `json:"unit_price" validate:"gte=0"`
	Stock         int             `json:"stock" validate:"gte=0"`
	DiscountRules map[int]float64 `json:"discount_rules" validate:"omitempty,dive,keys,gt=0,endkeys,gte=0"`
}

// Clone returns a deep copy so callers never share the repository's rule map.
func (p Product) Clone() Product {
	out := p
	if p.DiscountRules != nil {
		out.DiscountRules = make(map[int]float64, len(p.DiscountRules))
		for qty, price := range p.DiscountRules {
			out.DiscountRules[qty] = price
		}
	}
	return out
}

// UnitPriceFor returns the effective unit price for a purchase of qty
// units: the lowest discounted price among all rule thresholds at or
// below qty, or the base unit price when no rule qualifies. Picking the
// lowest price is deterministic and resolves duplicate thresholds.
func (p Product) UnitPriceFor(qty int) float64 {
	price := p.UnitPrice
	for threshold, discounted := range p.DiscountRules {
		if qty >= threshold && discounted < price {
			price = discounted
		}
	}
	return price
}
