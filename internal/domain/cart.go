package domain

// The cart itself lives in the client (browser local storage); checkout
// receives its line items as a payload. NormalizeCart applies the same
// invariants the client cart maintains: deduplicate by product id
// (first occurrence wins, counts merged) and reject non-positive counts.
func NormalizeCart(lines []LineItem) ([]LineItem, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Reason: "cart is empty"}
	}

	byProduct := make(map[string]int, len(lines))
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, &ValidationError{Reason: "line item missing productId"}
		}
		if l.Count <= 0 {
			return nil, &ValidationError{Reason: "line item count must be positive", ProductID: l.ProductID}
		}
		if l.PriceCents < 0 {
			return nil, &ValidationError{Reason: "line item price must not be negative", ProductID: l.ProductID}
		}
		if idx, ok := byProduct[l.ProductID]; ok {
			out[idx].Count += l.Count
			continue
		}
		byProduct[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
