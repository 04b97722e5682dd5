package domain

type CartLine struct {
	Item     CatalogItem `json:"item"`
	Quantity int         `json:"quantity"`
}

func (l CartLine) Subtotal() int {
	return l.Item.Fitcoins * l.Quantity
}

// CartTotal sums price*quantity over lines.
func CartTotal(lines []CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}

// CopyLines returns a copy that shares nothing with the input slice.
func CopyLines(lines []CartLine) []CartLine {
	if len(lines) == 0 {
		return []CartLine{}
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}
