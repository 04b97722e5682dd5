package domain

import "time"

// CartSnapshot is an immutable copy of the cart and derived amounts, taken in a
// single read so that totals and lines always agree.
type CartSnapshot struct {
	Lines            []CartLine    `json:"lines"`
	Total            int           `json:"total"`
	Balance          BalanceSource `json:"-"`
	Remaining        int           `json:"remaining"`
	CartPanelOpen    bool          `json:"cart_panel_open"`
	ReceiptPanelOpen bool          `json:"receipt_panel_open"`
	CapturedAt       time.Time     `json:"captured_at"`
}

func (s CartSnapshot) CanCheckout() bool {
	return len(s.Lines) > 0 && s.Remaining >= 0
}

func (s CartSnapshot) ReceiptLines() []ReceiptLine {
	out := make([]ReceiptLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, ReceiptLine{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.Fitcoins,
		})
	}
	return out
}
