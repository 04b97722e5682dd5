package domain

import "time"

// ReceiptLine is one redeemed line, captured from the cart at submit time.
type ReceiptLine struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

func (l ReceiptLine) Subtotal() int {
	return l.UnitPrice * l.Quantity
}

type ReceiptUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Canje is a single redemption record returned by the checkout service.
type Canje struct {
	ID       int64  `json:"id"`
	PremioID int64  `json:"premio_id"`
	Cantidad int    `json:"cantidad"`
	Costo    int    `json:"costo"`
	Estado   string `json:"estado,omitempty"`
}

// Receipt is the server-confirmed record of a checkout.
type Receipt struct {
	TransactionID string       `json:"transaction_id"`
	Message       string       `json:"message,omitempty"`
	Datetime      time.Time    `json:"datetime"`
	User          *ReceiptUser `json:"user,omitempty"`
	Agency        string       `json:"agency,omitempty"`
	Total         int          `json:"total"`
	Balance       int          `json:"balance"`
	Canjes        []Canje      `json:"canjes,omitempty"`
}

// IssuedReceipt pairs a receipt with the immutable copy of the lines that were
// submitted for it. RequestID identifies the checkout call that produced it.
type IssuedReceipt struct {
	RequestID string        `json:"request_id"`
	Receipt   Receipt       `json:"receipt"`
	Lines     []ReceiptLine `json:"lines"`
}

// ID prefers the server transaction id and falls back to the request id.
func (r IssuedReceipt) ID() string {
	if r.Receipt.TransactionID != "" {
		return r.Receipt.TransactionID
	}
	return r.RequestID
}

func (r IssuedReceipt) Clone() IssuedReceipt {
	out := r
	out.Lines = append([]ReceiptLine(nil), r.Lines...)
	out.Receipt.Canjes = append([]Canje(nil), r.Receipt.Canjes...)
	if r.Receipt.User != nil {
		u := *r.Receipt.User
		out.Receipt.User = &u
	}
	return out
}
