// Package receipt renders checkout receipts as fixed-width text and as PDF.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/fitstore/internal/domain"
)

const (
	Title      = "Ticket de compra"
	PickupNote = "Presenta este comprobante en la agencia para retiro."

	nameWidth = 30
)

type Row struct {
	Name      string
	Quantity  int
	UnitPrice int
	Subtotal  int
}

// Document is the render-ready form of an issued receipt. It is built from the
// lines captured at submit time, never from the live cart.
type Document struct {
	Title         string
	TransactionID string
	Date          string
	User          string
	Agency        string
	Rows          []Row
	Total         int
	Balance       int
	Note          string
}

type Renderer struct {
	loc *time.Location
}

// NewRenderer formats dates in loc; nil means UTC.
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

func (r *Renderer) Build(issued domain.IssuedReceipt) Document {
	doc := Document{
		Title:         Title,
		TransactionID: issued.ID(),
		Date:          r.formatDate(issued.Receipt.Datetime),
		Agency:        issued.Receipt.Agency,
		Total:         issued.Receipt.Total,
		Balance:       issued.Receipt.Balance,
		Note:          PickupNote,
	}
	if u := issued.Receipt.User; u != nil {
		doc.User = fmt.Sprintf("%s (%s)", u.Name, u.Email)
	}
	for _, l := range issued.Lines {
		doc.Rows = append(doc.Rows, Row{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return doc
}

func (r *Renderer) formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(r.loc).Format("02/01/2006, 15:04")
}

// Filename follows Ticket-<yyyymmdd-hhmmss>-<userId|anon>-<transactionId|tx>.pdf
// with the stamp in UTC.
func Filename(issued domain.IssuedReceipt) string {
	ts := issued.Receipt.Datetime
	if ts.IsZero() {
		ts = time.Now()
	}
	user := "anon"
	if issued.Receipt.User != nil {
		user = fmt.Sprint(issued.Receipt.User.ID)
	}
	tx := "tx"
	if issued.Receipt.TransactionID != "" {
		tx = sanitize(issued.Receipt.TransactionID)
	}
	return fmt.Sprintf("Ticket-%s-%s-%s.pdf", ts.UTC().Format("20060102-150405"), user, tx)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
