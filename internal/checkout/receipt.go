package checkout

import (
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// toIssuedReceipt pairs the server response with the lines captured before submit.
func toIssuedReceipt(requestID string, lines []domain.ReceiptLine, res *client.CheckoutResponse, agency string, now time.Time) domain.IssuedReceipt {
	r := domain.Receipt{
		Message: res.Message,
		Total:   res.Total,
		Balance: res.Balance,
		Agency:  agency,
	}

	if res.Receipt != nil {
		r.TransactionID = string(res.Receipt.TransactionID)
		r.Datetime = parseDatetime(res.Receipt.Datetime, now)
		if res.Receipt.Agency != nil && *res.Receipt.Agency != "" {
			r.Agency = *res.Receipt.Agency
		}
		if u := res.Receipt.User; u != nil {
			r.User = &domain.ReceiptUser{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	} else {
		r.Datetime = now
	}

	for _, c := range res.Canjes {
		r.Canjes = append(r.Canjes, domain.Canje{
			ID:       c.ID,
			PremioID: c.PremioID,
			Cantidad: c.Cantidad,
			Costo:    c.CostoTotal,
			Estado:   c.Estado,
		})
	}

	return domain.IssuedReceipt{
		RequestID: requestID,
		Receipt:   r,
		Lines:     append([]domain.ReceiptLine(nil), lines...),
	}
}

func parseDatetime(s string, fallback time.Time) time.Time {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
