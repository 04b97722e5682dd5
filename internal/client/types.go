package client

import (
	"bytes"
	"encoding/json"
)

type Paginated[T any] struct {
	Data []T `json:"data"`
}

type Premio struct {
	ID            int64   `json:"id"`
	Nombre        string  `json:"nombre"`
	Descripcion   *string `json:"descripcion"`
	CostoFitcoins int     `json:"costo_fitcoins"`
	Stock         int     `json:"stock"`
	IsActive      *bool   `json:"is_active,omitempty"`
	ImageURL      *string `json:"image_url"`
	Categoria     *string `json:"categoria,omitempty"`
	Talla         *string `json:"talla,omitempty"`
	Marca         *string `json:"marca,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleID    int64  `json:"role_id"`
	Status    string `json:"status"`
	LastLogin string `json:"last_login,omitempty"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type FitcoinAccount struct {
	ID            int64 `json:"id"`
	ColaboratorID int64 `json:"colaborator_id"`
	Balance       int   `json:"balance"`
	StreakCount   int   `json:"streak_count,omitempty"`
}

type Collaborator struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Nombre         string          `json:"nombre"`
	Area           string          `json:"area,omitempty"`
	CoinFits       int             `json:"coin_fits"`
	FitcoinAccount *FitcoinAccount `json:"fitcoin_account"`
}

// Balance prefers the linked Fitcoin account and falls back to the profile counter.
func (c Collaborator) Balance() int {
	if c.FitcoinAccount != nil {
		return c.FitcoinAccount.Balance
	}
	return c.CoinFits
}

type CheckoutItem struct {
	PremioID int64 `json:"premio_id"`
	Cantidad int   `json:"cantidad"`
}

type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items"`
	AgenciaRetiro string         `json:"agencia_retiro,omitempty"`
	Observaciones string         `json:"observaciones,omitempty"`
}

type Canje struct {
	ID         int64  `json:"id"`
	PremioID   int64  `json:"premio_id"`
	Cantidad   int    `json:"cantidad"`
	CostoTotal int    `json:"costo_total"`
	Estado     string `json:"estado,omitempty"`
}

type ReceiptUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Receipt struct {
	TransactionID FlexString   `json:"transaction_id"`
	Datetime      string       `json:"datetime"`
	User          *ReceiptUser `json:"user,omitempty"`
	Agency        *string      `json:"agency,omitempty"`
}

type CheckoutResponse struct {
	Message string   `json:"message"`
	Total   int      `json:"total"`
	Balance int      `json:"balance"`
	Canjes  []Canje  `json:"canjes"`
	Receipt *Receipt `json:"receipt"`
}

// FlexString accepts both JSON strings and numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
