// Package twin is an in-memory stand-in for the remote Fitcoin service. It speaks
// the same endpoints and status codes and is used for local runs and end-to-end tests.
package twin

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fjod/fitstore/internal/client"
	"github.com/google/uuid"
)

// Account is a twin user with a linked collaborator profile.
type Account struct {
	User         client.User
	Password     string
	Collaborator client.Collaborator
}

// ValidationError mirrors a 422 response body.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type MemoryStore struct {
	mu        sync.Mutex
	premios   []client.Premio
	accounts  map[string]*Account
	byID      map[int64]*Account
	revoked   map[string]struct{}
	checkouts map[string]client.CheckoutResponse
	nextUser  int64
	nextCanje int64
	clock     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]*Account),
		byID:      make(map[int64]*Account),
		revoked:   make(map[string]struct{}),
		checkouts: make(map[string]client.CheckoutResponse),
		clock:     time.Now,
	}
}

// SetClock replaces the time source used for receipts.
func (s *MemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *MemoryStore) AddPremio(p client.Premio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premios = append(s.premios, p)
}

// AddAccount registers a user and returns its id.
func (s *MemoryStore) AddAccount(email, password, name string, balance int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUser++
	id := s.nextUser
	acc := &Account{
		User:     client.User{ID: id, Name: name, Email: email, RoleID: 2, Status: "active"},
		Password: password,
		Collaborator: client.Collaborator{
			ID:       id + 100,
			UserID:   id,
			Nombre:   name,
			CoinFits: balance,
			FitcoinAccount: &client.FitcoinAccount{
				ID:            id + 1000,
				ColaboratorID: id + 100,
				Balance:       balance,
			},
		},
	}
	s.accounts[email] = acc
	s.byID[id] = acc
	return id
}

// Premios returns up to limit prizes ordered by id.
func (s *MemoryStore) Premios(limit int) []client.Premio {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]client.Premio(nil), s.premios...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (s *MemoryStore) Authenticate(email, password string) (client.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[email]
	if !ok || acc.Password != password {
		return client.User{}, false
	}
	return acc.User, true
}

func (s *MemoryStore) Account(userID int64) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[userID]
	if !ok {
		return Account{}, false
	}
	out := *acc
	fa := *acc.Collaborator.FitcoinAccount
	out.Collaborator.FitcoinAccount = &fa
	return out, true
}

func (s *MemoryStore) Balance(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		return acc.Collaborator.FitcoinAccount.Balance
	}
	return 0
}

func (s *MemoryStore) SetBalance(userID int64, balance int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byID[userID]; ok {
		acc.Collaborator.FitcoinAccount.Balance = balance
		acc.Collaborator.CoinFits = balance
	}
}

func (s *MemoryStore) Revoke(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = struct{}{}
}

func (s *MemoryStore) IsRevoked(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok
}

// Redeem validates and applies a checkout. A repeated idempotency key from the same
// user returns the original response without charging again.
func (s *MemoryStore) Redeem(userID int64, key string, req client.CheckoutRequest) (client.CheckoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idemKey := fmt.Sprintf("%d:%s", userID, key)
	if key != "" {
		if res, ok := s.checkouts[idemKey]; ok {
			return res, nil
		}
	}

	acc, ok := s.byID[userID]
	if !ok {
		return client.CheckoutResponse{}, &ValidationError{Message: "Colaborador no encontrado"}
	}
	if len(req.Items) == 0 {
		return client.CheckoutResponse{}, &ValidationError{
			Message: "Debe incluir al menos un premio",
			Fields:  map[string][]string{"items": {"El campo items es obligatorio."}},
		}
	}

	type line struct {
		premio *client.Premio
		qty    int
	}
	lines := make([]line, 0, len(req.Items))
	total := 0
	for i, it := range req.Items {
		p := s.findPremio(it.PremioID)
		if p == nil || (p.IsActive != nil && !*p.IsActive) {
			return client.CheckoutResponse{}, &ValidationError{
				Message: "Premio no disponible",
				Fields:  map[string][]string{fmt.Sprintf("items.%d.premio_id", i): {"El premio seleccionado no es válido."}},
			}
		}
		if it.Cantidad < 1 {
			return client.CheckoutResponse{}, &ValidationError{
				Message: "Cantidad inválida",
				Fields:  map[string][]string{fmt.Sprintf("items.%d.cantidad", i): {"La cantidad debe ser al menos 1."}},
			}
		}
		if it.Cantidad > p.Stock {
			return client.CheckoutResponse{}, &ValidationError{
				Message: fmt.Sprintf("Stock insuficiente para %s", p.Nombre),
				Fields:  map[string][]string{fmt.Sprintf("items.%d.cantidad", i): {"No hay stock suficiente."}},
			}
		}
		lines = append(lines, line{premio: p, qty: it.Cantidad})
		total += p.CostoFitcoins * it.Cantidad
	}

	account := acc.Collaborator.FitcoinAccount
	if account.Balance < total {
		return client.CheckoutResponse{}, &ValidationError{Message: "Saldo insuficiente"}
	}

	account.Balance -= total
	acc.Collaborator.CoinFits = account.Balance

	canjes := make([]client.Canje, 0, len(lines))
	for _, l := range lines {
		l.premio.Stock -= l.qty
		s.nextCanje++
		canjes = append(canjes, client.Canje{
			ID:         s.nextCanje,
			PremioID:   l.premio.ID,
			Cantidad:   l.qty,
			CostoTotal: l.premio.CostoFitcoins * l.qty,
			Estado:     "pendiente",
		})
	}

	var agency *string
	if req.AgenciaRetiro != "" {
		a := req.AgenciaRetiro
		agency = &a
	}

	res := client.CheckoutResponse{
		Message: "Canje realizado con éxito",
		Total:   total,
		Balance: account.Balance,
		Canjes:  canjes,
		Receipt: &client.Receipt{
			TransactionID: client.FlexString(uuid.NewString()),
			Datetime:      s.clock().UTC().Format(time.RFC3339),
			User:          &client.ReceiptUser{ID: acc.User.ID, Name: acc.User.Name, Email: acc.User.Email},
			Agency:        agency,
		},
	}
	if key != "" {
		s.checkouts[idemKey] = res
	}
	return res, nil
}

// findPremio must be called with s.mu held.
func (s *MemoryStore) findPremio(id int64) *client.Premio {
	for i := range s.premios {
		if s.premios[i].ID == id {
			return &s.premios[i]
		}
	}
	return nil
}
