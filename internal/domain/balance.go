package domain

// BalanceSource is a tagged union: either Guest or Authenticated.
type BalanceSource interface {
	Amount() int
	Kind() string
}

// Guest is the locally tracked balance used while no session is active.
type Guest int

func (g Guest) Amount() int { return int(g) }
func (Guest) Kind() string  { return "guest" }

// Authenticated is the balance reported by the session's linked account.
type Authenticated int

func (a Authenticated) Amount() int { return int(a) }
func (Authenticated) Kind() string  { return "authenticated" }

// ResolveBalanceSource picks the single balance that governs the cart. The two
// sources are never combined.
func ResolveBalanceSource(local int, s *Session) BalanceSource {
	if s != nil {
		return Authenticated(s.Balance)
	}
	return Guest(local)
}
