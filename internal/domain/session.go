package domain

type User struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID int64  `json:"role_id"`
	Status string `json:"status"`
}

// Session is an authenticated session. Balance is the linked Fitcoin account balance;
// BalanceLoaded is false when the collaborator profile could not be read.
type Session struct {
	Token          string `json:"-"`
	User           User   `json:"user"`
	CollaboratorID int64  `json:"collaborator_id,omitempty"`
	Balance        int    `json:"balance"`
	BalanceLoaded  bool   `json:"balance_loaded"`
}
