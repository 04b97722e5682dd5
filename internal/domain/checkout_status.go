package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "IDLE"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSuccess    CheckoutStatus = "SUCCESS"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:       {CheckoutStatusSubmitting},
	CheckoutStatusSubmitting: {CheckoutStatusSuccess, CheckoutStatusFailed},
	CheckoutStatusSuccess:    {CheckoutStatusSubmitting, CheckoutStatusIdle},
	CheckoutStatusFailed:     {CheckoutStatusIdle},
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSuccess || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckoutState is what the UI needs to render the checkout trigger.
type CheckoutState struct {
	Status       CheckoutStatus `json:"status"`
	RequestID    string         `json:"request_id,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	PendingLogin bool           `json:"pending_login"`
}
