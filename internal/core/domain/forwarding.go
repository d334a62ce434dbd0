package domain

import "time"

// ForwardingSubscription records a forwarding address registered with the
// provider. Funds sent to InputAddress are relayed to Destination.
type ForwardingSubscription struct {
	ID           string    `json:"id"`
	Destination  string    `json:"destination"`
	InputAddress string    `json:"input_address"`
	CallbackURL  string    `json:"callback_url,omitempty"`
	Coin         string    `json:"coin"`
	CreatedAt    time.Time `json:"created_at"`
}
