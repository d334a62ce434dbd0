package domain

import "time"

// BlockchainEvent is the canonical form of a provider notification.
// One is produced per webhook delivery; it is never persisted directly.
type BlockchainEvent struct {
	Kind          EventKind `json:"event"`
	Address       string    `json:"address,omitempty"`
	TxHash        string    `json:"tx_hash"`
	Confirmations uint64    `json:"confirmations"`
	ValueSatoshis int64     `json:"value_satoshis"`
	ReceivedAt    time.Time `json:"received_at"`
}

type EventKind string

const (
	EventKindUnconfirmedTx  EventKind = "unconfirmed-tx"
	EventKindConfirmedTx    EventKind = "confirmed-tx"
	EventKindTxConfirmation EventKind = "tx-confirmation"
	EventKindDoubleSpendTx  EventKind = "double-spend-tx"
	EventKindTxConfidence   EventKind = "tx-confidence"
)

// ParseEventKind maps a provider event-type string to an EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case EventKindUnconfirmedTx, EventKindConfirmedTx, EventKindTxConfirmation,
		EventKindDoubleSpendTx, EventKindTxConfidence:
		return EventKind(s), true
	}
	return "", false
}
