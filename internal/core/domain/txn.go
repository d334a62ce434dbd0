package domain

import "time"

// SatoshiPerBTC is the conversion factor between the base unit and BTC.
const SatoshiPerBTC = 100_000_000

// TransactionStatusRecord is the durable per-hash record read by merchants.
type TransactionStatusRecord struct {
	TxHash        string          `json:"tx_hash"`
	Address       string          `json:"address"`
	ValueSatoshis int64           `json:"value_satoshis"`
	Status        TxStatus        `json:"status"`
	Confirmations uint64          `json:"confirmations"`
	FirstSeenAt   time.Time       `json:"first_seen_at"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
	EventLog      []EventLogEntry `json:"event_log"`
}

// EventLogEntry is one audit-trail entry; the log is append-only and keeps
// duplicate deliveries visible.
type EventLogEntry struct {
	Kind          EventKind `json:"event"`
	Confirmations uint64    `json:"confirmations"`
	ReceivedAt    time.Time `json:"received_at"`
}

type TxStatus string

const (
	TxStatusUnconfirmed        TxStatus = "unconfirmed"
	TxStatusConfirming         TxStatus = "confirming"
	TxStatusConfirmed          TxStatus = "confirmed"
	TxStatusDoubleSpendSuspect TxStatus = "double_spend_suspected"
)

// statusRank orders the non-terminal lifecycle so that out-of-order deliveries
// can never move a record backwards.
var statusRank = map[TxStatus]int{
	TxStatusUnconfirmed: 0,
	TxStatusConfirming:  1,
	TxStatusConfirmed:   2,
}

// MaxStatus returns the further-along of two non-double-spend statuses.
func MaxStatus(a, b TxStatus) TxStatus {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// ValueBTC converts the recorded satoshi value to BTC for read projections.
func (r *TransactionStatusRecord) ValueBTC() float64 {
	return float64(r.ValueSatoshis) / float64(SatoshiPerBTC)
}
