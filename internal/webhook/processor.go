package webhook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/paygate/internal/core/domain"
	redisclient "github.com/vietddude/paygate/internal/infra/redis"
	"github.com/vietddude/paygate/internal/infra/storage"
	"github.com/vietddude/paygate/internal/metrics"
)

// DefaultConfirmationThreshold is the confirmation count at which a
// transaction is considered safely settled.
const DefaultConfirmationThreshold = 6

// Processor applies blockchain events to the confirmation state store. It is
// the state machine core: deliveries may arrive duplicated, delayed or out of
// order, and the merge rules below make every interleaving converge to the
// same record.
//
// Merge rules per hash:
//   - confirmations only ever grow (max of stored and reported)
//   - status only moves forward through unconfirmed -> confirming -> confirmed
//   - a double-spend event forces double_spend_suspected, which is terminal
//   - the event log is appended unconditionally as the audit trail
type Processor struct {
	store     storage.TransactionStatusRepository
	cache     *redisclient.Client // optional
	threshold uint64
	log       *slog.Logger
}

// NewProcessor creates a Processor. cache may be nil. A zero threshold falls
// back to DefaultConfirmationThreshold.
func NewProcessor(
	store storage.TransactionStatusRepository,
	cache *redisclient.Client,
	threshold uint64,
) *Processor {
	if threshold == 0 {
		threshold = DefaultConfirmationThreshold
	}
	return &Processor{
		store:     store,
		cache:     cache,
		threshold: threshold,
		log:       slog.Default().With("component", "processor"),
	}
}

// Process applies a single event and returns the updated record. A redundant
// or out-of-order event is absorbed, never an error; errors indicate the
// store was unavailable and the delivery is safe to retry.
func (p *Processor) Process(ctx context.Context, event *domain.BlockchainEvent) (*domain.TransactionStatusRecord, error) {
	if event.TxHash == "" {
		return nil, ErrMissingTxHash
	}

	var prev domain.TxStatus
	rec, err := p.store.Upsert(ctx, event.TxHash, func(rec *domain.TransactionStatusRecord) error {
		prev = rec.Status
		p.apply(rec, event)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("confirmation store: %w", err)
	}

	if prev != rec.Status {
		metrics.StatusTransitionsTotal.WithLabelValues(string(prev), string(rec.Status)).Inc()
		p.log.Info("transaction status changed",
			"tx_hash", rec.TxHash,
			"from", prev,
			"to", rec.Status,
			"confirmations", rec.Confirmations,
		)
	}

	if p.cache != nil {
		// A stale cache entry self-heals on TTL; absorption must not fail here.
		if err := p.cache.SetStatus(ctx, rec); err != nil {
			p.log.Warn("failed to refresh status cache", "tx_hash", rec.TxHash, "error", err)
		}
	}

	return rec, nil
}

// Threshold returns the configured confirmation threshold.
func (p *Processor) Threshold() uint64 {
	return p.threshold
}

func (p *Processor) apply(rec *domain.TransactionStatusRecord, ev *domain.BlockchainEvent) {
	if rec.FirstSeenAt.IsZero() {
		rec.FirstSeenAt = ev.ReceivedAt
	}
	rec.LastUpdatedAt = ev.ReceivedAt

	rec.EventLog = append(rec.EventLog, domain.EventLogEntry{
		Kind:          ev.Kind,
		Confirmations: ev.Confirmations,
		ReceivedAt:    ev.ReceivedAt,
	})

	// A lower reported count (reorg or stale delivery) is kept in the log but
	// never lowers the tracked maximum.
	if ev.Confirmations > rec.Confirmations {
		rec.Confirmations = ev.Confirmations
	}
	if ev.Address != "" {
		rec.Address = ev.Address
	}
	if ev.ValueSatoshis > 0 {
		rec.ValueSatoshis = ev.ValueSatoshis
	}

	if rec.Status == domain.TxStatusDoubleSpendSuspect {
		return // terminal, manual override only
	}
	if ev.Kind == domain.EventKindDoubleSpendTx {
		rec.Status = domain.TxStatusDoubleSpendSuspect
		return
	}

	rec.Status = domain.MaxStatus(rec.Status, p.candidateStatus(ev.Kind, rec.Confirmations))
}

// candidateStatus derives the status an event argues for, given the merged
// confirmation count. Confirmation-kind events imply the transaction made it
// into a block even when the count is still below threshold.
func (p *Processor) candidateStatus(kind domain.EventKind, confirmations uint64) domain.TxStatus {
	switch kind {
	case domain.EventKindConfirmedTx, domain.EventKindTxConfirmation:
		if confirmations >= p.threshold {
			return domain.TxStatusConfirmed
		}
		return domain.TxStatusConfirming
	default: // unconfirmed-tx, tx-confidence
		switch {
		case confirmations >= p.threshold:
			return domain.TxStatusConfirmed
		case confirmations > 0:
			return domain.TxStatusConfirming
		default:
			return domain.TxStatusUnconfirmed
		}
	}
}
