package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/infra/storage"
)

// StatusRepo implements storage.TransactionStatusRepository using PostgreSQL.
type StatusRepo struct {
	db *DB
}

// NewStatusRepo creates a new PostgreSQL transaction status repository.
func NewStatusRepo(db *DB) *StatusRepo {
	return &StatusRepo{db: db}
}

type statusRow struct {
	TxHash        string    `db:"tx_hash"`
	Address       string    `db:"address"`
	ValueSatoshis int64     `db:"value_satoshis"`
	Status        string    `db:"status"`
	Confirmations int64     `db:"confirmations"`
	FirstSeenAt   time.Time `db:"first_seen_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	EventLog      []byte    `db:"event_log"`
}

func (r *statusRow) toDomain() (*domain.TransactionStatusRecord, error) {
	rec := &domain.TransactionStatusRecord{
		TxHash:        r.TxHash,
		Address:       r.Address,
		ValueSatoshis: r.ValueSatoshis,
		Status:        domain.TxStatus(r.Status),
		Confirmations: uint64(r.Confirmations),
		FirstSeenAt:   r.FirstSeenAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
	if len(r.EventLog) > 0 {
		if err := json.Unmarshal(r.EventLog, &rec.EventLog); err != nil {
			return nil, fmt.Errorf("failed to decode event log: %w", err)
		}
	}
	return rec, nil
}

const statusColumns = `tx_hash, address, value_satoshis, status, confirmations, first_seen_at, last_updated_at, event_log`

// Get retrieves a record by transaction hash.
func (r *StatusRepo) Get(ctx context.Context, txHash string) (*domain.TransactionStatusRecord, error) {
	query := `SELECT ` + statusColumns + ` FROM transaction_status WHERE tx_hash = $1`

	var row statusRow
	err := r.db.GetContext(ctx, &row, query, txHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}

	return row.toDomain()
}

// Upsert applies the mutator under an advisory lock on the hash so concurrent
// writers of the same hash serialize even before the row exists. A row lock
// alone is not enough: SELECT ... FOR UPDATE on an absent row locks nothing,
// so two first deliveries could both seed fresh records and the last commit
// would overwrite the other's event log. Writers of different hashes only
// contend on advisory-hash collisions.
func (r *StatusRepo) Upsert(
	ctx context.Context,
	txHash string,
	mutate storage.StatusMutator,
) (*domain.TransactionStatusRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Held until commit/rollback.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, txHash); err != nil {
		return nil, fmt.Errorf("failed to lock transaction hash: %w", err)
	}

	query := `SELECT ` + statusColumns + ` FROM transaction_status WHERE tx_hash = $1 FOR UPDATE`

	var rec *domain.TransactionStatusRecord
	var row statusRow
	err = tx.GetContext(ctx, &row, query, txHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		rec = storage.NewStatusRecord(txHash)
	case err != nil:
		return nil, fmt.Errorf("failed to lock transaction status: %w", err)
	default:
		rec, err = row.toDomain()
		if err != nil {
			return nil, err
		}
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	eventLog, err := json.Marshal(rec.EventLog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event log: %w", err)
	}

	upsert := `
		INSERT INTO transaction_status (
			tx_hash, address, value_satoshis, status, confirmations, first_seen_at, last_updated_at, event_log
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tx_hash) DO UPDATE SET
			address = EXCLUDED.address,
			value_satoshis = EXCLUDED.value_satoshis,
			status = EXCLUDED.status,
			confirmations = EXCLUDED.confirmations,
			last_updated_at = EXCLUDED.last_updated_at,
			event_log = EXCLUDED.event_log
	`
	_, err = tx.ExecContext(ctx, upsert,
		rec.TxHash, rec.Address, rec.ValueSatoshis, string(rec.Status),
		int64(rec.Confirmations), rec.FirstSeenAt, rec.LastUpdatedAt, eventLog,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save transaction status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction status: %w", err)
	}
	return rec, nil
}

// List retrieves all records in first-seen order.
func (r *StatusRepo) List(ctx context.Context) ([]*domain.TransactionStatusRecord, error) {
	query := `SELECT ` + statusColumns + ` FROM transaction_status ORDER BY first_seen_at`

	var rows []statusRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list transaction status: %w", err)
	}

	records := make([]*domain.TransactionStatusRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
