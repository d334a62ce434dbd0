package storage

import (
	"context"

	"github.com/vietddude/paygate/internal/core/domain"
)

// StatusMutator mutates a transaction status record in place inside Upsert.
// Returning an error aborts the write and nothing is persisted.
type StatusMutator func(rec *domain.TransactionStatusRecord) error

// TransactionStatusRepository is the confirmation state store. Upsert is the
// only write path; the read-modify-write for a given tx hash is atomic with
// respect to other writers of the same hash.
type TransactionStatusRepository interface {
	// Get retrieves a record by transaction hash. Returns (nil, nil) when the
	// hash has never been observed.
	Get(ctx context.Context, txHash string) (*domain.TransactionStatusRecord, error)

	// Upsert loads the record for txHash (seeding a fresh one on first sight),
	// applies the mutator and persists the result atomically.
	Upsert(ctx context.Context, txHash string, mutate StatusMutator) (*domain.TransactionStatusRecord, error)

	// List retrieves all records ever observed.
	List(ctx context.Context) ([]*domain.TransactionStatusRecord, error)
}

// ForwardingSubscriptionRepository stores provider forwarding registrations.
type ForwardingSubscriptionRepository interface {
	// Save saves a subscription
	Save(ctx context.Context, sub *domain.ForwardingSubscription) error

	// GetByID retrieves a subscription by provider id
	GetByID(ctx context.Context, id string) (*domain.ForwardingSubscription, error)

	// List retrieves all subscriptions
	List(ctx context.Context) ([]*domain.ForwardingSubscription, error)

	// Delete removes a subscription record
	Delete(ctx context.Context, id string) error
}

// NewStatusRecord seeds a record for a hash seen for the first time.
func NewStatusRecord(txHash string) *domain.TransactionStatusRecord {
	return &domain.TransactionStatusRecord{
		TxHash: txHash,
		Status: domain.TxStatusUnconfirmed,
	}
}
