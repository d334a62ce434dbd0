package memory

import (
	"context"
	"sync"

	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/infra/storage"
)

// MemoryStorage backs the repositories for db-less runs and tests.
type MemoryStorage struct {
	records       map[string]*domain.TransactionStatusRecord
	subscriptions map[string]*domain.ForwardingSubscription
	order         []string // tx hashes in first-seen order
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records:       make(map[string]*domain.TransactionStatusRecord),
		subscriptions: make(map[string]*domain.ForwardingSubscription),
	}
}

func copyRecord(rec *domain.TransactionStatusRecord) *domain.TransactionStatusRecord {
	cp := *rec
	cp.EventLog = make([]domain.EventLogEntry, len(rec.EventLog))
	copy(cp.EventLog, rec.EventLog)
	return &cp
}

// -----------------------------------------------------------------------------
// Transaction Status Repository
// -----------------------------------------------------------------------------

type StatusRepo struct {
	store *MemoryStorage
}

func NewStatusRepo(store *MemoryStorage) *StatusRepo {
	return &StatusRepo{store: store}
}

func (r *StatusRepo) Get(ctx context.Context, txHash string) (*domain.TransactionStatusRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if rec, ok := r.store.records[txHash]; ok {
		return copyRecord(rec), nil
	}
	return nil, nil
}

// Upsert holds the store lock across the whole read-modify-write, which gives
// the per-hash atomicity contract trivially (at the cost of global ordering,
// acceptable for a single-process deployment).
func (r *StatusRepo) Upsert(
	ctx context.Context,
	txHash string,
	mutate storage.StatusMutator,
) (*domain.TransactionStatusRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.records[txHash]
	if ok {
		rec = copyRecord(rec)
	} else {
		rec = storage.NewStatusRecord(txHash)
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	if !ok {
		r.store.order = append(r.store.order, txHash)
	}
	r.store.records[txHash] = rec
	return copyRecord(rec), nil
}

func (r *StatusRepo) List(ctx context.Context) ([]*domain.TransactionStatusRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.TransactionStatusRecord, 0, len(r.store.order))
	for _, hash := range r.store.order {
		out = append(out, copyRecord(r.store.records[hash]))
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Forwarding Subscription Repository
// -----------------------------------------------------------------------------

type SubscriptionRepo struct {
	store *MemoryStorage
}

func NewSubscriptionRepo(store *MemoryStorage) *SubscriptionRepo {
	return &SubscriptionRepo{store: store}
}

func (r *SubscriptionRepo) Save(ctx context.Context, sub *domain.ForwardingSubscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *sub
	r.store.subscriptions[sub.ID] = &cp
	return nil
}

func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*domain.ForwardingSubscription, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if sub, ok := r.store.subscriptions[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, nil
}

func (r *SubscriptionRepo) List(ctx context.Context) ([]*domain.ForwardingSubscription, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	subs := make([]*domain.ForwardingSubscription, 0, len(r.store.subscriptions))
	for _, sub := range r.store.subscriptions {
		cp := *sub
		subs = append(subs, &cp)
	}
	return subs, nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.subscriptions, id)
	return nil
}
