package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
)

// SubscriptionRepo implements storage.ForwardingSubscriptionRepository using PostgreSQL.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo creates a new PostgreSQL forwarding subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

type subscriptionRow struct {
	ID           string    `db:"id"`
	Destination  string    `db:"destination"`
	InputAddress string    `db:"input_address"`
	CallbackURL  *string   `db:"callback_url"` // Nullable
	Coin         string    `db:"coin"`
	CreatedAt    time.Time `db:"created_at"`
}

func (s *subscriptionRow) toDomain() *domain.ForwardingSubscription {
	sub := &domain.ForwardingSubscription{
		ID:           s.ID,
		Destination:  s.Destination,
		InputAddress: s.InputAddress,
		Coin:         s.Coin,
		CreatedAt:    s.CreatedAt,
	}
	if s.CallbackURL != nil {
		sub.CallbackURL = *s.CallbackURL
	}
	return sub
}

// Save saves a subscription.
func (r *SubscriptionRepo) Save(ctx context.Context, sub *domain.ForwardingSubscription) error {
	query := `
		INSERT INTO forwarding_subscriptions (id, destination, input_address, callback_url, coin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			destination = EXCLUDED.destination,
			input_address = EXCLUDED.input_address,
			callback_url = EXCLUDED.callback_url
	`
	var callback *string
	if sub.CallbackURL != "" {
		callback = &sub.CallbackURL
	}
	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.Destination, sub.InputAddress, callback, sub.Coin, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save forwarding subscription: %w", err)
	}
	return nil
}

// GetByID retrieves a subscription by provider id.
func (r *SubscriptionRepo) GetByID(ctx context.Context, id string) (*domain.ForwardingSubscription, error) {
	query := `
		SELECT id, destination, input_address, callback_url, coin, created_at
		FROM forwarding_subscriptions
		WHERE id = $1
	`
	var row subscriptionRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forwarding subscription: %w", err)
	}
	return row.toDomain(), nil
}

// List retrieves all subscriptions.
func (r *SubscriptionRepo) List(ctx context.Context) ([]*domain.ForwardingSubscription, error) {
	query := `
		SELECT id, destination, input_address, callback_url, coin, created_at
		FROM forwarding_subscriptions
		ORDER BY created_at
	`
	var rows []subscriptionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list forwarding subscriptions: %w", err)
	}

	subs := make([]*domain.ForwardingSubscription, 0, len(rows))
	for i := range rows {
		subs = append(subs, rows[i].toDomain())
	}
	return subs, nil
}

// Delete removes a subscription record.
func (r *SubscriptionRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM forwarding_subscriptions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
