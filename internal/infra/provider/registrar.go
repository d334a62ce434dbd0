package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/metrics"
)

// Registrar registers forwarding addresses and webhook subscriptions with the
// provider so future events reach the webhook processor. Pure pass-through:
// failures surface as *RegistrationError and are not retried here.
type Registrar struct {
	client *Client
}

func NewRegistrar(client *Client) *Registrar {
	return &Registrar{client: client}
}

// ForwardingOptions are optional parameters for forwarding creation.
type ForwardingOptions struct {
	ProcessingFeeSatoshis int64
	MiningFeesSatoshis    int64
}

type forwardingRequest struct {
	Destination    string          `json:"destination"`
	CallbackURL    string          `json:"callback_url,omitempty"`
	ProcessingFees *processingFees `json:"processing_fees,omitempty"`
	MiningFees     int64           `json:"mining_fees_satoshis,omitempty"`
}

type processingFees struct {
	Satoshis int64 `json:"satoshis"`
}

type forwardingResponse struct {
	ID           string `json:"id"`
	Destination  string `json:"destination"`
	InputAddress string `json:"input_address"`
	CallbackURL  string `json:"callback_url"`
}

// RegisterForwarding creates a forwarding address whose incoming funds the
// provider relays to destination. Events for the returned input address are
// pushed to callbackURL.
func (r *Registrar) RegisterForwarding(
	ctx context.Context,
	destination, callbackURL string,
	opts *ForwardingOptions,
) (*domain.ForwardingSubscription, error) {
	req := forwardingRequest{
		Destination: destination,
		CallbackURL: callbackURL,
	}
	if opts != nil {
		if opts.ProcessingFeeSatoshis > 0 {
			req.ProcessingFees = &processingFees{Satoshis: opts.ProcessingFeeSatoshis}
		}
		req.MiningFees = opts.MiningFeesSatoshis
	}

	var resp forwardingResponse
	if err := r.client.do(ctx, http.MethodPost, "payments", req, &resp); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("forwarding", "error").Inc()
		return nil, fmt.Errorf("failed to create forwarding address: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues("forwarding", "created").Inc()

	return &domain.ForwardingSubscription{
		ID:           resp.ID,
		Destination:  resp.Destination,
		InputAddress: resp.InputAddress,
		CallbackURL:  resp.CallbackURL,
		Coin:         string(r.client.Coin()),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ListForwarding returns all forwarding registrations held by the provider.
func (r *Registrar) ListForwarding(ctx context.Context) ([]*domain.ForwardingSubscription, error) {
	var resp []forwardingResponse
	if err := r.client.do(ctx, http.MethodGet, "payments", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list forwarding addresses: %w", err)
	}

	subs := make([]*domain.ForwardingSubscription, 0, len(resp))
	for _, f := range resp {
		subs = append(subs, &domain.ForwardingSubscription{
			ID:           f.ID,
			Destination:  f.Destination,
			InputAddress: f.InputAddress,
			CallbackURL:  f.CallbackURL,
			Coin:         string(r.client.Coin()),
		})
	}
	return subs, nil
}

// DeleteForwarding removes a forwarding registration.
func (r *Registrar) DeleteForwarding(ctx context.Context, forwardID string) error {
	if err := r.client.do(ctx, http.MethodDelete, "payments/"+forwardID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete forwarding address %s: %w", forwardID, err)
	}
	return nil
}

type webhookRequest struct {
	Event         string `json:"event"`
	URL           string `json:"url"`
	Address       string `json:"address,omitempty"`
	Hash          string `json:"hash,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty"`
}

// WebhookSubscription describes a webhook registration held by the provider.
type WebhookSubscription struct {
	ID            string `json:"id"`
	Event         string `json:"event"`
	URL           string `json:"url"`
	Address       string `json:"address,omitempty"`
	Hash          string `json:"hash,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty"`
}

// RegisterAddressWebhook subscribes callbackURL to events of the given kind
// for one address. Returns the provider subscription id.
func (r *Registrar) RegisterAddressWebhook(
	ctx context.Context,
	address, callbackURL string,
	kind domain.EventKind,
) (string, error) {
	req := webhookRequest{
		Event:   string(kind),
		URL:     callbackURL,
		Address: address,
	}
	var resp WebhookSubscription
	if err := r.client.do(ctx, http.MethodPost, "hooks", req, &resp); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("address_webhook", "error").Inc()
		return "", fmt.Errorf("failed to create address webhook: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues("address_webhook", "created").Inc()
	return resp.ID, nil
}

// RegisterTransactionWebhook subscribes callbackURL to tx-confirmation events
// for one transaction hash, notifying up to confirmationThreshold times.
func (r *Registrar) RegisterTransactionWebhook(
	ctx context.Context,
	txHash, callbackURL string,
	confirmationThreshold uint64,
) (string, error) {
	req := webhookRequest{
		Event:         string(domain.EventKindTxConfirmation),
		URL:           callbackURL,
		Hash:          txHash,
		Confirmations: confirmationThreshold,
	}
	var resp WebhookSubscription
	if err := r.client.do(ctx, http.MethodPost, "hooks", req, &resp); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("transaction_webhook", "error").Inc()
		return "", fmt.Errorf("failed to create transaction webhook: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues("transaction_webhook", "created").Inc()
	return resp.ID, nil
}

// GetWebhook retrieves a single webhook registration.
func (r *Registrar) GetWebhook(ctx context.Context, hookID string) (*WebhookSubscription, error) {
	var resp WebhookSubscription
	if err := r.client.do(ctx, http.MethodGet, "hooks/"+hookID, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get webhook %s: %w", hookID, err)
	}
	return &resp, nil
}

// ListWebhooks returns all webhook registrations held by the provider.
func (r *Registrar) ListWebhooks(ctx context.Context) ([]WebhookSubscription, error) {
	var resp []WebhookSubscription
	if err := r.client.do(ctx, http.MethodGet, "hooks", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return resp, nil
}

// DeleteWebhook removes a webhook registration.
func (r *Registrar) DeleteWebhook(ctx context.Context, hookID string) error {
	if err := r.client.do(ctx, http.MethodDelete, "hooks/"+hookID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete webhook %s: %w", hookID, err)
	}
	return nil
}
