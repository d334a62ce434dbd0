package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/infra/storage"
)

// Receipt is the response body for an absorbed webhook delivery.
type Receipt struct {
	Received      bool             `json:"received"`
	TxHash        string           `json:"tx_hash"`
	Event         domain.EventKind `json:"event"`
	ValueSatoshis int64            `json:"value_satoshis"`
}

// simulatedOutputValue is the payment value used for synthetic
// unconfirmed-tx events (0.015 BTC).
const simulatedOutputValue = 1_500_000

// Simulator is the development-only harness. It synthesizes provider payloads
// and feeds them through the exact processing path real deliveries take, so a
// developer can exercise the state machine without on-chain transactions.
type Simulator struct {
	normalizer *Normalizer
	processor  *Processor
	store      storage.TransactionStatusRepository
	now        func() time.Time
}

// SimulationResult echoes the synthetic request alongside the processing
// outcome.
type SimulationResult struct {
	SimulatedRequest *Payload `json:"simulated_request"`
	WebhookResponse  *Receipt `json:"webhook_response"`
}

func NewSimulator(
	normalizer *Normalizer,
	processor *Processor,
	store storage.TransactionStatusRepository,
) *Simulator {
	return &Simulator{
		normalizer: normalizer,
		processor:  processor,
		store:      store,
		now:        time.Now,
	}
}

// Simulate builds a payload for the requested event type and processes it.
// Confirmation and double-spend simulations target the earliest observed
// transaction; they fail when no transaction has been observed yet.
func (s *Simulator) Simulate(
	ctx context.Context,
	eventType string,
	address string,
	confirmations uint64,
) (*SimulationResult, error) {
	if address == "" {
		address = "simulated_address"
	}

	var payload *Payload
	switch domain.EventKind(eventType) {
	case domain.EventKindUnconfirmedTx:
		payload = &Payload{
			Event:         string(domain.EventKindUnconfirmedTx),
			Address:       address,
			Hash:          "simulated_tx_" + s.now().Format("20060102150405"),
			Confirmations: 0,
			Outputs: []Output{
				{Addresses: []string{address}, Value: simulatedOutputValue},
			},
		}
	case domain.EventKindTxConfirmation:
		hash, err := s.earliestHash(ctx)
		if err != nil {
			return nil, err
		}
		payload = &Payload{
			Event:         string(domain.EventKindTxConfirmation),
			Hash:          hash,
			Confirmations: confirmations,
		}
	case domain.EventKindDoubleSpendTx:
		hash, err := s.earliestHash(ctx)
		if err != nil {
			return nil, err
		}
		payload = &Payload{
			Event: string(domain.EventKindDoubleSpendTx),
			Hash:  hash,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, eventType)
	}

	event, err := s.normalizer.NormalizePayload(payload)
	if err != nil {
		return nil, err
	}

	rec, err := s.processor.Process(ctx, event)
	if err != nil {
		return nil, err
	}

	return &SimulationResult{
		SimulatedRequest: payload,
		WebhookResponse: &Receipt{
			Received:      true,
			TxHash:        rec.TxHash,
			Event:         event.Kind,
			ValueSatoshis: event.ValueSatoshis,
		},
	}, nil
}

func (s *Simulator) earliestHash(ctx context.Context) (string, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("confirmation store: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no transactions observed yet, simulate an unconfirmed-tx first")
	}
	return records[0].TxHash, nil
}
