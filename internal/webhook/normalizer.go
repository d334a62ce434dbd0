package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
)

// Normalization failure modes. Each is terminal for a single notification and
// never mutates the store.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingTxHash    = errors.New("missing tx hash")
	ErrUnknownEventKind = errors.New("unknown event kind")
)

// Payload mirrors the provider notification body.
type Payload struct {
	Event         string   `json:"event"`
	Address       string   `json:"address,omitempty"`
	Hash          string   `json:"hash"`
	Confirmations uint64   `json:"confirmations"`
	Outputs       []Output `json:"outputs,omitempty"`
}

// Output is one transaction output as reported by the provider.
type Output struct {
	Addresses []string `json:"addresses"`
	Value     int64    `json:"value"`
}

// Normalizer converts provider payloads into canonical BlockchainEvents.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize parses raw JSON and canonicalizes it.
func (n *Normalizer) Normalize(raw []byte) (*domain.BlockchainEvent, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return n.NormalizePayload(&p)
}

// NormalizePayload canonicalizes an already-parsed payload. The receipt
// timestamp is assigned here; client-supplied timestamps are never trusted
// for ordering decisions.
func (n *Normalizer) NormalizePayload(p *Payload) (*domain.BlockchainEvent, error) {
	kind, ok := domain.ParseEventKind(p.Event)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, p.Event)
	}
	if p.Hash == "" {
		return nil, ErrMissingTxHash
	}

	return &domain.BlockchainEvent{
		Kind:          kind,
		Address:       p.Address,
		TxHash:        p.Hash,
		Confirmations: p.Confirmations,
		ValueSatoshis: sumOutputs(p.Outputs, p.Address),
		ReceivedAt:    n.now().UTC(),
	}, nil
}

// sumOutputs totals the value of outputs relevant to the monitored address.
// Without an address filter all outputs count.
func sumOutputs(outputs []Output, address string) int64 {
	var total int64
	for _, out := range outputs {
		if address == "" {
			total += out.Value
			continue
		}
		for _, addr := range out.Addresses {
			if addr == address {
				total += out.Value
				break
			}
		}
	}
	return total
}
