package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/vietddude/paygate/internal/core/domain"
)

func fixedNormalizer(t *testing.T) (*Normalizer, time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := NewNormalizer()
	n.now = func() time.Time { return now }
	return n, now
}

func TestNormalize_UnconfirmedTx(t *testing.T) {
	n, now := fixedNormalizer(t)

	raw := []byte(`{
		"event": "unconfirmed-tx",
		"address": "X",
		"hash": "abc123",
		"confirmations": 0,
		"outputs": [{"addresses": ["X"], "value": 1500000}]
	}`)

	ev, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if ev.Kind != domain.EventKindUnconfirmedTx {
		t.Errorf("Expected kind unconfirmed-tx, got %s", ev.Kind)
	}
	if ev.TxHash != "abc123" {
		t.Errorf("Expected hash abc123, got %s", ev.TxHash)
	}
	if ev.ValueSatoshis != 1500000 {
		t.Errorf("Expected value 1500000, got %d", ev.ValueSatoshis)
	}
	if !ev.ReceivedAt.Equal(now) {
		t.Errorf("Expected locally assigned timestamp %v, got %v", now, ev.ReceivedAt)
	}
}

func TestNormalize_OutputFiltering(t *testing.T) {
	n, _ := fixedNormalizer(t)

	cases := []struct {
		name    string
		address string
		outputs []Output
		want    int64
	}{
		{
			name:    "only matching outputs counted",
			address: "X",
			outputs: []Output{
				{Addresses: []string{"X"}, Value: 100},
				{Addresses: []string{"Y"}, Value: 900},
				{Addresses: []string{"Y", "X"}, Value: 50},
			},
			want: 150,
		},
		{
			name:    "no filter sums everything",
			address: "",
			outputs: []Output{
				{Addresses: []string{"A"}, Value: 100},
				{Addresses: []string{"B"}, Value: 900},
			},
			want: 1000,
		},
		{
			name:    "no outputs",
			address: "X",
			outputs: nil,
			want:    0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := n.NormalizePayload(&Payload{
				Event:   "unconfirmed-tx",
				Address: tc.address,
				Hash:    "abc123",
				Outputs: tc.outputs,
			})
			if err != nil {
				t.Fatalf("NormalizePayload failed: %v", err)
			}
			if ev.ValueSatoshis != tc.want {
				t.Errorf("Expected value %d, got %d", tc.want, ev.ValueSatoshis)
			}
		})
	}
}

func TestNormalize_MissingConfirmationsDefaultsToZero(t *testing.T) {
	n, _ := fixedNormalizer(t)

	ev, err := n.Normalize([]byte(`{"event": "tx-confirmation", "hash": "abc123"}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if ev.Confirmations != 0 {
		t.Errorf("Expected confirmations 0, got %d", ev.Confirmations)
	}
}

func TestNormalize_Errors(t *testing.T) {
	n, _ := fixedNormalizer(t)

	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{nope`, ErrMalformedPayload},
		{"unknown kind", `{"event": "new-block", "hash": "abc123"}`, ErrUnknownEventKind},
		{"empty kind", `{"hash": "abc123"}`, ErrUnknownEventKind},
		{"missing hash", `{"event": "unconfirmed-tx"}`, ErrMissingTxHash},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize([]byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalize_AllKnownKinds(t *testing.T) {
	n, _ := fixedNormalizer(t)

	kinds := []domain.EventKind{
		domain.EventKindUnconfirmedTx,
		domain.EventKindConfirmedTx,
		domain.EventKindTxConfirmation,
		domain.EventKindDoubleSpendTx,
		domain.EventKindTxConfidence,
	}

	for _, kind := range kinds {
		ev, err := n.NormalizePayload(&Payload{Event: string(kind), Hash: "abc123"})
		if err != nil {
			t.Errorf("Expected %s to normalize, got %v", kind, err)
			continue
		}
		if ev.Kind != kind {
			t.Errorf("Expected kind %s, got %s", kind, ev.Kind)
		}
	}
}
