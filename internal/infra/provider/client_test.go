package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/paygate/internal/core/domain"
)

func newTestRegistrar(t *testing.T, handler http.HandlerFunc) (*Registrar, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Coin:    domain.CoinBTCTestnet,
		Token:   "test-token",
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return NewRegistrar(client), srv
}

func TestRegisterForwarding(t *testing.T) {
	var gotPath, gotToken string
	var gotBody map[string]any

	registrar, _ := newTestRegistrar(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "fwd-1",
			"destination":   "merchant-addr",
			"input_address": "generated-addr",
			"callback_url":  "https://gw.example/webhooks/payment",
		})
	})

	sub, err := registrar.RegisterForwarding(
		context.Background(),
		"merchant-addr",
		"https://gw.example/webhooks/payment",
		&ForwardingOptions{ProcessingFeeSatoshis: 500},
	)
	if err != nil {
		t.Fatalf("RegisterForwarding failed: %v", err)
	}

	if gotPath != "/btc/test3/payments" {
		t.Errorf("Expected path /btc/test3/payments, got %s", gotPath)
	}
	if gotToken != "test-token" {
		t.Errorf("Expected token query param, got %q", gotToken)
	}
	if fees, ok := gotBody["processing_fees"].(map[string]any); !ok || fees["satoshis"] != float64(500) {
		t.Errorf("Expected nested processing_fees, got %v", gotBody["processing_fees"])
	}
	if sub.ID != "fwd-1" || sub.InputAddress != "generated-addr" {
		t.Errorf("Unexpected subscription: %+v", sub)
	}
	if sub.Coin != "btc-testnet" {
		t.Errorf("Expected coin btc-testnet, got %s", sub.Coin)
	}
}

func TestRegisterTransactionWebhook(t *testing.T) {
	var gotBody map[string]any

	registrar, _ := newTestRegistrar(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"id": "hook-1"})
	})

	id, err := registrar.RegisterTransactionWebhook(
		context.Background(),
		"abc123",
		"https://gw.example/webhooks/payment",
		6,
	)
	if err != nil {
		t.Fatalf("RegisterTransactionWebhook failed: %v", err)
	}

	if id != "hook-1" {
		t.Errorf("Expected subscription id hook-1, got %s", id)
	}
	if gotBody["event"] != "tx-confirmation" {
		t.Errorf("Expected event tx-confirmation, got %v", gotBody["event"])
	}
	if gotBody["hash"] != "abc123" {
		t.Errorf("Expected hash abc123, got %v", gotBody["hash"])
	}
	if gotBody["confirmations"] != float64(6) {
		t.Errorf("Expected confirmations 6, got %v", gotBody["confirmations"])
	}
}

func TestRegisterAddressWebhook(t *testing.T) {
	var gotBody map[string]any

	registrar, _ := newTestRegistrar(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"id": "hook-2"})
	})

	id, err := registrar.RegisterAddressWebhook(
		context.Background(),
		"some-addr",
		"https://gw.example/webhooks/payment",
		domain.EventKindUnconfirmedTx,
	)
	if err != nil {
		t.Fatalf("RegisterAddressWebhook failed: %v", err)
	}

	if id != "hook-2" {
		t.Errorf("Expected subscription id hook-2, got %s", id)
	}
	if gotBody["address"] != "some-addr" {
		t.Errorf("Expected address some-addr, got %v", gotBody["address"])
	}
}

func TestRegistrationError(t *testing.T) {
	registrar, _ := newTestRegistrar(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid destination address"})
	})

	_, err := registrar.RegisterForwarding(context.Background(), "bogus", "", nil)
	if err == nil {
		t.Fatal("Expected registration error")
	}

	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("Expected *RegistrationError, got %T: %v", err, err)
	}
	if regErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", regErr.StatusCode)
	}
	if regErr.Reason != "invalid destination address" {
		t.Errorf("Expected provider reason, got %q", regErr.Reason)
	}
}

func TestGetTransactionAndValidators(t *testing.T) {
	registrar, _ := newTestRegistrar(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/btc/test3/txs/abc123":
			json.NewEncoder(w).Encode(map[string]any{
				"hash":          "abc123",
				"confirmations": 7,
				"double_spend":  false,
			})
		case "/btc/test3/addrs/some-addr/validate":
			json.NewEncoder(w).Encode(map[string]any{"valid": true})
		default:
			http.NotFound(w, r)
		}
	})
	client := registrar.client
	ctx := context.Background()

	confirmed, err := client.IsConfirmed(ctx, "abc123", 6)
	if err != nil {
		t.Fatalf("IsConfirmed failed: %v", err)
	}
	if !confirmed {
		t.Error("Expected tx with 7 confirmations to be confirmed at threshold 6")
	}

	doubleSpend, err := client.IsDoubleSpend(ctx, "abc123")
	if err != nil {
		t.Fatalf("IsDoubleSpend failed: %v", err)
	}
	if doubleSpend {
		t.Error("Expected double_spend=false")
	}

	valid, err := client.ValidateAddress(ctx, "some-addr")
	if err != nil {
		t.Fatalf("ValidateAddress failed: %v", err)
	}
	if !valid {
		t.Error("Expected address to validate")
	}
}

func TestNewClient_InvalidCoin(t *testing.T) {
	if _, err := NewClient(Config{Coin: "monopoly-money"}); err == nil {
		t.Error("Expected error for invalid coin symbol")
	}
}
