package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/paygate/internal/core/domain"
	"github.com/vietddude/paygate/internal/infra/storage/memory"
	"github.com/vietddude/paygate/internal/webhook"
)

const testSecret = "test-secret"

type testGateway struct {
	router   http.Handler
	verifier *webhook.Verifier
}

func newTestGateway(t *testing.T, production bool) *testGateway {
	t.Helper()

	repo := memory.NewStatusRepo(memory.NewMemoryStorage())
	verifier := webhook.NewVerifier(testSecret, false)
	normalizer := webhook.NewNormalizer()
	processor := webhook.NewProcessor(repo, nil, 6)

	var simulator *webhook.Simulator
	if !production {
		simulator = webhook.NewSimulator(normalizer, processor, repo)
	}

	h := NewHandler(verifier, normalizer, processor, simulator, repo, nil)
	return &testGateway{
		router:   NewRouter(h, nil),
		verifier: verifier,
	}
}

func (g *testGateway) postWebhook(t *testing.T, body string, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader([]byte(body)))
	if sign {
		req.Header.Set(SignatureHeader, g.verifier.Sign([]byte(body)))
	}
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	return rr
}

func (g *testGateway) getTransaction(t *testing.T, txHash string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/webhooks/transactions/"+txHash, nil)
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestPaymentWebhook_UnconfirmedTxScenario(t *testing.T) {
	g := newTestGateway(t, false)

	body := `{"event": "unconfirmed-tx", "address": "X", "hash": "abc123", "confirmations": 0,
		"outputs": [{"addresses": ["X"], "value": 1500000}]}`

	rr := g.postWebhook(t, body, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var receipt webhook.Receipt
	decodeJSON(t, rr, &receipt)
	if !receipt.Received || receipt.TxHash != "abc123" {
		t.Errorf("Unexpected receipt: %+v", receipt)
	}
	if receipt.Event != domain.EventKindUnconfirmedTx {
		t.Errorf("Expected event unconfirmed-tx, got %s", receipt.Event)
	}
	if receipt.ValueSatoshis != 1500000 {
		t.Errorf("Expected value 1500000, got %d", receipt.ValueSatoshis)
	}

	rr = g.getTransaction(t, "abc123")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var tx transactionResponse
	decodeJSON(t, rr, &tx)
	if tx.Status != domain.TxStatusUnconfirmed {
		t.Errorf("Expected status unconfirmed, got %s", tx.Status)
	}
	if tx.Confirmations != 0 || tx.ValueSatoshis != 1500000 {
		t.Errorf("Unexpected projection: %+v", tx)
	}
	if tx.ValueBTC != 0.015 {
		t.Errorf("Expected 0.015 BTC, got %v", tx.ValueBTC)
	}
}

func TestPaymentWebhook_ConfirmationScenario(t *testing.T) {
	g := newTestGateway(t, false)

	g.postWebhook(t, `{"event": "unconfirmed-tx", "address": "X", "hash": "abc123", "confirmations": 0,
		"outputs": [{"addresses": ["X"], "value": 1500000}]}`, true)

	rr := g.postWebhook(t, `{"event": "tx-confirmation", "hash": "abc123", "confirmations": 6}`, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	rr = g.getTransaction(t, "abc123")
	var tx transactionResponse
	decodeJSON(t, rr, &tx)
	if tx.Status != domain.TxStatusConfirmed {
		t.Errorf("Expected status confirmed, got %s", tx.Status)
	}
	if tx.Confirmations != 6 {
		t.Errorf("Expected 6 confirmations, got %d", tx.Confirmations)
	}
	if tx.ValueSatoshis != 1500000 {
		t.Errorf("Confirmation events must not erase the recorded value, got %d", tx.ValueSatoshis)
	}
}

func TestPaymentWebhook_SignatureGate(t *testing.T) {
	g := newTestGateway(t, false)
	body := `{"event": "unconfirmed-tx", "hash": "abc123"}`

	// Missing signature
	rr := g.postWebhook(t, body, false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for missing signature, got %d", rr.Code)
	}

	// Tampered signature
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader([]byte(body)))
	req.Header.Set(SignatureHeader, g.verifier.Sign([]byte("different payload")))
	rr = httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for tampered signature, got %d", rr.Code)
	}

	// The gate must leave the store untouched.
	if rr := g.getTransaction(t, "abc123"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after rejected deliveries, got %d", rr.Code)
	}
}

func TestPaymentWebhook_BadPayloads(t *testing.T) {
	g := newTestGateway(t, false)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{nope`},
		{"unknown event kind", `{"event": "new-block", "hash": "abc123"}`},
		{"missing hash", `{"event": "unconfirmed-tx"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := g.postWebhook(t, tc.body, true)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
		})
	}

	if rr := g.getTransaction(t, "abc123"); rr.Code != http.StatusNotFound {
		t.Errorf("Rejected payloads must not mutate the store, got %d", rr.Code)
	}
}

func TestPaymentWebhook_DuplicateDeliveryStillAccepted(t *testing.T) {
	g := newTestGateway(t, false)
	body := `{"event": "tx-confirmation", "hash": "abc123", "confirmations": 3}`

	for i := 0; i < 3; i++ {
		rr := g.postWebhook(t, body, true)
		if rr.Code != http.StatusOK {
			t.Fatalf("Duplicate delivery %d must be absorbed with 200, got %d", i, rr.Code)
		}
	}

	rr := g.getTransaction(t, "abc123")
	var tx transactionResponse
	decodeJSON(t, rr, &tx)
	if tx.Confirmations != 3 || tx.Status != domain.TxStatusConfirming {
		t.Errorf("Duplicates must converge, got %+v", tx)
	}
}

func TestGetTransaction_UnknownHash(t *testing.T) {
	g := newTestGateway(t, false)

	if rr := g.getTransaction(t, "never-seen"); rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestListTransactions(t *testing.T) {
	g := newTestGateway(t, false)

	g.postWebhook(t, `{"event": "unconfirmed-tx", "hash": "tx1"}`, true)
	g.postWebhook(t, `{"event": "unconfirmed-tx", "hash": "tx2"}`, true)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/transactions", nil)
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var txs []transactionResponse
	decodeJSON(t, rr, &txs)
	if len(txs) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(txs))
	}
}

func TestSimulate_Development(t *testing.T) {
	g := newTestGateway(t, false)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/simulate?event_type=unconfirmed-tx&address=Y", nil)
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result webhook.SimulationResult
	decodeJSON(t, rr, &result)
	if result.WebhookResponse == nil || !result.WebhookResponse.Received {
		t.Errorf("Unexpected simulation result: %+v", result)
	}
}

func TestSimulate_UnreachableInProduction(t *testing.T) {
	g := newTestGateway(t, true)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/simulate", nil)
	rr := httptest.NewRecorder()
	g.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected simulate route to be unreachable in production, got %d", rr.Code)
	}
}
