package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vietddude/paygate/internal/core/domain"
	redisclient "github.com/vietddude/paygate/internal/infra/redis"
	"github.com/vietddude/paygate/internal/infra/storage"
	"github.com/vietddude/paygate/internal/metrics"
	"github.com/vietddude/paygate/internal/webhook"
)

// SignatureHeader carries the provider's HMAC signature over the raw body.
const SignatureHeader = "X-Webhook-Signature"

// Handler serves the webhook ingestion and transaction status endpoints.
type Handler struct {
	verifier   *webhook.Verifier
	normalizer *webhook.Normalizer
	processor  *webhook.Processor
	simulator  *webhook.Simulator // nil in production
	store      storage.TransactionStatusRepository
	cache      *redisclient.Client // optional
	log        *slog.Logger
}

func NewHandler(
	verifier *webhook.Verifier,
	normalizer *webhook.Normalizer,
	processor *webhook.Processor,
	simulator *webhook.Simulator,
	store storage.TransactionStatusRepository,
	cache *redisclient.Client,
) *Handler {
	return &Handler{
		verifier:   verifier,
		normalizer: normalizer,
		processor:  processor,
		simulator:  simulator,
		store:      store,
		cache:      cache,
		log:        slog.Default().With("component", "api"),
	}
}

// transactionResponse is the merchant-facing projection of a status record.
type transactionResponse struct {
	Address       string          `json:"address"`
	ValueSatoshis int64           `json:"value_satoshis"`
	ValueBTC      float64         `json:"value_btc"`
	Confirmations uint64          `json:"confirmations"`
	Status        domain.TxStatus `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	TxHash        string          `json:"tx_hash"`
}

func projectRecord(rec *domain.TransactionStatusRecord) transactionResponse {
	return transactionResponse{
		Address:       rec.Address,
		ValueSatoshis: rec.ValueSatoshis,
		ValueBTC:      rec.ValueBTC(),
		Confirmations: rec.Confirmations,
		Status:        rec.Status,
		Timestamp:     rec.LastUpdatedAt,
		TxHash:        rec.TxHash,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handlePaymentWebhook is the ingestion hot path: gate on the signature,
// normalize, apply the state transition, acknowledge. Duplicates and
// out-of-order deliveries are absorbed and still acknowledged with 200 so the
// provider stops redelivering them.
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := h.log.With("request_id", requestID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	if !h.verifier.Verify(body, r.Header.Get(SignatureHeader)) {
		metrics.SignatureFailuresTotal.Inc()
		log.Warn("webhook rejected at signature gate", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event, err := h.normalizer.Normalize(body)
	if err != nil {
		// Terminal for this notification: the provider cannot meaningfully
		// resend a payload we do not understand.
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		log.Warn("webhook payload rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	rec, err := h.processor.Process(r.Context(), event)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Kind), "error").Inc()
		log.Error("failed to process webhook event", "tx_hash", event.TxHash, "error", err)
		// The provider redelivers on non-2xx; that is our retry mechanism.
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(event.Kind), "processed").Inc()
	metrics.ProcessingDuration.WithLabelValues(string(event.Kind)).Observe(time.Since(start).Seconds())
	log.Info("webhook absorbed",
		"tx_hash", rec.TxHash,
		"event", event.Kind,
		"status", rec.Status,
		"confirmations", rec.Confirmations,
	)

	writeJSON(w, http.StatusOK, webhook.Receipt{
		Received:      true,
		TxHash:        rec.TxHash,
		Event:         event.Kind,
		ValueSatoshis: event.ValueSatoshis,
	})
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txHash := chi.URLParam(r, "txHash")

	if h.cache != nil {
		rec, hit, err := h.cache.GetStatus(r.Context(), txHash)
		if err != nil {
			h.log.Warn("status cache lookup failed", "tx_hash", txHash, "error", err)
		} else if hit {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			writeJSON(w, http.StatusOK, projectRecord(rec))
			return
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	rec, err := h.store.Get(r.Context(), txHash)
	if err != nil {
		h.log.Error("failed to read transaction status", "tx_hash", txHash, "error", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetStatus(r.Context(), rec); err != nil {
			h.log.Warn("failed to refresh status cache", "tx_hash", txHash, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, projectRecord(rec))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error("failed to list transaction status", "error", err)
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
		return
	}

	out := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, projectRecord(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSimulate feeds a synthetic event through the normal processing path.
// The route is only mounted outside production; the nil check is a second
// fence for misconfigured wiring.
func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if h.simulator == nil {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	eventType := q.Get("event_type")
	if eventType == "" {
		eventType = string(domain.EventKindUnconfirmedTx)
	}
	confirmations := uint64(1)
	if raw := q.Get("confirmations"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid confirmations")
			return
		}
		confirmations = parsed
	}

	result, err := h.simulator.Simulate(r.Context(), eventType, q.Get("address"), confirmations)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
