package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"checkoutbridge/internal/domain"
	"checkoutbridge/internal/service"
)

const testWebhookSecret = "whsec_test_secret"

const completedEvent = `{
  "id": "evt_test_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "client_reference_id": "123",
      "mode": "payment",
      "payment_status": "paid",
      "status": "complete",
      "amount_total": 5000,
      "currency": "jpy"
    }
  }
}`

func sign(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestVerifyEvent_ValidSignature(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testWebhookSecret}, http.DefaultClient, nil)
	payload := []byte(completedEvent)

	event, err := p.VerifyEvent(payload, sign(t, payload, testWebhookSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, domain.EventCheckoutSessionCompleted, event.Type)
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_test_1", event.Session.ID)
	assert.Equal(t, "123", event.Session.ClientReferenceID)
	assert.Equal(t, domain.SessionModePayment, event.Session.Mode)
	assert.Equal(t, domain.PaymentStatusPaid, event.Session.PaymentStatus)
	assert.Equal(t, int64(5000), event.Session.AmountTotal)
}

func TestVerifyEvent_WrongSecret(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testWebhookSecret}, http.DefaultClient, nil)
	payload := []byte(completedEvent)

	_, err := p.VerifyEvent(payload, sign(t, payload, "whsec_other"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidSignature))
}

func TestVerifyEvent_TamperedPayload(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testWebhookSecret}, http.DefaultClient, nil)
	header := sign(t, []byte(completedEvent), testWebhookSecret)

	tampered := []byte(`{"id":"evt_test_1","object":"event","type":"checkout.session.completed","data":{"object":{"object":"checkout.session","client_reference_id":"999"}}}`)
	_, err := p.VerifyEvent(tampered, header)
	assert.True(t, errors.Is(err, service.ErrInvalidSignature))
}

func TestVerifyEvent_NonSessionEvent(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testWebhookSecret}, http.DefaultClient, nil)
	payload := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	event, err := p.VerifyEvent(payload, sign(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", event.Type)
	assert.Nil(t, event.Session)
}

func TestVerifyEvent_UndecodableSessionIsStillVerified(t *testing.T) {
	t.Parallel()

	p := NewProvider(Config{SecretKey: "sk_test", WebhookSecret: testWebhookSecret}, http.DefaultClient, nil)
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_3","object":"checkout.session","client_reference_id":"123","amount_total":"5000"}}}`)

	event, err := p.VerifyEvent(payload, sign(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "evt_3", event.ID)
	assert.Equal(t, domain.EventCheckoutSessionCompleted, event.Type)
	assert.Nil(t, event.Session)
}

func TestCreateSession_SendsSessionParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "checkout:order:123", r.Header.Get("Idempotency-Key"))

		assert.NoError(t, r.ParseForm())
		form := r.PostForm
		assert.Equal(t, "payment", form.Get("mode"))
		assert.Equal(t, "123", form.Get("client_reference_id"))
		assert.Equal(t, "123", form.Get("metadata[order_id]"))
		assert.Equal(t, "jpy", form.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "5000", form.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "Order #123", form.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
		assert.Equal(t, "https://shop.example.com/checkout/success?order=123", form.Get("success_url"))
		assert.Empty(t, form.Get("expires_at"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","client_reference_id":"123","mode":"payment"}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test", BaseURL: srv.URL}, srv.Client(), nil)
	session, err := p.CreateSession(context.Background(), domain.SessionRequest{
		OrderID:           123,
		ProductName:       "Order #123",
		Amount:            5000,
		Currency:          "jpy",
		SuccessURL:        "https://shop.example.com/checkout/success?order=123",
		CancelURL:         "https://shop.example.com/checkout/cancel?order=123",
		ClientReferenceID: "123",
		ExpiresAfter:      24 * time.Hour,
		IdempotencyKey:    "checkout:order:123",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", session.URL)
}

func TestRetrieveSession_ExpandsPaymentIntent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		assert.Equal(t, "payment_intent", r.URL.Query().Get("expand[0]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_1",
			"object": "checkout.session",
			"client_reference_id": "123",
			"payment_status": "paid",
			"status": "complete",
			"amount_total": 5000,
			"currency": "jpy",
			"payment_intent": {"id": "pi_1", "object": "payment_intent", "status": "succeeded", "amount": 5000}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test", BaseURL: srv.URL}, srv.Client(), nil)
	session, err := p.RetrieveSession(context.Background(), "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, "123", session.ClientReferenceID)
	assert.Equal(t, int64(5000), session.AmountTotal)
	assert.Equal(t, "jpy", session.Currency)
	assert.Equal(t, "paid", session.PaymentStatus)
	assert.Equal(t, "complete", session.Status)
}

func TestRetrieveSession_FallsBackToPaymentIntentAmount(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_2",
			"object": "checkout.session",
			"client_reference_id": "55",
			"payment_status": "unpaid",
			"status": "open",
			"payment_intent": {"id": "pi_2", "object": "payment_intent", "status": "requires_payment_method", "amount": 1200, "currency": "jpy"}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test", BaseURL: srv.URL}, srv.Client(), nil)
	session, err := p.RetrieveSession(context.Background(), "cs_test_2")
	require.NoError(t, err)

	assert.Equal(t, int64(1200), session.AmountTotal)
	assert.Equal(t, "jpy", session.Currency)
}

func TestRetrieveSession_ProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session: cs_missing"}}`))
	}))
	defer srv.Close()

	p := NewProvider(Config{SecretKey: "sk_test", BaseURL: srv.URL}, srv.Client(), nil)
	_, err := p.RetrieveSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such checkout.session")
}
