package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paymentRequest() CreatePaymentRequest {
	return CreatePaymentRequest{
		OrderID:     7,
		PaymentID:   12,
		Amount:      199.90,
		Currency:    "TRY",
		Description: "Order #7",
		Customer: CustomerInfo{
			Name:  "Ayse Yilmaz",
			Email: "ayse@example.com",
			Phone: "+905551112233",
		},
	}
}

func TestStripeCreatePaymentMinorUnits(t *testing.T) {
	var form map[string][]string
	var auth, idemKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment_intents", r.URL.Path)
		auth = r.Header.Get("Authorization")
		idemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	s := NewStripe(StripeConfig{SecretKey: "sk_test_1", APIURL: srv.URL})
	session, err := s.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)

	assert.Equal(t, "pi_1", session.ProviderRef)
	assert.Equal(t, "pi_1_secret", session.ClientSecret)
	assert.Equal(t, "Bearer sk_test_1", auth)
	assert.NotEmpty(t, idemKey)

	// 199.90 TRY travels as 19990 kurus.
	assert.Equal(t, []string{"19990"}, form["amount"])
	assert.Equal(t, []string{"try"}, form["currency"])
	assert.Equal(t, []string{"ayse@example.com"}, form["receipt_email"])
	assert.Equal(t, []string{"7"}, form["metadata[order_id]"])
	assert.Equal(t, []string{"12"}, form["metadata[payment_id]"])
}

func TestStripeCreatePaymentErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"auth rejected", http.StatusUnauthorized, `{}`, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, `{}`, ErrAuthFailed},
		{"card declined", http.StatusPaymentRequired, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`, ErrRejected},
		{"server error", http.StatusInternalServerError, `{}`, ErrUnavailable},
		{"missing client secret", http.StatusOK, `{"id":"pi_1"}`, ErrRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			s := NewStripe(StripeConfig{SecretKey: "sk_test_1", APIURL: srv.URL})
			_, err := s.CreatePayment(context.Background(), paymentRequest())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestStripeCreatePaymentNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	s := NewStripe(StripeConfig{SecretKey: "sk_test_1", APIURL: srv.URL})
	_, err := s.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStripeGetStatus(t *testing.T) {
	cases := []struct {
		intent string
		want   Status
	}{
		{"succeeded", StatusSucceeded},
		{"canceled", StatusCanceled},
		{"processing", StatusPending},
		{"requires_action", StatusPending},
		{"something_new", StatusUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.intent, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/payment_intents/pi_1", r.URL.Path)
				w.Write([]byte(`{"id":"pi_1","status":"` + tc.intent + `"}`))
			}))
			defer srv.Close()

			s := NewStripe(StripeConfig{SecretKey: "sk_test_1", APIURL: srv.URL})
			got, err := s.GetStatus(context.Background(), "pi_1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(19990), minorUnits(199.90))
	assert.Equal(t, int64(1), minorUnits(0.01))
	assert.Equal(t, int64(10), minorUnits(0.1))
	assert.Equal(t, int64(4990), minorUnits(49.90))
	assert.Equal(t, int64(0), minorUnits(0))
}
