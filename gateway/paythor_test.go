package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paythorServer fakes the gateway: /auth/token issues numbered bearer tokens
// and everything else is delegated to handle.
type paythorServer struct {
	*httptest.Server
	authCalls int64
	handle    func(w http.ResponseWriter, r *http.Request, token string)
}

func newPaythorServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, token string)) *paythorServer {
	ps := &paythorServer{handle: handle}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds["secret"] != "s3cret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"bad credentials"}`))
				return
			}
			n := atomic.AddInt64(&ps.authCalls, 1)
			resp := paythorAuthResponse{
				Token:     fmt.Sprintf("tok-%d", n),
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			}
			json.NewEncoder(w).Encode(resp)
			return
		}
		ps.handle(w, r, r.Header.Get("Authorization"))
	}))
	t.Cleanup(ps.Server.Close)
	return ps
}

func paythorConfig(url string) PaythorConfig {
	return PaythorConfig{
		APIURL:      url,
		MerchantKey: "merchant-1",
		Secret:      "s3cret",
		ReturnURL:   "https://shop.example/return",
		CancelURL:   "https://shop.example/cancel",
	}
}

func sessionBody() string {
	return `{"status":"success","data":{"payment_token":"pt_tok_1","payment_link":"https://pay.example/pt_tok_1"}}`
}

func TestPaythorCreatePaymentDecimalAmount(t *testing.T) {
	var captured map[string]interface{}
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		require.Equal(t, "/payment/create", r.URL.Path)
		require.Equal(t, "Bearer tok-1", token)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(sessionBody()))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	session, err := p.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)

	assert.Equal(t, "pt_tok_1", session.ProviderRef)
	assert.Equal(t, "https://pay.example/pt_tok_1", session.RedirectURL)

	// Amounts travel as decimal strings, never minor units.
	payment := captured["payment"].(map[string]interface{})
	assert.Equal(t, "199.90", payment["amount"])
	assert.Equal(t, "TRY", payment["currency"])
	assert.Equal(t, "7-12", payment["order_ref"])
	assert.Equal(t, "merchant-1", captured["merchant_key"])
}

func TestPaythorTokenCachedAcrossCalls(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		w.Write([]byte(sessionBody()))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	for i := 0; i < 3; i++ {
		_, err := p.CreatePayment(context.Background(), paymentRequest())
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&srv.authCalls))
}

func TestPaythorReauthenticatesOnceOn401(t *testing.T) {
	// The first token is revoked server-side; only tok-2 is accepted.
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		if token != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		w.Write([]byte(sessionBody()))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	session, err := p.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, "pt_tok_1", session.ProviderRef)
	assert.Equal(t, int64(2), atomic.LoadInt64(&srv.authCalls))
}

func TestPaythorPersistent401IsAuthFailure(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token revoked"}`))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	_, err := p.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrAuthFailed)
	// One initial auth plus exactly one retry, never a loop.
	assert.Equal(t, int64(2), atomic.LoadInt64(&srv.authCalls))
}

func TestPaythorBadCredentials(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		t.Error("payment call should never happen without a token")
	})

	cfg := paythorConfig(srv.URL)
	cfg.Secret = "wrong"
	p := NewPaythor(cfg)
	_, err := p.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestPaythorRejectedPayment(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":"error","message":"amount below minimum"}`))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	_, err := p.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestPaythorEmptySessionRejected(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		w.Write([]byte(`{"status":"success","data":{}}`))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	_, err := p.CreatePayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrRejected)
}

func TestPaythorGetStatus(t *testing.T) {
	cases := []struct {
		state string
		want  Status
	}{
		{"paid", StatusSucceeded},
		{"completed", StatusSucceeded},
		{"declined", StatusFailed},
		{"cancelled", StatusCanceled},
		{"refunded", StatusRefunded},
		{"waiting", StatusPending},
		{"archived", StatusUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.state, func(t *testing.T) {
			srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
				require.Equal(t, "/payment/status/pt_tok_1", r.URL.Path)
				w.Write([]byte(`{"status":"success","data":{"state":"` + tc.state + `"}}`))
			})

			p := NewPaythor(paythorConfig(srv.URL))
			got, err := p.GetStatus(context.Background(), "pt_tok_1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPaythorExpiredTokenRefetched(t *testing.T) {
	srv := newPaythorServer(t, func(w http.ResponseWriter, r *http.Request, token string) {
		w.Write([]byte(sessionBody()))
	})

	p := NewPaythor(paythorConfig(srv.URL))
	_, err := p.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)

	// Simulate the cached token aging past its expiry.
	p.mu.Lock()
	p.tokenExpiry = time.Now().Add(-time.Minute)
	p.mu.Unlock()

	_, err = p.CreatePayment(context.Background(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&srv.authCalls))
}
