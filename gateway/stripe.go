package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// StripeConfig carries everything the adapter needs; read once in main.
type StripeConfig struct {
	SecretKey string
	APIURL    string
}

func StripeConfigFromEnv() (StripeConfig, error) {
	cfg := StripeConfig{
		SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		APIURL:    os.Getenv("STRIPE_API_URL"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.stripe.com/v1"
	}
	if cfg.SecretKey == "" {
		return StripeConfig{}, fmt.Errorf("stripe configuration missing")
	}
	return cfg, nil
}

// Stripe creates PaymentIntents and returns their client secret. Amounts are
// sent in minor units.
type Stripe struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripe(cfg StripeConfig) *Stripe {
	return &Stripe{cfg: cfg, client: newHTTPClient()}
}

func (s *Stripe) Name() string { return "stripe" }

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *Stripe) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Session, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minorUnits(req.Amount), 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("description", req.Description)
	form.Set("receipt_email", req.Customer.Email)
	form.Set("metadata[order_id]", strconv.FormatUint(uint64(req.OrderID), 10))
	form.Set("metadata[payment_id]", strconv.FormatUint(uint64(req.PaymentID), 10))

	intent, err := s.do(ctx, http.MethodPost, "/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: stripe returned no client secret", ErrRejected)
	}
	return &Session{ProviderRef: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (s *Stripe) GetStatus(ctx context.Context, providerRef string) (Status, error) {
	intent, err := s.do(ctx, http.MethodGet, "/payment_intents/"+providerRef, nil)
	if err != nil {
		return StatusUnknown, err
	}
	switch intent.Status {
	case "succeeded":
		return StatusSucceeded, nil
	case "canceled":
		return StatusCanceled, nil
	case "requires_payment_method", "requires_confirmation", "requires_action", "processing":
		return StatusPending, nil
	default:
		return StatusUnknown, nil
	}
}

func (s *Stripe) do(ctx context.Context, method, path string, body io.Reader) (*stripeIntent, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if method == http.MethodPost {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var intent stripeIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: stripe returned %d", ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: stripe returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg := "request declined"
		if intent.Error != nil {
			msg = intent.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return &intent, nil
}

// minorUnits converts a decimal amount to the smallest currency unit, e.g.
// 19.99 → 1999.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
