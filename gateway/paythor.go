package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// PaythorConfig carries the merchant credentials and endpoints for the
// regional gateway.
type PaythorConfig struct {
	APIURL      string
	MerchantKey string
	Secret      string
	ReturnURL   string
	CancelURL   string
}

func PaythorConfigFromEnv() (PaythorConfig, error) {
	cfg := PaythorConfig{
		APIURL:      os.Getenv("PAYTHOR_API_URL"),
		MerchantKey: os.Getenv("PAYTHOR_MERCHANT_KEY"),
		Secret:      os.Getenv("PAYTHOR_SECRET"),
		ReturnURL:   os.Getenv("PAYTHOR_RETURN_URL"),
		CancelURL:   os.Getenv("PAYTHOR_CANCEL_URL"),
	}
	if cfg.APIURL == "" || cfg.MerchantKey == "" || cfg.Secret == "" {
		return PaythorConfig{}, fmt.Errorf("paythor configuration missing")
	}
	return cfg, nil
}

// Paythor speaks the regional gateway's JSON API. Amounts travel as decimal
// strings and every call rides on a bearer token with an explicit expiry; an
// expired token triggers exactly one silent re-authentication before the
// caller sees ErrAuthFailed.
type Paythor struct {
	cfg    PaythorConfig
	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewPaythor(cfg PaythorConfig) *Paythor {
	return &Paythor{cfg: cfg, client: newHTTPClient()}
}

func (p *Paythor) Name() string { return "paythor" }

type paythorAuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
	Error     string `json:"error,omitempty"`
}

type paythorPaymentResponse struct {
	Status string `json:"status"`
	Data   struct {
		PaymentToken string `json:"payment_token"`
		PaymentLink  string `json:"payment_link"`
		State        string `json:"state"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

func (p *Paythor) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Session, error) {
	payload := map[string]interface{}{
		"merchant_key": p.cfg.MerchantKey,
		"payment": map[string]interface{}{
			"amount":      fmt.Sprintf("%.2f", req.Amount), // decimal string, not minor units
			"currency":    req.Currency,
			"description": req.Description,
			"order_ref":   fmt.Sprintf("%d-%d", req.OrderID, req.PaymentID),
		},
		"payer": map[string]string{
			"name":  req.Customer.Name,
			"email": req.Customer.Email,
			"phone": req.Customer.Phone,
		},
		"return_url": p.cfg.ReturnURL,
		"cancel_url": p.cfg.CancelURL,
	}

	var out paythorPaymentResponse
	if err := p.do(ctx, http.MethodPost, "/payment/create", payload, &out); err != nil {
		return nil, err
	}
	if out.Data.PaymentToken == "" || out.Data.PaymentLink == "" {
		msg := out.Message
		if msg == "" {
			msg = "empty payment session"
		}
		return nil, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return &Session{ProviderRef: out.Data.PaymentToken, RedirectURL: out.Data.PaymentLink}, nil
}

func (p *Paythor) GetStatus(ctx context.Context, providerRef string) (Status, error) {
	var out paythorPaymentResponse
	err := p.do(ctx, http.MethodGet, "/payment/status/"+providerRef, nil, &out)
	if err != nil {
		return StatusUnknown, err
	}
	switch out.Data.State {
	case "completed", "paid":
		return StatusSucceeded, nil
	case "failed", "declined":
		return StatusFailed, nil
	case "cancelled":
		return StatusCanceled, nil
	case "refunded":
		return StatusRefunded, nil
	case "pending", "waiting":
		return StatusPending, nil
	default:
		return StatusUnknown, nil
	}
}

// do performs an authenticated call, re-authenticating once if the token is
// stale or the provider answers 401.
func (p *Paythor) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	token, err := p.ensureToken(ctx, false)
	if err != nil {
		return err
	}

	status, err := p.call(ctx, method, path, payload, token, out)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		// Token may have expired mid-session; re-auth once and retry.
		token, err = p.ensureToken(ctx, true)
		if err != nil {
			return err
		}
		status, err = p.call(ctx, method, path, payload, token, out)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return fmt.Errorf("%w: token rejected after re-authentication", ErrAuthFailed)
		}
	}

	switch {
	case status >= 500:
		return fmt.Errorf("%w: paythor returned %d", ErrUnavailable, status)
	case status >= 400:
		return fmt.Errorf("%w: paythor returned %d", ErrRejected, status)
	}
	return nil
}

func (p *Paythor) call(ctx context.Context, method, path string, payload interface{}, token string, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.APIURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 400 && out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: unparseable response: %v", ErrUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}

// ensureToken returns a token that is valid for at least another 30 seconds,
// fetching a fresh one when needed or when force is set.
func (p *Paythor) ensureToken(ctx context.Context, force bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !force && p.token != "" && time.Until(p.tokenExpiry) > 30*time.Second {
		return p.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"merchant_key": p.cfg.MerchantKey,
		"secret":       p.cfg.Secret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("%w: paythor auth returned %d", ErrAuthFailed, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: paythor auth returned %d", ErrUnavailable, resp.StatusCode)
	}

	var auth paythorAuthResponse
	if err := json.Unmarshal(raw, &auth); err != nil || auth.Token == "" {
		return "", fmt.Errorf("%w: invalid auth response", ErrAuthFailed)
	}

	p.token = auth.Token
	p.tokenExpiry = time.Unix(auth.ExpiresAt, 0)
	return p.token, nil
}
