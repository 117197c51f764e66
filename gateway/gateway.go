// Package gateway holds the payment-provider adapters. Each adapter turns an
// internal payment request into a provider-specific create call and maps the
// provider's failures onto a single error taxonomy.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUnavailable covers network failures and provider 5xx responses.
	ErrUnavailable = errors.New("gateway: provider unavailable")
	// ErrRejected covers provider-side validation and declined payments.
	ErrRejected = errors.New("gateway: request rejected")
	// ErrAuthFailed covers credential problems that survived a re-auth attempt.
	ErrAuthFailed = errors.New("gateway: authentication failed")
)

// outboundTimeout bounds every call to a provider so a hung provider cannot
// hold a checkout open indefinitely.
const outboundTimeout = 15 * time.Second

type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

type CreatePaymentRequest struct {
	OrderID     uint
	PaymentID   uint
	Amount      float64
	Currency    string
	Description string
	Customer    CustomerInfo
}

// Session is what a successful create call yields. RedirectURL is set for
// hosted-page providers (PayThor), ClientSecret for client-side confirmation
// flows (Stripe). ProviderRef is the reference later webhooks carry.
type Session struct {
	ProviderRef  string `json:"provider_ref"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Status is a provider-side payment status normalized across adapters.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
	StatusRefunded  Status = "refunded"
	StatusUnknown   Status = "unknown"
)

type PaymentGateway interface {
	Name() string
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Session, error)
	GetStatus(ctx context.Context, providerRef string) (Status, error)
}

// Registry maps a payment method string to its configured adapter. Adapters
// are constructed once in main and passed down; no module-level state.
type Registry map[string]PaymentGateway

func (r Registry) Lookup(method string) (PaymentGateway, bool) {
	gw, ok := r[method]
	return gw, ok
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: outboundTimeout}
}
