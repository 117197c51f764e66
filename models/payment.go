package models

import "time"

type PaymentStatus string
type PaymentMethod string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"

	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodStripe     PaymentMethod = "STRIPE"
	PaymentMethodPaythor    PaymentMethod = "PAYTHOR"
)

// paymentTransitions is the only source of truth for which payment status
// changes are allowed. REFUNDED is reachable from COMPLETED alone; FAILED and
// CANCELLED are dead ends.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

// CanTransition reports whether a payment may move from to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition except COMPLETED→REFUNDED is
// possible from s.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is one attempt to collect an order's total. An order may accumulate
// several FAILED attempts but at most one COMPLETED one.
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderID       uint          `gorm:"not null;index" json:"order_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `gorm:"type:VARCHAR(3);default:'TRY'" json:"currency"`
	Method        PaymentMethod `gorm:"type:VARCHAR(20)" json:"method"`
	Status        PaymentStatus `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	TransactionID *string       `gorm:"uniqueIndex" json:"transaction_id"` // provider reference, set once a session exists
	PaymentDate   *time.Time    `json:"payment_date"`
	FailureReason string        `json:"failure_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
