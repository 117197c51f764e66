package paymentControllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/middleware"
	"github.com/mertarslna/b2c-ecommerce-sub000/models"
	"github.com/mertarslna/b2c-ecommerce-sub000/notification"
)

// OrderBroadcast pushes an order update to live listeners (websocket feed).
type OrderBroadcast func(order models.Order)

// providerEvent is a provider payload reduced to what the reconciler needs.
type providerEvent struct {
	kind string // one of the Event* constants, or "" for unrecognized types
	ref  string // provider transaction reference
}

type stripeWebhook struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentIntent string `json:"payment_intent"`
		} `json:"object"`
	} `json:"data"`
}

type paythorWebhook struct {
	Event string `json:"event"`
	Data  struct {
		PaymentToken string `json:"payment_token"`
	} `json:"data"`
}

var stripeEventKinds = map[string]string{
	"payment_intent.succeeded":      EventSuccess,
	"payment_intent.payment_failed": EventFailed,
	"payment_intent.canceled":       EventCancelled,
	"payment_intent.processing":     EventPending,
	"charge.refunded":               EventRefunded,
}

var paythorEventKinds = map[string]string{
	"payment.success":   EventSuccess,
	"payment.failed":    EventFailed,
	"payment.cancelled": EventCancelled,
	"payment.refunded":  EventRefunded,
	"payment.pending":   EventPending,
}

func parseStripeEvent(raw []byte) (providerEvent, error) {
	var hook stripeWebhook
	if err := json.Unmarshal(raw, &hook); err != nil {
		return providerEvent{}, err
	}
	ev := providerEvent{kind: stripeEventKinds[hook.Type], ref: hook.Data.Object.ID}
	// Refund events carry a charge object; the payment is keyed by its intent.
	if hook.Data.Object.PaymentIntent != "" {
		ev.ref = hook.Data.Object.PaymentIntent
	}
	return ev, nil
}

func parsePaythorEvent(raw []byte) (providerEvent, error) {
	var hook paythorWebhook
	if err := json.Unmarshal(raw, &hook); err != nil {
		return providerEvent{}, err
	}
	return providerEvent{kind: paythorEventKinds[hook.Event], ref: hook.Data.PaymentToken}, nil
}

// WebhookHandler reconciles asynchronous provider callbacks. The signature
// middleware has already authenticated the body. Unrecognized event types are
// acknowledged without touching state so the provider does not retry them
// forever; unknown references are 404 so the provider retries until the
// checkout transaction is visible.
func WebhookHandler(db *gorm.DB, notifier notification.Sender, broadcast OrderBroadcast) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := c.Get(middleware.RawBodyKey)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "webhook body missing"})
			return
		}

		provider := strings.ToLower(c.Param("provider"))
		var (
			event providerEvent
			err   error
		)
		switch provider {
		case "stripe":
			event, err = parseStripeEvent(raw.([]byte))
		case "paythor":
			event, err = parsePaythorEvent(raw.([]byte))
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown provider"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "malformed payload"})
			return
		}

		if event.kind == "" {
			// Recognized provider, unrecognized type: acknowledge and move on.
			c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
			return
		}
		if event.ref == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing transaction reference"})
			return
		}

		// Unsolicited webhooks never create payment rows.
		var payment models.Payment
		if err := db.First(&payment, "transaction_id = ?", event.ref).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		outcome, err := Reconcile(db, payment.ID, event.kind)
		if err != nil {
			log.Printf("webhook %s/%s: reconcile payment %d failed: %v", provider, event.kind, payment.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reconciliation failed"})
			return
		}

		if outcome.Applied {
			if event.kind == EventSuccess && notifier != nil {
				notification.Fire(notifier, outcome.Order.Customer.Email, outcome.Order)
			}
			if broadcast != nil {
				broadcast(outcome.Order)
			}
		}

		c.JSON(http.StatusOK, gin.H{"received": true, "handled": outcome.Applied})
	}
}
