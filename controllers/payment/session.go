package paymentControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/gateway"
	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

// CreateSession asks the provider for a payment session and binds the
// returned reference to the payment row. The payment must still be PENDING;
// on provider failure it is swapped to FAILED with the reason recorded, and
// the order is left alone so a fresh attempt can be made later.
func CreateSession(ctx context.Context, db *gorm.DB, gw gateway.PaymentGateway, payment *models.Payment, order models.Order, customer models.Customer) (*gateway.Session, error) {
	session, err := gw.CreatePayment(ctx, gateway.CreatePaymentRequest{
		OrderID:     order.ID,
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Description: fmt.Sprintf("Order #%d", order.ID),
		Customer: gateway.CustomerInfo{
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		},
	})
	if err != nil {
		db.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"failure_reason": err.Error(),
			})
		return nil, err
	}

	res := db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentStatusProcessing,
			"transaction_id": session.ProviderRef,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("payment %d is no longer pending", payment.ID)
	}

	payment.Status = models.PaymentStatusProcessing
	payment.TransactionID = &session.ProviderRef
	return session, nil
}

// CreateSessionHandler (re)opens a gateway session for a payment. A PENDING
// payment gets its first session; a FAILED one gets a fresh attempt row, so
// the failed history stays on the order.
func CreateSessionHandler(db *gorm.DB, gateways gateway.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		paymentID := c.Param("paymentID")

		var payment models.Payment
		if err := db.First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		var order models.Order
		if err := db.Preload("Customer").First(&order, "id = ?", payment.OrderID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		switch payment.Status {
		case models.PaymentStatusPending:
			// first session for this attempt
		case models.PaymentStatusFailed:
			retry := models.Payment{
				OrderID:  payment.OrderID,
				Amount:   payment.Amount,
				Currency: payment.Currency,
				Method:   payment.Method,
				Status:   models.PaymentStatusPending,
			}
			if err := db.Create(&retry).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
			payment = retry
		default:
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "payment is " + string(payment.Status)})
			return
		}

		gw, ok := gateways.Lookup(gatewayKeyForMethod(payment.Method))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no gateway for method " + string(payment.Method)})
			return
		}

		session, err := CreateSession(c.Request.Context(), db, gw, &payment, order, order.Customer)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, gateway.ErrRejected) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"success": false, "error": err.Error(), "payment_id": payment.ID})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"payment_id": payment.ID, "payment": session})
	}
}

func gatewayKeyForMethod(method models.PaymentMethod) string {
	if method == models.PaymentMethodPaythor {
		return "paythor"
	}
	return "stripe"
}
