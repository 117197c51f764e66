package paymentControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

type UpdatePaymentRequest struct {
	Action        string  `json:"action" binding:"required"` // complete | cancel | refund
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
}

var actionEvents = map[string]string{
	"complete": EventSuccess,
	"cancel":   EventCancelled,
	"refund":   EventRefunded,
}

func GetPaymentHandler(db *gorm.DB) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, payment)
	}
}

// UpdatePaymentHandler lets an operator apply the same transitions the
// webhook reconciler does, for providers whose callbacks never arrived.
func UpdatePaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		paymentID := c.Param("paymentID")
		var req UpdatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		event, ok := actionEvents[strings.ToLower(req.Action)]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid action"})
			return
		}

		var payment models.Payment
		if err := db.First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "payment not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		// Manual completion may carry the provider reference that the missing
		// webhook would have delivered.
		if req.TransactionID != "" && payment.TransactionID == nil {
			if err := db.Model(&payment).Update("transaction_id", req.TransactionID).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
		}
		if req.Reason != "" {
			if err := db.Model(&payment).Update("failure_reason", req.Reason).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
				return
			}
		}

		outcome, err := Reconcile(db, payment.ID, event)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		if !outcome.Applied {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "payment is " + string(outcome.Payment.Status) + ", " + req.Action + " not applicable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "payment": outcome.Payment, "order_status": outcome.Order.Status})
	}
}
