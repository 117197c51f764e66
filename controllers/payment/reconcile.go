package paymentControllers

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

// Events a provider callback (or a manual operator action) can map to.
const (
	EventSuccess   = "success"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
	EventRefunded  = "refunded"
	EventPending   = "pending"
)

var eventTargets = map[string]models.PaymentStatus{
	EventSuccess:   models.PaymentStatusCompleted,
	EventFailed:    models.PaymentStatusFailed,
	EventCancelled: models.PaymentStatusCancelled,
	EventRefunded:  models.PaymentStatusRefunded,
	EventPending:   models.PaymentStatusProcessing,
}

// ErrUnknownEvent is returned for events outside the mapping above.
var ErrUnknownEvent = errors.New("payment: unknown event")

// Outcome reports what a reconciliation pass did. Applied is false for
// duplicate or out-of-order deliveries, which are deliberate no-ops.
type Outcome struct {
	Applied bool
	Payment models.Payment
	Order   models.Order
}

// Reconcile applies one provider event to a payment and its order. Delivery
// is at-least-once, so every state change is a compare-and-swap against the
// status read under a row lock: re-delivering the same event finds the target
// state already reached and does nothing. Stock restoration runs inside the
// same transaction and only when the swap applied, so a duplicate refund can
// never double-increment stock.
func Reconcile(db *gorm.DB, paymentID uint, event string) (*Outcome, error) {
	target, ok := eventTargets[event]
	if !ok {
		return nil, ErrUnknownEvent
	}

	var out Outcome
	err := db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", paymentID).Error; err != nil {
			return err
		}
		out.Payment = payment

		if !payment.Status.CanTransition(target) {
			return nil // duplicate delivery or illegal transition
		}

		// One COMPLETED payment per order: a success for a second attempt is
		// ignored once any sibling attempt has completed.
		if target == models.PaymentStatusCompleted {
			var completed int64
			if err := tx.Model(&models.Payment{}).
				Where("order_id = ? AND status = ? AND id <> ?",
					payment.OrderID, models.PaymentStatusCompleted, payment.ID).
				Count(&completed).Error; err != nil {
				return err
			}
			if completed > 0 {
				return nil
			}
		}

		updates := map[string]interface{}{"status": target}
		if target == models.PaymentStatusCompleted {
			updates["payment_date"] = time.Now()
		}
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, payment.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		out.Applied = true
		payment.Status = target
		out.Payment = payment

		switch target {
		case models.PaymentStatusCompleted:
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", payment.OrderID, models.OrderStatusPending).
				Update("status", models.OrderStatusProcessing).Error; err != nil {
				return err
			}
		case models.PaymentStatusCancelled, models.PaymentStatusRefunded:
			if err := cancelOrder(tx, payment.OrderID); err != nil {
				return err
			}
		}

		return tx.Preload("Items").Preload("Customer").
			First(&out.Order, "id = ?", payment.OrderID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// cancelOrder moves the order and its shipment to their cancelled states and
// puts every ordered unit back into stock.
func cancelOrder(tx *gorm.DB, orderID uint) error {
	if err := tx.Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID,
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}).
		Update("status", models.OrderStatusCancelled).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Shipping{}).
		Where("order_id = ? AND status = ?", orderID, models.ShippingStatusPending).
		Updates(map[string]interface{}{
			"status":             models.ShippingStatusCanceled,
			"last_status_update": time.Now(),
		}).Error; err != nil {
		return err
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // product removed since the order was placed
			}
			return err
		}
		product.Stock += item.Quantity
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
	}
	return nil
}
