package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

// TrackingEvent is one stage of the customer-facing shipment timeline.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	Completed   bool      `json:"completed"`
}

// shippingStage gives each shipping status a rank along the happy path, used
// to decide which synthetic stages are already behind us.
var shippingStage = map[models.ShippingStatus]int{
	models.ShippingStatusPending:           0,
	models.ShippingStatusShipped:           1,
	models.ShippingStatusInTransit:         2,
	models.ShippingStatusDeliveryAttempted: 2,
	models.ShippingStatusDelivered:         3,
}

// BuildTimeline derives a human-readable shipment timeline from order and
// shipping state. It is a pure projection: when the carrier supplies no
// granular events, stage timestamps are synthesized with fixed offsets from
// the order date. The mapping here is the canonical status→stage view; other
// components must not contradict it.
func BuildTimeline(order models.Order, shipping models.Shipping) []TrackingEvent {
	placed := order.OrderDate
	if placed.IsZero() {
		placed = order.CreatedAt
	}

	events := []TrackingEvent{{
		Status:      "ORDER_PLACED",
		Description: "Order received",
		Location:    "Online store",
		Timestamp:   placed,
		Completed:   true,
	}}

	// Cancelled and lost shipments end the timeline with a terminal entry.
	switch shipping.Status {
	case models.ShippingStatusCanceled:
		return append(events, TrackingEvent{
			Status:      string(models.ShippingStatusCanceled),
			Description: "Order cancelled",
			Timestamp:   shipping.LastStatusUpdate,
			Completed:   true,
		})
	case models.ShippingStatusReturned:
		return append(events, TrackingEvent{
			Status:      string(models.ShippingStatusReturned),
			Description: "Shipment returned to sender",
			Location:    shipping.Carrier,
			Timestamp:   shipping.LastStatusUpdate,
			Completed:   true,
		})
	case models.ShippingStatusLost:
		return append(events, TrackingEvent{
			Status:      string(models.ShippingStatusLost),
			Description: "Shipment reported lost",
			Location:    shipping.Carrier,
			Timestamp:   shipping.LastStatusUpdate,
			Completed:   true,
		})
	}

	stage := shippingStage[shipping.Status]
	paymentDone := order.Status != models.OrderStatusPending && order.Status != models.OrderStatusCancelled

	events = append(events, TrackingEvent{
		Status:      string(models.OrderStatusProcessing),
		Description: "Payment confirmed, preparing shipment",
		Location:    "Fulfilment center",
		Timestamp:   placed.Add(6 * time.Hour),
		Completed:   paymentDone,
	})

	shippedAt := shipping.LastStatusUpdate
	if stage < 1 || shippedAt.IsZero() {
		shippedAt = placed.Add(24 * time.Hour)
	}
	events = append(events, TrackingEvent{
		Status:      string(models.ShippingStatusShipped),
		Description: "Handed to " + shipping.Carrier,
		Location:    "Fulfilment center",
		Timestamp:   shippedAt,
		Completed:   stage >= 1,
	})

	events = append(events, TrackingEvent{
		Status:      string(models.ShippingStatusInTransit),
		Description: "On the way",
		Location:    shipping.Carrier + " network",
		Timestamp:   shippedAt.Add(24 * time.Hour),
		Completed:   stage >= 2,
	})

	if shipping.Status == models.ShippingStatusDeliveryAttempted {
		events = append(events, TrackingEvent{
			Status:      string(models.ShippingStatusDeliveryAttempted),
			Description: "Delivery attempted, will retry",
			Location:    "Delivery address",
			Timestamp:   shipping.LastStatusUpdate,
			Completed:   true,
		})
	}

	deliveredAt := placed.AddDate(0, 0, 5)
	if shipping.EstimatedDelivery != nil {
		deliveredAt = *shipping.EstimatedDelivery
	}
	if shipping.ActualDelivery != nil {
		deliveredAt = *shipping.ActualDelivery
	}
	events = append(events, TrackingEvent{
		Status:      string(models.ShippingStatusDelivered),
		Description: "Delivered",
		Location:    "Delivery address",
		Timestamp:   deliveredAt,
		Completed:   stage >= 3,
	})

	return events
}

// GetTrackingHandler serves the derived timeline for a tracking number.
func GetTrackingHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		trackingNumber := c.Param("trackingNumber")

		var shipping models.Shipping
		if err := db.First(&shipping, "tracking_number = ?", trackingNumber).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "tracking number not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		var order models.Order
		if err := db.Preload("Items").First(&order, "id = ?", shipping.OrderID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"tracking_number":    shipping.TrackingNumber,
			"carrier":            shipping.Carrier,
			"order_id":           order.ID,
			"order_status":       order.Status,
			"shipping_status":    shipping.Status,
			"estimated_delivery": shipping.EstimatedDelivery,
			"actual_delivery":    shipping.ActualDelivery,
			"timeline":           BuildTimeline(order, shipping),
		})
	}
}
