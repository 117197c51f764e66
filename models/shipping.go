package models

import "time"

type ShippingStatus string

const (
	ShippingStatusPending           ShippingStatus = "PENDING"
	ShippingStatusShipped           ShippingStatus = "SHIPPED"
	ShippingStatusInTransit         ShippingStatus = "IN_TRANSIT"
	ShippingStatusDelivered         ShippingStatus = "DELIVERED"
	ShippingStatusDeliveryAttempted ShippingStatus = "DELIVERY_ATTEMPTED"
	ShippingStatusCanceled          ShippingStatus = "CANCELED"
	ShippingStatusReturned          ShippingStatus = "RETURNED"
	ShippingStatusLost              ShippingStatus = "LOST"
)

// ValidShippingStatus reports whether s is one of the known shipping statuses.
func ValidShippingStatus(s ShippingStatus) bool {
	switch s {
	case ShippingStatusPending, ShippingStatusShipped, ShippingStatusInTransit,
		ShippingStatusDelivered, ShippingStatusDeliveryAttempted,
		ShippingStatusCanceled, ShippingStatusReturned, ShippingStatusLost:
		return true
	}
	return false
}

type Shipping struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	OrderID           uint           `gorm:"not null;index" json:"order_id"`
	TrackingNumber    string         `gorm:"uniqueIndex;not null" json:"tracking_number"`
	Carrier           string         `json:"carrier"`
	Status            ShippingStatus `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	ShippingCost      float64        `json:"shipping_cost"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery"`
	ActualDelivery    *time.Time     `json:"actual_delivery"`
	LastStatusUpdate  time.Time      `json:"last_status_update"`
	CreatedAt         time.Time      `json:"created_at"`
}
