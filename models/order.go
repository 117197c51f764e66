package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"    // placed, payment not yet confirmed
	OrderStatusProcessing OrderStatus = "PROCESSING" // payment confirmed, awaiting fulfilment
	OrderStatusShipped    OrderStatus = "SHIPPED"    // handed to carrier
	OrderStatusDelivered  OrderStatus = "DELIVERED"  // customer received the items
	OrderStatusCancelled  OrderStatus = "CANCELLED"  // cancelled or refunded
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	CustomerID        string      `gorm:"not null;index" json:"customer_id"`
	Customer          Customer    `gorm:"foreignKey:CustomerID" json:"-"`
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments          []Payment   `gorm:"foreignKey:OrderID" json:"payments"`
	Shipping          *Shipping   `gorm:"foreignKey:OrderID" json:"shipping"`
	OrderDate         time.Time   `json:"order_date"`
	Status            OrderStatus `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	TotalAmount       float64     `json:"total_amount"`
	ShippingAddressID uint        `json:"shipping_address_id"`
	BillingAddressID  uint        `json:"billing_address_id"`
	ShippingAddress   Address     `gorm:"foreignKey:ShippingAddressID" json:"shipping_address"`
	BillingAddress    Address     `gorm:"foreignKey:BillingAddressID" json:"billing_address"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is immutable after creation except for DeliveredAt.
type OrderItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OrderID     uint       `gorm:"index" json:"order_id"`
	ProductID   uint       `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	TotalPrice  float64    `json:"total_price"`
	DeliveredAt *time.Time `json:"delivered_at"`
}
