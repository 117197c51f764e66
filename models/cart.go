package models

import "time"

type Cart struct {
	CartID     uint       `gorm:"primaryKey" json:"cart_id"`
	CustomerID string     `gorm:"uniqueIndex" json:"customer_id"` // one cart per customer
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CartItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	CartID      uint    `gorm:"index" json:"cart_id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"` // snapshot taken when the item is added
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	AddedAt     time.Time
}
