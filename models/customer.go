package models

import "time"

type Customer struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	Email     string  `gorm:"unique;not null" json:"email"`
	Phone     string  `json:"phone"`
	Name      string  `json:"name"`
	Cart      Cart    `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"cart"`
	Orders    []Order `gorm:"foreignKey:CustomerID" json:"orders"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address rows are written once at checkout and referenced by orders.
type Address struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID string `gorm:"index" json:"customer_id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	City       string `json:"city"`
	District   string `json:"district"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	CreatedAt  time.Time
}
