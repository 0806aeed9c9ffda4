package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCustomer struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Order struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Customer    OrderCustomer   `json:"customer"`
	Type        string          `json:"type"`   // "pickup" or "delivery"
	Status      string          `json:"status"` // e.g., "pending", "accepted", "ready", "completed", "cancelled"
	Items       []CartLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
