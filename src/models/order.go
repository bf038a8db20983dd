package models

import (
	"time"

	"whitepalace/src/types"
)

type Order struct {
	ID               uint              `gorm:"primarykey" json:"id"`
	OrderNumber      string            `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerPhone    string            `gorm:"index;not null" json:"customer_phone"`
	CustomerID       *uint             `json:"customer_id,omitempty"`
	CustomerName     string            `json:"customer_name,omitempty"`
	OrderType        types.OrderType   `gorm:"not null" json:"order_type"`
	DeliveryAddress  *string           `json:"delivery_address,omitempty"`
	SpecialRequests  *string           `json:"special_requests,omitempty"`
	SubtotalCents    int64             `gorm:"not null" json:"subtotal_cents"`
	TaxCents         int64             `gorm:"not null" json:"tax_cents"`
	TotalCents       int64             `gorm:"not null;check:total_cents > 0" json:"total_cents"`
	Status           types.OrderStatus `gorm:"default:'pending'" json:"status"`
	EstimatedReadyAt *time.Time        `json:"estimated_ready_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`

	Items    []OrderItem `gorm:"foreignKey:order_id" json:"items,omitempty"`
	Customer *Customer   `gorm:"foreignKey:customer_id" json:"-"`

	types.Timestamps
}

// OrderItem snapshots the menu item's name and price at order time. Later
// menu price changes never touch an existing order's totals.
type OrderItem struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	OrderID    uint   `gorm:"index;not null" json:"order_id"`
	MenuItemID uint   `gorm:"not null" json:"menu_item_id"`
	Name       string `gorm:"not null" json:"name"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
	Quantity   int    `gorm:"not null;check:quantity >= 1" json:"quantity"`

	types.Timestamps
}
