package models

import "whitepalace/src/types"

type MenuItem struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	Category   string `json:"category,omitempty"`
	PriceCents int64  `gorm:"not null;check:price_cents > 0" json:"price_cents"`
	Available  bool   `gorm:"default:true" json:"available"`

	types.Timestamps
}
