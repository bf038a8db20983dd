package models

import "whitepalace/src/types"

type Reservation struct {
	ID                uint                    `gorm:"primarykey" json:"id"`
	ReservationNumber string                  `gorm:"uniqueIndex;not null" json:"reservation_number"`
	CustomerName      string                  `gorm:"not null" json:"customer_name"`
	CustomerPhone     string                  `gorm:"index;not null" json:"customer_phone"`
	CustomerEmail     *string                 `json:"customer_email,omitempty"`
	PartySize         int                     `gorm:"not null;check:party_size >= 1 AND party_size <= 20" json:"party_size"`
	ReservationDate   string                  `gorm:"index;not null" json:"reservation_date"`
	ReservationTime   string                  `gorm:"not null" json:"reservation_time"`
	Status            types.ReservationStatus `gorm:"default:'pending'" json:"status"`
	SpecialRequests   *string                 `json:"special_requests,omitempty"`

	types.Timestamps
}
