package models

import "whitepalace/src/types"

// Customer is a registered caller. PasswordHash is opaque to the engine;
// producing and verifying it belongs to the credential collaborator.
type Customer struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Phone        string `gorm:"uniqueIndex;not null" json:"phone"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`

	types.Timestamps
}
