package models

import "whitepalace/src/types"

// Payment is owned by the order it settles. At most one payment per order
// may be live (pending/processing) or succeeded at a time.
type Payment struct {
	ID                    uint                `gorm:"primarykey" json:"id"`
	StripePaymentIntentID string              `gorm:"uniqueIndex;not null" json:"stripe_payment_intent_id"`
	OrderID               uint                `gorm:"index;not null" json:"order_id"`
	AmountCents           int64               `gorm:"not null;check:amount_cents > 0" json:"amount_cents"`
	Currency              string              `gorm:"default:'usd'" json:"currency"`
	Status                types.PaymentStatus `gorm:"default:'pending'" json:"status"`
	Metadata              types.JSONB         `gorm:"type:jsonb" json:"metadata,omitempty"`

	Order Order `gorm:"foreignKey:order_id" json:"-"`

	types.Timestamps
}
