package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type OrderType string

const (
	ORDER_TYPE_DINE_IN  OrderType = "dine-in"
	ORDER_TYPE_PICKUP   OrderType = "pickup"
	ORDER_TYPE_DELIVERY OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case ORDER_TYPE_DINE_IN, ORDER_TYPE_PICKUP, ORDER_TYPE_DELIVERY:
		return true
	}
	return false
}

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "pending"
	ORDER_PREPARING OrderStatus = "preparing"
	ORDER_READY     OrderStatus = "ready"
	ORDER_COMPLETED OrderStatus = "completed"
	ORDER_CANCELLED OrderStatus = "cancelled"
)

// orderTransitions encodes the full order lifecycle graph. Every status
// mutation goes through this table; there are no ad hoc status checks.
var orderTransitions = map[OrderStatus][]OrderStatus{
	ORDER_PENDING:   {ORDER_PREPARING, ORDER_CANCELLED},
	ORDER_PREPARING: {ORDER_READY, ORDER_CANCELLED},
	ORDER_READY:     {ORDER_COMPLETED, ORDER_CANCELLED},
	ORDER_COMPLETED: {},
	ORDER_CANCELLED: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_ARRIVED   ReservationStatus = "arrived"
	RESERVATION_SEATED    ReservationStatus = "seated"
	RESERVATION_COMPLETED ReservationStatus = "completed"
	RESERVATION_NO_SHOW   ReservationStatus = "no_show"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	RESERVATION_PENDING:   {RESERVATION_CONFIRMED, RESERVATION_CANCELLED},
	RESERVATION_CONFIRMED: {RESERVATION_ARRIVED, RESERVATION_NO_SHOW, RESERVATION_CANCELLED},
	RESERVATION_ARRIVED:   {RESERVATION_SEATED, RESERVATION_NO_SHOW, RESERVATION_CANCELLED},
	RESERVATION_SEATED:    {RESERVATION_COMPLETED},
	RESERVATION_COMPLETED: {},
	RESERVATION_NO_SHOW:   {},
	RESERVATION_CANCELLED: {},
}

func (s ReservationStatus) Valid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

func (s ReservationStatus) Terminal() bool {
	next, ok := reservationTransitions[s]
	return ok && len(next) == 0
}

func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, next := range reservationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Active reports whether the reservation still counts toward occupied
// seating capacity.
func (s ReservationStatus) Active() bool {
	switch s {
	case RESERVATION_PENDING, RESERVATION_CONFIRMED, RESERVATION_ARRIVED, RESERVATION_SEATED:
		return true
	}
	return false
}

// ActiveReservationStatuses is the capacity-holding subset, in the shape
// the repository layer needs for IN clauses.
var ActiveReservationStatuses = []ReservationStatus{
	RESERVATION_PENDING,
	RESERVATION_CONFIRMED,
	RESERVATION_ARRIVED,
	RESERVATION_SEATED,
}

type PaymentStatus string

const (
	PAYMENT_PENDING    PaymentStatus = "pending"
	PAYMENT_PROCESSING PaymentStatus = "processing"
	PAYMENT_SUCCEEDED  PaymentStatus = "succeeded"
	PAYMENT_FAILED     PaymentStatus = "failed"
	PAYMENT_CANCELED   PaymentStatus = "canceled"
	PAYMENT_REFUNDED   PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PAYMENT_PENDING, PAYMENT_PROCESSING, PAYMENT_SUCCEEDED, PAYMENT_FAILED, PAYMENT_CANCELED, PAYMENT_REFUNDED:
		return true
	}
	return false
}

// Live payments block creation of another intent for the same order.
func (s PaymentStatus) Live() bool {
	switch s {
	case PAYMENT_PENDING, PAYMENT_PROCESSING:
		return true
	}
	return false
}

type PrincipalKind string

const (
	PRINCIPAL_ADMIN    PrincipalKind = "admin"
	PRINCIPAL_CUSTOMER PrincipalKind = "customer"
)

// Principal is the identity a bearer token resolves to.
type Principal struct {
	Kind       PrincipalKind `json:"kind"`
	CustomerID uint          `json:"customer_id,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Name       string        `json:"name,omitempty"`
}

type OrderItemInput struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type CreateOrderRequestBody struct {
	Items           []OrderItemInput `json:"items" binding:"required"`
	OrderType       string           `json:"order_type" binding:"required"`
	CustomerPhone   string           `json:"customer_phone" binding:"required"`
	CustomerName    string           `json:"customer_name"`
	DeliveryAddress string           `json:"delivery_address"`
	SpecialRequests string           `json:"special_requests"`
}

type UpdateStatusRequestBody struct {
	Status string `json:"status" binding:"required"`
}

type AvailabilityRequestBody struct {
	Date      string `json:"date" binding:"required,bookabledate"`
	Time      string `json:"time" binding:"required,clocktime"`
	PartySize int    `json:"party_size" binding:"required"`
}

type CreateReservationRequestBody struct {
	Date            string `json:"date" binding:"required,bookabledate"`
	Time            string `json:"time" binding:"required,clocktime"`
	PartySize       int    `json:"party_size" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerPhone   string `json:"customer_phone" binding:"required"`
	CustomerEmail   string `json:"customer_email"`
	SpecialRequests string `json:"special_requests"`
}

type CreateIntentRequestBody struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Currency    string `json:"currency"`
}

type AdminLoginRequestBody struct {
	Password string `json:"password" binding:"required"`
}

type RegisterCustomerRequestBody struct {
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type CustomerLoginRequestBody struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}
