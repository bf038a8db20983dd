package common

import (
	"log"
	"strconv"

	"whitepalace/src/config"
	"whitepalace/src/db"
	"whitepalace/src/models"
	"whitepalace/src/types"
	"whitepalace/src/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Availability struct {
	Available      bool   `json:"available"`
	RemainingSeats int    `json:"remaining_seats"`
	Reason         string `json:"reason,omitempty"`
}

// WindowsOverlap reports whether two seating windows of the given width
// collide. The width applies symmetrically to both the existing and the
// requested reservation: parties seated less than one window apart share
// the room.
func WindowsOverlap(aMinutes, bMinutes, durationMinutes int) bool {
	diff := aMinutes - bMinutes
	if diff < 0 {
		diff = -diff
	}
	return diff < durationMinutes
}

func validateReservationSlot(date, clock string, partySize int) (string, int, error) {
	if partySize < config.MIN_PARTY_SIZE || partySize > config.MAX_PARTY_SIZE {
		return "", 0, types.NewValidationError("party size must be between %d and %d", config.MIN_PARTY_SIZE, config.MAX_PARTY_SIZE)
	}
	normalized, err := utils.ParseDate(date)
	if err != nil {
		return "", 0, types.NewValidationError("invalid reservation date %q", date)
	}
	minutes, err := utils.ParseClock(clock)
	if err != nil {
		return "", 0, types.NewValidationError("invalid reservation time %q", clock)
	}
	return normalized, minutes, nil
}

// occupiedSeats sums the party sizes of active reservations whose seating
// window overlaps the requested time. With forUpdate the matching rows are
// locked so a concurrent status transition cannot shift the sum mid-count.
func occupiedSeats(tx *gorm.DB, date string, requestedMinutes int, forUpdate bool) (int, error) {
	query := tx.
		Model(&models.Reservation{}).
		Where("reservation_date = ? AND status IN ?", date, types.ActiveReservationStatuses)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var active []models.Reservation
	if err := query.Find(&active).Error; err != nil {
		return 0, err
	}
	duration := config.SeatingDurationMinutes()
	sum := 0
	for _, r := range active {
		minutes, err := utils.ParseClock(r.ReservationTime)
		if err != nil {
			log.Printf("[availability] Skipping reservation %s with bad time %q\n", r.ReservationNumber, r.ReservationTime)
			continue
		}
		if WindowsOverlap(minutes, requestedMinutes, duration) {
			sum += r.PartySize
		}
	}
	return sum, nil
}

// CheckAvailability is advisory only: it takes no locks and mutates
// nothing. The booking path re-verifies under lock, so a stale answer here
// can never oversell the room.
func CheckAvailability(date, clock string, partySize int) (*Availability, error) {
	normalized, minutes, err := validateReservationSlot(date, clock, partySize)
	if err != nil {
		return nil, err
	}
	dbi := db.GetDb()
	sum, err := occupiedSeats(dbi, normalized, minutes, false)
	if err != nil {
		return nil, err
	}
	capacity := config.SeatingCapacity()
	remaining := capacity - sum
	if remaining < 0 {
		remaining = 0
	}
	if sum+partySize > capacity {
		return &Availability{
			Available:      false,
			RemainingSeats: remaining,
			Reason:         "not enough seats available in that time window",
		}, nil
	}
	return &Availability{Available: true, RemainingSeats: remaining}, nil
}

// CreateReservation re-checks availability and inserts as one atomic unit.
// A separate check-then-insert sequence races: two requests could both see
// free capacity and both book. Row locks alone cannot close that window
// either: two bookings into an empty time slot find no rows to lock, and
// under READ COMMITTED a blocked FOR UPDATE never sees the winner's freshly
// inserted row. So every booking first takes a per-date advisory lock; the
// re-sum then runs strictly after any concurrent booking on the same date
// has committed or rolled back.
func CreateReservation(params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	normalized, minutes, err := validateReservationSlot(params.Date, params.Time, params.PartySize)
	if err != nil {
		return nil, err
	}
	phone := utils.CleanPhoneNumber(params.CustomerPhone)
	if phone == "" {
		return nil, types.NewValidationError("customer phone is required")
	}

	var reservation models.Reservation
	dbi := db.GetDb()
	err = dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", normalized).Error; err != nil {
			return err
		}
		sum, err := occupiedSeats(tx, normalized, minutes, true)
		if err != nil {
			return err
		}
		capacity := config.SeatingCapacity()
		if sum+params.PartySize > capacity {
			remaining := capacity - sum
			if remaining < 0 {
				remaining = 0
			}
			return types.NewConflictError("not enough seats available in that time window").
				WithContext(types.JSONB{"remaining_seats": remaining})
		}

		var email *string
		if params.CustomerEmail != "" {
			email = &params.CustomerEmail
		}
		var notes *string
		if params.SpecialRequests != "" {
			notes = &params.SpecialRequests
		}
		reservation = models.Reservation{
			ReservationNumber: utils.GenerateReservationNumber(),
			CustomerName:      params.CustomerName,
			CustomerPhone:     phone,
			CustomerEmail:     email,
			PartySize:         params.PartySize,
			ReservationDate:   normalized,
			ReservationTime:   params.Time,
			Status:            types.RESERVATION_PENDING,
			SpecialRequests:   notes,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			log.Printf("Error creating reservation: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// reservationByIDOrNumber scopes a query to one reservation addressed by
// numeric id or by its RES- number, mirroring order lookup.
func reservationByIDOrNumber(tx *gorm.DB, idOrNumber string) *gorm.DB {
	query := tx.Model(&models.Reservation{})
	if id, err := strconv.ParseUint(idOrNumber, 10, 64); err == nil {
		return query.Where("id = ?", uint(id))
	}
	return query.Where("reservation_number = ?", idOrNumber)
}

// TransitionReservation enforces the reservation graph with the same
// compare-and-swap discipline as orders.
func TransitionReservation(idOrNumber string, target types.ReservationStatus) (*models.Reservation, error) {
	if !target.Valid() {
		return nil, types.NewValidationError("invalid reservation status %q", target)
	}
	var reservation models.Reservation
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := reservationByIDOrNumber(tx, idOrNumber).
			First(&reservation).
			Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NewNotFoundError("reservation %s not found", idOrNumber)
			}
			return err
		}
		if reservation.Status == target {
			return nil
		}
		if !reservation.Status.CanTransitionTo(target) {
			return types.NewConflictError("invalid transition from %s to %s", reservation.Status, target)
		}
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status = ?", reservation.ID, reservation.Status).
			Update("status", target)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("reservation %s was modified concurrently, retry with fresh state", idOrNumber)
		}
		reservation.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetReservation looks a reservation up by numeric id or by its RES- number.
func GetReservation(idOrNumber string) (*models.Reservation, error) {
	var reservation models.Reservation
	dbi := db.GetDb()
	if err := reservationByIDOrNumber(dbi, idOrNumber).
		First(&reservation).
		Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewNotFoundError("reservation %s not found", idOrNumber)
		}
		return nil, err
	}
	return &reservation, nil
}

// ListReservations is the host-stand queue: all reservations, optionally
// narrowed to one date and one status.
func ListReservations(date string, status types.ReservationStatus) ([]models.Reservation, error) {
	dbi := db.GetDb()
	query := dbi.Model(&models.Reservation{})
	if date != "" {
		normalized, err := utils.ParseDate(date)
		if err != nil {
			return nil, types.NewValidationError("invalid date %q", date)
		}
		query = query.Where("reservation_date = ?", normalized)
	}
	if status != "" {
		if !status.Valid() {
			return nil, types.NewValidationError("invalid reservation status %q", status)
		}
		query = query.Where("status = ?", status)
	}
	var reservations []models.Reservation
	if err := query.
		Order("reservation_date ASC, reservation_time ASC").
		Limit(200).
		Find(&reservations).
		Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func ListReservationsByPhone(phone string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	dbi := db.GetDb()
	if err := dbi.
		Model(&models.Reservation{}).
		Where("customer_phone = ?", utils.CleanPhoneNumber(phone)).
		Order("reservation_date DESC, reservation_time DESC").
		Limit(100).
		Find(&reservations).
		Error; err != nil {
		return nil, err
	}
	return reservations, nil
}
