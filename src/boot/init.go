package boot

import (
	"log"
	"time"

	"whitepalace/src/common"
	"whitepalace/src/config"
	"whitepalace/src/db"
	"whitepalace/src/models"
	"whitepalace/src/types"
	"whitepalace/src/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	dbi := db.GetDb()

	err := dbi.AutoMigrate(
		&models.MenuItem{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Reservation{},
		&models.Payment{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	seedMenu(dbi)
	return dbi
}

// seedMenu gives a fresh database something to sell. Menu content is
// otherwise managed outside this service.
func seedMenu(dbi *gorm.DB) {
	var count int64
	if err := dbi.Model(&models.MenuItem{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	items := []models.MenuItem{
		{Name: "Classic Burger", Category: "burgers", PriceCents: 595, Available: true},
		{Name: "Double Cheeseburger", Category: "burgers", PriceCents: 795, Available: true},
		{Name: "Gyros Plate", Category: "entrees", PriceCents: 1095, Available: true},
		{Name: "Greek Salad", Category: "salads", PriceCents: 845, Available: true},
		{Name: "Breakfast Skillet", Category: "breakfast", PriceCents: 925, Available: true},
		{Name: "Chicken Noodle Soup", Category: "soups", PriceCents: 495, Available: true},
		{Name: "French Fries", Category: "sides", PriceCents: 345, Available: true},
		{Name: "Rice Pudding", Category: "desserts", PriceCents: 395, Available: true},
		{Name: "Fountain Drink", Category: "beverages", PriceCents: 245, Available: true},
	}
	if err := dbi.Create(&items).Error; err != nil {
		log.Printf("Error seeding menu: %s\n", err.Error())
	}
}

// InitScheduler starts the no-show sweeper: confirmed reservations whose
// seating window has fully elapsed are flagged no_show through the normal
// transition path, so the lifecycle graph still gates the write.
func InitScheduler() gocron.Scheduler {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error creating scheduler: %s\n", err.Error())
		return nil
	}
	_, err = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(SweepNoShows),
	)
	if err != nil {
		log.Printf("Error scheduling no-show sweeper: %s\n", err.Error())
		return nil
	}
	sched.Start()
	return sched
}

func SweepNoShows() {
	dbi := db.GetDb()
	today := time.Now().Format(config.DATE_PARSE_FORMAT)
	var overdue []models.Reservation
	if err := dbi.
		Model(&models.Reservation{}).
		Where("reservation_date <= ? AND status = ?", today, types.RESERVATION_CONFIRMED).
		Find(&overdue).
		Error; err != nil {
		log.Printf("[sweeper] Error listing reservations: %s\n", err.Error())
		return
	}
	now := time.Now()
	duration := config.SeatingDurationMinutes()
	for _, r := range overdue {
		end, err := utils.ReservationEnd(r.ReservationDate, r.ReservationTime, duration)
		if err != nil || now.Before(end) {
			continue
		}
		if _, err := common.TransitionReservation(r.ReservationNumber, types.RESERVATION_NO_SHOW); err != nil {
			// A concurrent arrival or cancellation beat the sweep. Fine.
			log.Printf("[sweeper] Skipping reservation %s: %s\n", r.ReservationNumber, err.Error())
		}
	}
}
