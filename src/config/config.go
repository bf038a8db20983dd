package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const (
	DATE_PARSE_FORMAT  = "2006-01-02"
	CLOCK_PARSE_FORMAT = "15:04"

	MIN_PARTY_SIZE = 1
	MAX_PARTY_SIZE = 20

	// Bounded timeout for a single payment gateway call, the retry budget
	// applied to transient failures, and the base wait between attempts
	// (scaled by attempt number).
	GATEWAY_TIMEOUT       = 10 * time.Second
	GATEWAY_MAX_ATTEMPTS  = 3
	GATEWAY_RETRY_BACKOFF = 500 * time.Millisecond
)

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	atoi, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return atoi
}

// SeatingCapacity is the total number of seats the availability arbiter
// hands out across overlapping reservation windows.
func SeatingCapacity() int {
	return envInt("RESTAURANT_SEATING_CAPACITY", 20)
}

// SeatingDurationMinutes is the width of a reservation window. A party is
// assumed to hold its seats for this long from its reserved time.
func SeatingDurationMinutes() int {
	return envInt("RESERVATION_DURATION_MINUTES", 90)
}

// PrepTimeMinutes is how long the kitchen is quoted per order; delivery
// orders add DeliveryBufferMinutes on top.
func PrepTimeMinutes() int {
	return envInt("ORDER_PREP_MINUTES", 20)
}

func DeliveryBufferMinutes() int {
	return envInt("ORDER_DELIVERY_BUFFER_MINUTES", 15)
}

// TaxRateBasisPoints is the sales tax rate in basis points. Default 825
// (8.25%).
func TaxRateBasisPoints() int64 {
	return int64(envInt("TAX_RATE_BASIS_POINTS", 825))
}

func SessionTTL() time.Duration {
	return time.Duration(envInt("SESSION_TTL_MINUTES", 24*60)) * time.Minute
}
