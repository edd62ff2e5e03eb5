package models

import "time"

// Reservation is a booked party that has not yet been converted to a ticket.
// Check-in converts it to a seated ticket exactly once.
type Reservation struct {
	ReservationID   string    `json:"reservation_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	ReservationTime time.Time `json:"reservation_time"`
	PartySize       int       `json:"party_size"`
	TableID         *string   `json:"table_id,omitempty"`
	TableLabel      *string   `json:"table_label,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	ReservationPending   = "pending"
	ReservationCheckedIn = "checked_in"
	ReservationCancelled = "cancelled"
)
