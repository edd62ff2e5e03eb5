package models

import "time"

// Ticket is a numbered claim on service issued to a walk-in party. Numbers
// restart at 1 each business day and are never reused within a day.
type Ticket struct {
	TicketID    string    `json:"ticket_id"`
	Number      int       `json:"number"`
	PartySize   int       `json:"party_size"`
	TotalPrice  int64     `json:"total_price"`
	Status      string    `json:"status"`
	BusinessDay string    `json:"business_day"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusSeated    = "seated"
	StatusCancelled = "cancelled"
)
