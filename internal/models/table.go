package models

// Table is a physical table in the dining room. OccupyingTicketID is set iff
// the table is occupied, and the referenced ticket is then seated; the store
// enforces the pairing inside a single critical section.
type Table struct {
	TableID           string  `json:"table_id"`
	Label             string  `json:"label"`
	Capacity          int     `json:"capacity"`
	Status            string  `json:"status"`
	OccupyingTicketID *string `json:"occupying_ticket_id,omitempty"`
	OccupyingTicket   *Ticket `json:"occupying_ticket,omitempty"`
}

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
)
