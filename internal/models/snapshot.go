package models

// TodayView is the staff-terminal view of the current business day.
// Current is the most recently updated non-waiting ticket (the party being
// served or just resolved), nil when nothing has been called yet.
type TodayView struct {
	Current    *Ticket  `json:"current"`
	Waiting    []Ticket `json:"waiting"`
	TotalToday int      `json:"total_today"`
}

// Snapshot is the full aggregate state pushed to every connected client after
// each mutation. Clients replace their local view wholesale on receipt.
type Snapshot struct {
	Current             *Ticket       `json:"current"`
	Waiting             []Ticket      `json:"waiting"`
	TotalToday          int           `json:"total_today"`
	Tables              []Table       `json:"tables"`
	PendingReservations []Reservation `json:"pending_reservations"`
}
