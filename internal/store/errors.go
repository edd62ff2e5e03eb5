package store

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNoTicket            = errors.New("no ticket waiting")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrDuplicateLabel      = errors.New("table label already in use")
	ErrTableOccupied       = errors.New("table is occupied")
	ErrTicketAlreadySeated = errors.New("ticket occupies another table")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidState        = errors.New("reservation state does not allow this action")
	ErrSessionNotFound     = errors.New("session not found")
)
