package store

import (
	"context"
	"time"

	"dinequeue/internal/models"
)

type IssueTicketInput struct {
	PartySize int
	UnitPrice int64
	CreatedAt time.Time
}

type CreateReservationInput struct {
	CustomerName    string
	CustomerPhone   string
	ReservationTime time.Time
	PartySize       int
	TableID         string
	CreatedAt       time.Time
}

type CheckInInput struct {
	ReservationID string
	UnitPrice     int64
	CheckedInAt   time.Time
}

type CloseShiftInput struct {
	ClosedBy    string
	CashCounted int64
	Note        string
	ClosedAt    time.Time
}

// TicketStore owns the ticket lifecycle: issuance (and with it the per-day
// number sequence), FSM-checked status transitions, and the today view.
type TicketStore interface {
	IssueTicket(ctx context.Context, input IssueTicketInput) (models.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (models.Ticket, error)
	CallNext(ctx context.Context, calledAt time.Time) (models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID, newStatus string, occurredAt time.Time) (models.Ticket, error)
	TodayView(ctx context.Context) (models.TodayView, error)
	ResetWaiting(ctx context.Context, occurredAt time.Time) (int, error)
}

// TableRegistry owns table occupancy. AssignTable is the only writer of the
// table-to-ticket link and forces the paired ticket to seated in the same
// critical section, so the cross-entity invariant cannot be broken elsewhere.
type TableRegistry interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	CreateTable(ctx context.Context, label string, capacity int) (models.Table, error)
	AssignTable(ctx context.Context, tableID, ticketID string, occurredAt time.Time) (models.Table, error)
	DeleteTable(ctx context.Context, tableID string) error
}

// ReservationBridge converts a pending reservation into a seated ticket (plus
// table assignment when one is named) as a single all-or-nothing unit.
type ReservationBridge interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (models.Reservation, error)
	ListPendingReservations(ctx context.Context) ([]models.Reservation, error)
	CheckInReservation(ctx context.Context, input CheckInInput) (models.Ticket, error)
	CancelReservation(ctx context.Context, reservationID string) (models.Reservation, error)
}

// ShiftRecorder snapshots settled revenue for the elapsed business day. It
// never mutates ticket or table state.
type ShiftRecorder interface {
	CloseShift(ctx context.Context, input CloseShiftInput) (models.ShiftRecord, error)
	ListShifts(ctx context.Context, limit int) ([]models.ShiftRecord, error)
}

type Session struct {
	SessionID string
	UserID    string
	Name      string
	Role      string
	ExpiresAt time.Time
}

const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// SessionStore resolves pre-issued staff sessions. Authentication itself
// happens upstream; this only looks identities up.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (Session, error)
}

type Store interface {
	TicketStore
	TableRegistry
	ReservationBridge
	ShiftRecorder
	SessionStore

	// Snapshot returns the aggregate view published to every subscriber
	// after a mutation.
	Snapshot(ctx context.Context) (models.Snapshot, error)

	// UnitPrice returns the current price per head from settings; the value
	// is resolved at issue/check-in time and frozen into the ticket.
	UnitPrice(ctx context.Context) (int64, error)
}
