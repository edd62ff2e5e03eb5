// Package memory implements store.Store with a single mutex over all venue
// state. It backs unit tests and DSN-less deployments, and is the reference
// implementation of the two critical sections the design hinges on: per-day
// ticket numbering and the ticket and table pairing in AssignTable. Both execute
// entirely inside one lock hold; there is deliberately no read-then-write
// path that could interleave.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dinequeue/internal/businessday"
	"dinequeue/internal/models"
	"dinequeue/internal/store"
)

type Store struct {
	clock     *businessday.Clock
	unitPrice int64

	mu           sync.Mutex
	tickets      map[string]*models.Ticket
	tables       map[string]*models.Table
	reservations map[string]*models.Reservation
	shifts       []models.ShiftRecord
	sessions     map[string]store.Session

	// lastNumber holds the highest ticket number issued per business-day
	// key. Allocation is increment-under-lock, never read-max-then-write.
	lastNumber map[string]int
}

type Options struct {
	// UnitPrice is the settings value "unit_price_per_head" for this
	// in-memory deployment.
	UnitPrice int64
	Sessions  []store.Session
}

func NewStore(clock *businessday.Clock, options Options) *Store {
	sessions := make(map[string]store.Session, len(options.Sessions))
	for _, session := range options.Sessions {
		sessions[session.SessionID] = session
	}
	return &Store{
		clock:        clock,
		unitPrice:    options.UnitPrice,
		tickets:      make(map[string]*models.Ticket),
		tables:       make(map[string]*models.Table),
		reservations: make(map[string]*models.Reservation),
		sessions:     sessions,
		lastNumber:   make(map[string]int),
	}
}

func (s *Store) UnitPrice(ctx context.Context) (int64, error) {
	return s.unitPrice, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return store.Session{}, store.ErrSessionNotFound
	}
	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(s.clock.Now()) {
		return store.Session{}, store.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.todayViewLocked(s.clock.Now())
	return models.Snapshot{
		Current:             view.Current,
		Waiting:             view.Waiting,
		TotalToday:          view.TotalToday,
		Tables:              s.listTablesLocked(),
		PendingReservations: s.listPendingLocked(),
	}, nil
}

func copyTicket(ticket *models.Ticket) models.Ticket {
	return *ticket
}

func copyTable(table *models.Table, tickets map[string]*models.Ticket) models.Table {
	out := *table
	if table.OccupyingTicketID != nil {
		id := *table.OccupyingTicketID
		out.OccupyingTicketID = &id
		if ticket, ok := tickets[id]; ok {
			resolved := copyTicket(ticket)
			out.OccupyingTicket = &resolved
		}
	}
	return out
}

func copyReservation(reservation *models.Reservation, tables map[string]*models.Table) models.Reservation {
	out := *reservation
	if reservation.TableID != nil {
		id := *reservation.TableID
		out.TableID = &id
		if table, ok := tables[id]; ok {
			label := table.Label
			out.TableLabel = &label
		}
	}
	return out
}

func sortTicketsByNumber(tickets []models.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Number < tickets[j].Number
	})
}

func (s *Store) resolveTime(at time.Time) time.Time {
	if at.IsZero() {
		return s.clock.Now()
	}
	return at
}
