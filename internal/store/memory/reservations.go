package memory

import (
	"context"
	"sort"
	"strings"

	"dinequeue/internal/models"
	"dinequeue/internal/store"

	"github.com/google/uuid"
)

func (s *Store) CreateReservation(ctx context.Context, input store.CreateReservationInput) (models.Reservation, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" || input.PartySize <= 0 || input.ReservationTime.IsZero() {
		return models.Reservation{}, store.ErrInvalidInput
	}
	createdAt := s.resolveTime(input.CreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation := &models.Reservation{
		ReservationID:   uuid.NewString(),
		CustomerName:    name,
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		ReservationTime: input.ReservationTime,
		PartySize:       input.PartySize,
		Status:          models.ReservationPending,
		CreatedAt:       createdAt,
	}
	if input.TableID != "" {
		if _, ok := s.tables[input.TableID]; !ok {
			return models.Reservation{}, store.ErrTableNotFound
		}
		id := input.TableID
		reservation.TableID = &id
	}
	s.reservations[reservation.ReservationID] = reservation
	return copyReservation(reservation, s.tables), nil
}

func (s *Store) ListPendingReservations(ctx context.Context) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPendingLocked(), nil
}

func (s *Store) listPendingLocked() []models.Reservation {
	var pending []models.Reservation
	for _, reservation := range s.reservations {
		if reservation.Status != models.ReservationPending {
			continue
		}
		pending = append(pending, copyReservation(reservation, s.tables))
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ReservationTime.Before(pending[j].ReservationTime)
	})
	return pending
}

// CheckInReservation converts a pending reservation into a seated ticket and,
// when the reservation names a table, occupies it, all under one lock hold.
// Every precondition is checked before the first write, so a failed check-in
// leaves no ticket behind.
func (s *Store) CheckInReservation(ctx context.Context, input store.CheckInInput) (models.Ticket, error) {
	if input.UnitPrice < 0 {
		return models.Ticket{}, store.ErrInvalidInput
	}
	checkedInAt := s.resolveTime(input.CheckedInAt)
	day := s.clock.DayKey(checkedInAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[input.ReservationID]
	if !ok {
		return models.Ticket{}, store.ErrReservationNotFound
	}
	if reservation.Status != models.ReservationPending {
		return models.Ticket{}, store.ErrInvalidState
	}

	var table *models.Table
	if reservation.TableID != nil {
		table, ok = s.tables[*reservation.TableID]
		if !ok {
			return models.Ticket{}, store.ErrTableNotFound
		}
		if table.OccupyingTicketID != nil {
			return models.Ticket{}, store.ErrTableOccupied
		}
	}

	number := s.lastNumber[day] + 1
	s.lastNumber[day] = number

	ticket := &models.Ticket{
		TicketID:    uuid.NewString(),
		Number:      number,
		PartySize:   reservation.PartySize,
		TotalPrice:  int64(reservation.PartySize) * input.UnitPrice,
		Status:      models.StatusSeated,
		BusinessDay: day,
		CreatedAt:   checkedInAt,
		UpdatedAt:   checkedInAt,
	}
	s.tickets[ticket.TicketID] = ticket

	if table != nil {
		table.Status = models.TableOccupied
		table.OccupyingTicketID = &ticket.TicketID
	}
	reservation.Status = models.ReservationCheckedIn
	return copyTicket(ticket), nil
}

func (s *Store) CancelReservation(ctx context.Context, reservationID string) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return models.Reservation{}, store.ErrReservationNotFound
	}
	if reservation.Status != models.ReservationPending {
		return models.Reservation{}, store.ErrInvalidState
	}
	reservation.Status = models.ReservationCancelled
	return copyReservation(reservation, s.tables), nil
}
