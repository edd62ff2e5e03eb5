package memory

import (
	"context"
	"time"

	"dinequeue/internal/models"
	"dinequeue/internal/store"

	"github.com/google/uuid"
)

func (s *Store) IssueTicket(ctx context.Context, input store.IssueTicketInput) (models.Ticket, error) {
	if input.PartySize <= 0 {
		return models.Ticket{}, store.ErrInvalidInput
	}
	if input.UnitPrice < 0 {
		return models.Ticket{}, store.ErrInvalidInput
	}
	createdAt := s.resolveTime(input.CreatedAt)
	day := s.clock.DayKey(createdAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	number := s.lastNumber[day] + 1
	s.lastNumber[day] = number

	ticket := &models.Ticket{
		TicketID:    uuid.NewString(),
		Number:      number,
		PartySize:   input.PartySize,
		TotalPrice:  int64(input.PartySize) * input.UnitPrice,
		Status:      models.StatusWaiting,
		BusinessDay: day,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	s.tickets[ticket.TicketID] = ticket
	return copyTicket(ticket), nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return models.Ticket{}, store.ErrTicketNotFound
	}
	return copyTicket(ticket), nil
}

func (s *Store) CallNext(ctx context.Context, calledAt time.Time) (models.Ticket, error) {
	calledAt = s.resolveTime(calledAt)
	day := s.clock.DayKey(calledAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	var next *models.Ticket
	for _, ticket := range s.tickets {
		if ticket.BusinessDay != day || ticket.Status != models.StatusWaiting {
			continue
		}
		if next == nil || ticket.Number < next.Number {
			next = ticket
		}
	}
	if next == nil {
		return models.Ticket{}, store.ErrNoTicket
	}
	next.Status = models.StatusCalled
	next.UpdatedAt = calledAt
	return copyTicket(next), nil
}

func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID, newStatus string, occurredAt time.Time) (models.Ticket, error) {
	action, ok := store.ActionForStatus(newStatus)
	if !ok {
		return models.Ticket{}, store.ErrInvalidInput
	}
	occurredAt = s.resolveTime(occurredAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, found := s.tickets[ticketID]
	if !found {
		return models.Ticket{}, store.ErrTicketNotFound
	}
	if !store.ValidTransition(action, ticket.Status) {
		return models.Ticket{}, store.ErrInvalidTransition
	}
	ticket.Status = newStatus
	ticket.UpdatedAt = occurredAt
	return copyTicket(ticket), nil
}

func (s *Store) TodayView(ctx context.Context) (models.TodayView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todayViewLocked(s.clock.Now()), nil
}

func (s *Store) todayViewLocked(now time.Time) models.TodayView {
	day := s.clock.DayKey(now)

	var view models.TodayView
	var current *models.Ticket
	for _, ticket := range s.tickets {
		if ticket.BusinessDay != day {
			continue
		}
		view.TotalToday++
		if ticket.Status == models.StatusWaiting {
			view.Waiting = append(view.Waiting, copyTicket(ticket))
			continue
		}
		if current == nil ||
			ticket.UpdatedAt.After(current.UpdatedAt) ||
			(ticket.UpdatedAt.Equal(current.UpdatedAt) && ticket.Number > current.Number) {
			current = ticket
		}
	}
	sortTicketsByNumber(view.Waiting)
	if current != nil {
		resolved := copyTicket(current)
		view.Current = &resolved
	}
	return view
}

func (s *Store) ResetWaiting(ctx context.Context, occurredAt time.Time) (int, error) {
	occurredAt = s.resolveTime(occurredAt)
	day := s.clock.DayKey(occurredAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, ticket := range s.tickets {
		if ticket.BusinessDay != day || ticket.Status != models.StatusWaiting {
			continue
		}
		ticket.Status = models.StatusCancelled
		ticket.UpdatedAt = occurredAt
		count++
	}
	return count, nil
}
