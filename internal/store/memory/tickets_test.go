package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dinequeue/internal/businessday"
	"dinequeue/internal/models"
	"dinequeue/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	clock, err := businessday.NewClock("UTC")
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	return NewStore(clock, Options{UnitPrice: 100})
}

func issueTicket(t *testing.T, s *Store, partySize int) models.Ticket {
	t.Helper()
	ticket, err := s.IssueTicket(context.Background(), store.IssueTicketInput{
		PartySize: partySize,
		UnitPrice: 100,
	})
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}
	return ticket
}

func TestIssueTicketSequence(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 3; i++ {
		ticket := issueTicket(t, s, 2)
		if ticket.Number != i {
			t.Fatalf("expected number %d, got %d", i, ticket.Number)
		}
		if ticket.Status != models.StatusWaiting {
			t.Fatalf("expected waiting status, got %s", ticket.Status)
		}
		if ticket.TotalPrice != 200 {
			t.Fatalf("expected total price 200, got %d", ticket.TotalPrice)
		}
	}
}

func TestIssueTicketConcurrentNumbersUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket, err := s.IssueTicket(ctx, store.IssueTicketInput{PartySize: 2, UnitPrice: 100})
			if err != nil {
				t.Errorf("issue ticket: %v", err)
				return
			}
			numbers <- ticket.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool, n)
	for number := range numbers {
		if number < 1 || number > n {
			t.Fatalf("number %d outside 1..%d", number, n)
		}
		if seen[number] {
			t.Fatalf("duplicate ticket number %d", number)
		}
		seen[number] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct numbers, got %d", n, len(seen))
	}
}

func TestIssueTicketSequenceResetsPerDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	first, err := s.IssueTicket(ctx, store.IssueTicketInput{PartySize: 2, UnitPrice: 100, CreatedAt: today})
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}
	second, err := s.IssueTicket(ctx, store.IssueTicketInput{PartySize: 2, UnitPrice: 100, CreatedAt: tomorrow})
	if err != nil {
		t.Fatalf("issue ticket: %v", err)
	}

	if first.Number != 1 || second.Number != 1 {
		t.Fatalf("expected both days to start at 1, got %d and %d", first.Number, second.Number)
	}
	if first.BusinessDay == second.BusinessDay {
		t.Fatalf("expected distinct business days")
	}
}

func TestIssueTicketRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.IssueTicket(ctx, store.IssueTicketInput{PartySize: 0, UnitPrice: 100}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.IssueTicket(ctx, store.IssueTicketInput{PartySize: 2, UnitPrice: -1}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCallNextIsFIFO(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := issueTicket(t, s, 2)
	second := issueTicket(t, s, 4)

	called, err := s.CallNext(ctx, time.Time{})
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called.TicketID != first.TicketID {
		t.Fatalf("expected ticket %s to be called first, got %s", first.TicketID, called.TicketID)
	}
	if called.Status != models.StatusCalled {
		t.Fatalf("expected called status, got %s", called.Status)
	}

	called, err = s.CallNext(ctx, time.Time{})
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called.TicketID != second.TicketID {
		t.Fatalf("expected ticket %s next, got %s", second.TicketID, called.TicketID)
	}
}

func TestCallNextEmptyQueue(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CallNext(context.Background(), time.Time{}); !errors.Is(err, store.ErrNoTicket) {
		t.Fatalf("expected ErrNoTicket, got %v", err)
	}
}

func TestUpdateTicketStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := issueTicket(t, s, 2)

	updated, err := s.UpdateTicketStatus(ctx, ticket.TicketID, models.StatusCancelled, time.Time{})
	if err != nil {
		t.Fatalf("cancel ticket: %v", err)
	}
	if updated.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}

	// Cancelled is terminal: no action may leave it.
	if _, err := s.UpdateTicketStatus(ctx, ticket.TicketID, models.StatusSeated, time.Time{}); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := s.UpdateTicketStatus(ctx, ticket.TicketID, models.StatusCancelled, time.Time{}); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateTicketStatusUnknownTicket(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpdateTicketStatus(context.Background(), "missing", models.StatusSeated, time.Time{}); !errors.Is(err, store.ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestUpdateTicketStatusRejectsNonTerminalTarget(t *testing.T) {
	s := newTestStore(t)
	ticket := issueTicket(t, s, 2)

	if _, err := s.UpdateTicketStatus(context.Background(), ticket.TicketID, models.StatusWaiting, time.Time{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTodayView(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := issueTicket(t, s, 2)
	second := issueTicket(t, s, 2)
	third := issueTicket(t, s, 2)

	if _, err := s.CallNext(ctx, time.Time{}); err != nil {
		t.Fatalf("call next: %v", err)
	}

	view, err := s.TodayView(ctx)
	if err != nil {
		t.Fatalf("today view: %v", err)
	}
	if view.TotalToday != 3 {
		t.Fatalf("expected 3 tickets today, got %d", view.TotalToday)
	}
	if view.Current == nil || view.Current.TicketID != first.TicketID {
		t.Fatalf("expected ticket %s as current", first.TicketID)
	}
	if len(view.Waiting) != 2 {
		t.Fatalf("expected 2 waiting tickets, got %d", len(view.Waiting))
	}
	if view.Waiting[0].TicketID != second.TicketID || view.Waiting[1].TicketID != third.TicketID {
		t.Fatalf("waiting list out of order")
	}
}

func TestResetWaiting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issueTicket(t, s, 2)
	issueTicket(t, s, 2)
	called, err := s.CallNext(ctx, time.Time{})
	if err != nil {
		t.Fatalf("call next: %v", err)
	}

	count, err := s.ResetWaiting(ctx, time.Time{})
	if err != nil {
		t.Fatalf("reset waiting: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cancelled ticket, got %d", count)
	}

	// Already-called tickets are untouched.
	got, err := s.GetTicket(ctx, called.TicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != models.StatusCalled {
		t.Fatalf("expected called ticket to survive reset, got %s", got.Status)
	}

	view, err := s.TodayView(ctx)
	if err != nil {
		t.Fatalf("today view: %v", err)
	}
	if len(view.Waiting) != 0 {
		t.Fatalf("expected empty waiting list, got %d", len(view.Waiting))
	}
}
