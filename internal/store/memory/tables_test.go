package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinequeue/internal/models"
	"dinequeue/internal/store"
)

func createTable(t *testing.T, s *Store, label string) models.Table {
	t.Helper()
	table, err := s.CreateTable(context.Background(), label, 4)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return table
}

func TestCreateTableDuplicateLabel(t *testing.T) {
	s := newTestStore(t)

	createTable(t, s, "A1")
	if _, err := s.CreateTable(context.Background(), "A1", 4); !errors.Is(err, store.ErrDuplicateLabel) {
		t.Fatalf("expected ErrDuplicateLabel, got %v", err)
	}
	if _, err := s.CreateTable(context.Background(), "", 4); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.CreateTable(context.Background(), "B1", 0); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListTablesSortedByLabel(t *testing.T) {
	s := newTestStore(t)

	createTable(t, s, "B2")
	createTable(t, s, "A1")

	tables, err := s.ListTables(context.Background())
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	if len(tables) != 2 || tables[0].Label != "A1" || tables[1].Label != "B2" {
		t.Fatalf("expected tables sorted by label, got %+v", tables)
	}
}

func TestAssignTableSeatsTicketAndOccupiesTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	ticket := issueTicket(t, s, 2)

	assigned, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{})
	if err != nil {
		t.Fatalf("assign table: %v", err)
	}
	if assigned.Status != models.TableOccupied {
		t.Fatalf("expected occupied table, got %s", assigned.Status)
	}
	if assigned.OccupyingTicketID == nil || *assigned.OccupyingTicketID != ticket.TicketID {
		t.Fatalf("expected table to reference ticket %s", ticket.TicketID)
	}
	if assigned.OccupyingTicket == nil || assigned.OccupyingTicket.Status != models.StatusSeated {
		t.Fatalf("expected resolved seated ticket on table")
	}

	got, err := s.GetTicket(ctx, ticket.TicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != models.StatusSeated {
		t.Fatalf("expected seated ticket, got %s", got.Status)
	}
}

func TestAssignTableRejectsSecondTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	first := issueTicket(t, s, 2)
	second := issueTicket(t, s, 2)

	if _, err := s.AssignTable(ctx, table.TableID, first.TicketID, time.Time{}); err != nil {
		t.Fatalf("assign table: %v", err)
	}
	if _, err := s.AssignTable(ctx, table.TableID, second.TicketID, time.Time{}); !errors.Is(err, store.ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got %v", err)
	}

	// The rejected ticket keeps its original status.
	got, err := s.GetTicket(ctx, second.TicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != models.StatusWaiting {
		t.Fatalf("expected waiting ticket after rejection, got %s", got.Status)
	}
}

func TestAssignTableRejectsTicketAtAnotherTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tableA := createTable(t, s, "A1")
	tableB := createTable(t, s, "B1")
	ticket := issueTicket(t, s, 2)

	if _, err := s.AssignTable(ctx, tableA.TableID, ticket.TicketID, time.Time{}); err != nil {
		t.Fatalf("assign table: %v", err)
	}
	if _, err := s.AssignTable(ctx, tableB.TableID, ticket.TicketID, time.Time{}); !errors.Is(err, store.ErrTicketAlreadySeated) {
		t.Fatalf("expected ErrTicketAlreadySeated, got %v", err)
	}
}

func TestAssignTableRejectsCancelledTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	ticket := issueTicket(t, s, 2)
	if _, err := s.UpdateTicketStatus(ctx, ticket.TicketID, models.StatusCancelled, time.Time{}); err != nil {
		t.Fatalf("cancel ticket: %v", err)
	}

	if _, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{}); !errors.Is(err, store.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAssignTableReassignSameTicketIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	ticket := issueTicket(t, s, 2)

	if _, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{}); err != nil {
		t.Fatalf("assign table: %v", err)
	}
	assigned, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{})
	if err != nil {
		t.Fatalf("reassign same ticket: %v", err)
	}
	if assigned.OccupyingTicketID == nil || *assigned.OccupyingTicketID != ticket.TicketID {
		t.Fatalf("expected table to keep ticket %s", ticket.TicketID)
	}
}

func TestAssignTableClearLeavesTicketSeated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	ticket := issueTicket(t, s, 2)
	if _, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{}); err != nil {
		t.Fatalf("assign table: %v", err)
	}

	cleared, err := s.AssignTable(ctx, table.TableID, "", time.Time{})
	if err != nil {
		t.Fatalf("clear table: %v", err)
	}
	if cleared.Status != models.TableAvailable || cleared.OccupyingTicketID != nil {
		t.Fatalf("expected available table, got %+v", cleared)
	}

	got, err := s.GetTicket(ctx, ticket.TicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.Status != models.StatusSeated {
		t.Fatalf("expected ticket to stay seated after clear, got %s", got.Status)
	}

	// Clearing an already free table is a no-op, not an error.
	if _, err := s.AssignTable(ctx, table.TableID, "", time.Time{}); err != nil {
		t.Fatalf("clear free table: %v", err)
	}
}

func TestDeleteTableClearsReservationPreference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	reservation := createReservation(t, s, table.TableID)

	if err := s.DeleteTable(ctx, table.TableID); err != nil {
		t.Fatalf("delete table: %v", err)
	}

	pending, err := s.ListPendingReservations(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending reservation, got %d", len(pending))
	}
	if pending[0].TableID != nil {
		t.Fatalf("expected reservation preference cleared, got %s", *pending[0].TableID)
	}

	// Check-in proceeds without a table once the preference is gone.
	ticket, err := s.CheckInReservation(ctx, store.CheckInInput{ReservationID: reservation.ReservationID, UnitPrice: 100})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if ticket.Status != models.StatusSeated {
		t.Fatalf("expected seated ticket, got %s", ticket.Status)
	}
}

func TestDeleteTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	table := createTable(t, s, "A1")
	ticket := issueTicket(t, s, 2)
	if _, err := s.AssignTable(ctx, table.TableID, ticket.TicketID, time.Time{}); err != nil {
		t.Fatalf("assign table: %v", err)
	}

	if err := s.DeleteTable(ctx, table.TableID); !errors.Is(err, store.ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got %v", err)
	}

	if _, err := s.AssignTable(ctx, table.TableID, "", time.Time{}); err != nil {
		t.Fatalf("clear table: %v", err)
	}
	if err := s.DeleteTable(ctx, table.TableID); err != nil {
		t.Fatalf("delete table: %v", err)
	}
	if err := s.DeleteTable(ctx, table.TableID); !errors.Is(err, store.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}
