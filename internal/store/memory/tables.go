package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"dinequeue/internal/models"
	"dinequeue/internal/store"

	"github.com/google/uuid"
)

func (s *Store) ListTables(ctx context.Context) ([]models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTablesLocked(), nil
}

func (s *Store) listTablesLocked() []models.Table {
	tables := make([]models.Table, 0, len(s.tables))
	for _, table := range s.tables {
		tables = append(tables, copyTable(table, s.tickets))
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Label < tables[j].Label
	})
	return tables
}

func (s *Store) CreateTable(ctx context.Context, label string, capacity int) (models.Table, error) {
	label = strings.TrimSpace(label)
	if label == "" || capacity <= 0 {
		return models.Table{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables {
		if existing.Label == label {
			return models.Table{}, store.ErrDuplicateLabel
		}
	}
	table := &models.Table{
		TableID:  uuid.NewString(),
		Label:    label,
		Capacity: capacity,
		Status:   models.TableAvailable,
	}
	s.tables[table.TableID] = table
	return copyTable(table, s.tickets), nil
}

// AssignTable is the sole writer of the table-to-ticket link. The occupancy
// write and the seated transition happen under the same lock hold, so no
// observer can see one without the other.
func (s *Store) AssignTable(ctx context.Context, tableID, ticketID string, occurredAt time.Time) (models.Table, error) {
	occurredAt = s.resolveTime(occurredAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[tableID]
	if !ok {
		return models.Table{}, store.ErrTableNotFound
	}

	if ticketID == "" {
		// Clearing occupancy frees the table but leaves the previously
		// occupying ticket seated: the bill is settled, the table is not.
		table.Status = models.TableAvailable
		table.OccupyingTicketID = nil
		return copyTable(table, s.tickets), nil
	}

	if err := s.assignTicketLocked(table, ticketID, occurredAt); err != nil {
		return models.Table{}, err
	}
	return copyTable(table, s.tickets), nil
}

func (s *Store) assignTicketLocked(table *models.Table, ticketID string, occurredAt time.Time) error {
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return store.ErrTicketNotFound
	}
	if table.OccupyingTicketID != nil && *table.OccupyingTicketID != ticketID {
		return store.ErrTableOccupied
	}
	if !store.ValidTransition("assign", ticket.Status) {
		return store.ErrInvalidTransition
	}
	for _, other := range s.tables {
		if other.TableID != table.TableID && other.OccupyingTicketID != nil && *other.OccupyingTicketID == ticketID {
			return store.ErrTicketAlreadySeated
		}
	}

	if ticket.Status != models.StatusSeated {
		ticket.Status = models.StatusSeated
		ticket.UpdatedAt = occurredAt
	}
	table.Status = models.TableOccupied
	table.OccupyingTicketID = &ticket.TicketID
	return nil
}

func (s *Store) DeleteTable(ctx context.Context, tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[tableID]
	if !ok {
		return store.ErrTableNotFound
	}
	if table.Status == models.TableOccupied {
		return store.ErrTableOccupied
	}
	// Reservations that preferred this table fall back to no preference,
	// mirroring the ON DELETE SET NULL in the schema.
	for _, reservation := range s.reservations {
		if reservation.TableID != nil && *reservation.TableID == tableID {
			reservation.TableID = nil
		}
	}
	delete(s.tables, tableID)
	return nil
}
