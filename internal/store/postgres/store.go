package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"dinequeue/internal/businessday"
	"dinequeue/internal/models"
	"dinequeue/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const unitPriceKey = "unit_price_per_head"

type Store struct {
	pool             *pgxpool.Pool
	clock            *businessday.Clock
	fallbackPrice    int64
	shiftListDefault int
}

type Options struct {
	// FallbackUnitPrice is used when the settings row is absent.
	FallbackUnitPrice int64
	ShiftListDefault  int
}

func NewStore(pool *pgxpool.Pool, clock *businessday.Clock, options Options) *Store {
	shiftDefault := options.ShiftListDefault
	if shiftDefault <= 0 {
		shiftDefault = 50
	}
	return &Store{
		pool:             pool,
		clock:            clock,
		fallbackPrice:    options.FallbackUnitPrice,
		shiftListDefault: shiftDefault,
	}
}

func (s *Store) resolveTime(at time.Time) time.Time {
	if at.IsZero() {
		return s.clock.Now()
	}
	return at
}

func (s *Store) IssueTicket(ctx context.Context, input store.IssueTicketInput) (models.Ticket, error) {
	if input.PartySize <= 0 || input.UnitPrice < 0 {
		return models.Ticket{}, store.ErrInvalidInput
	}
	createdAt := s.resolveTime(input.CreatedAt)
	day := s.clock.DayKey(createdAt)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	number, err := nextTicketNumber(ctx, tx, day)
	if err != nil {
		return models.Ticket{}, err
	}

	var ticket models.Ticket
	row := tx.QueryRow(ctx, `
		INSERT INTO tickets (ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
	`, uuid.NewString(), number, input.PartySize, int64(input.PartySize)*input.UnitPrice, models.StatusWaiting, day, createdAt)
	if err = scanTicket(row, &ticket); err != nil {
		return models.Ticket{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

// nextTicketNumber allocates inside the issuing transaction: the upsert takes
// a row lock on the day's counter, so two concurrent issuances serialize on
// the database instead of racing a read-then-write.
func nextTicketNumber(ctx context.Context, tx pgx.Tx, day string) (int, error) {
	var next int
	row := tx.QueryRow(ctx, `
		INSERT INTO ticket_sequences (business_day, last_number)
		VALUES ($1, 1)
		ON CONFLICT (business_day)
		DO UPDATE SET last_number = ticket_sequences.last_number + 1
		RETURNING last_number
	`, day)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (models.Ticket, error) {
	var ticket models.Ticket
	row := s.pool.QueryRow(ctx, `
		SELECT ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
		FROM tickets
		WHERE ticket_id = $1
	`, ticketID)
	if err := scanTicket(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, store.ErrTicketNotFound
		}
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) CallNext(ctx context.Context, calledAt time.Time) (models.Ticket, error) {
	calledAt = s.resolveTime(calledAt)
	day := s.clock.DayKey(calledAt)

	var ticket models.Ticket
	row := s.pool.QueryRow(ctx, `
		WITH next_ticket AS (
			SELECT ticket_id
			FROM tickets
			WHERE business_day = $1 AND status = $2
			ORDER BY number ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE tickets
		SET status = $3,
			updated_at = $4
		FROM next_ticket
		WHERE tickets.ticket_id = next_ticket.ticket_id
		RETURNING tickets.ticket_id, tickets.number, tickets.party_size, tickets.total_price, tickets.status, tickets.business_day, tickets.created_at, tickets.updated_at
	`, day, models.StatusWaiting, models.StatusCalled, calledAt)
	if err := scanTicket(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, store.ErrNoTicket
		}
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID, newStatus string, occurredAt time.Time) (models.Ticket, error) {
	action, ok := store.ActionForStatus(newStatus)
	if !ok {
		return models.Ticket{}, store.ErrInvalidInput
	}
	occurredAt = s.resolveTime(occurredAt)

	var ticket models.Ticket
	row := s.pool.QueryRow(ctx, `
		UPDATE tickets
		SET status = $1,
			updated_at = $2
		WHERE ticket_id = $3 AND status = ANY($4)
		RETURNING ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
	`, newStatus, occurredAt, ticketID, store.AllowedFrom(action))
	if err := scanTicket(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, s.disambiguateTicket(ctx, ticketID)
		}
		return models.Ticket{}, err
	}
	return ticket, nil
}

// disambiguateTicket turns a zero-row conditional update into the right
// sentinel: the ticket is either missing or in a status the action rejects.
func (s *Store) disambiguateTicket(ctx context.Context, ticketID string) error {
	var status string
	row := s.pool.QueryRow(ctx, `SELECT status FROM tickets WHERE ticket_id = $1`, ticketID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrTicketNotFound
		}
		return err
	}
	return store.ErrInvalidTransition
}

func (s *Store) TodayView(ctx context.Context) (models.TodayView, error) {
	day := s.clock.DayKey(s.clock.Now())
	return s.todayView(ctx, day)
}

func (s *Store) todayView(ctx context.Context, day string) (models.TodayView, error) {
	var view models.TodayView

	rows, err := s.pool.Query(ctx, `
		SELECT ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
		FROM tickets
		WHERE business_day = $1 AND status = $2
		ORDER BY number ASC
	`, day, models.StatusWaiting)
	if err != nil {
		return models.TodayView{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ticket models.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return models.TodayView{}, err
		}
		view.Waiting = append(view.Waiting, ticket)
	}
	if err := rows.Err(); err != nil {
		return models.TodayView{}, err
	}

	var current models.Ticket
	row := s.pool.QueryRow(ctx, `
		SELECT ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
		FROM tickets
		WHERE business_day = $1 AND status <> $2
		ORDER BY updated_at DESC, number DESC
		LIMIT 1
	`, day, models.StatusWaiting)
	if err := scanTicket(row, &current); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return models.TodayView{}, err
		}
	} else {
		view.Current = &current
	}

	row = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tickets WHERE business_day = $1
	`, day)
	if err := row.Scan(&view.TotalToday); err != nil {
		return models.TodayView{}, err
	}
	return view, nil
}

func (s *Store) ResetWaiting(ctx context.Context, occurredAt time.Time) (int, error) {
	occurredAt = s.resolveTime(occurredAt)
	day := s.clock.DayKey(occurredAt)

	tag, err := s.pool.Exec(ctx, `
		UPDATE tickets
		SET status = $1,
			updated_at = $2
		WHERE business_day = $3 AND status = $4
	`, models.StatusCancelled, occurredAt, day, models.StatusWaiting)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ListTables(ctx context.Context) ([]models.Table, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.table_id, d.label, d.capacity, d.status, d.occupying_ticket_id,
			t.ticket_id, t.number, t.party_size, t.total_price, t.status, t.business_day, t.created_at, t.updated_at
		FROM dining_tables d
		LEFT JOIN tickets t ON t.ticket_id = d.occupying_ticket_id
		ORDER BY d.label ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		table, err := scanTableJoin(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *Store) CreateTable(ctx context.Context, label string, capacity int) (models.Table, error) {
	label = strings.TrimSpace(label)
	if label == "" || capacity <= 0 {
		return models.Table{}, store.ErrInvalidInput
	}

	var table models.Table
	row := s.pool.QueryRow(ctx, `
		INSERT INTO dining_tables (table_id, label, capacity, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (label) DO NOTHING
		RETURNING table_id, label, capacity, status
	`, uuid.NewString(), label, capacity, models.TableAvailable)
	if err := row.Scan(&table.TableID, &table.Label, &table.Capacity, &table.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Table{}, store.ErrDuplicateLabel
		}
		return models.Table{}, err
	}
	return table, nil
}

// AssignTable pairs the occupancy write with the seated transition inside one
// transaction; both rows are locked first so a concurrent status update on
// the same ticket cannot interleave.
func (s *Store) AssignTable(ctx context.Context, tableID, ticketID string, occurredAt time.Time) (models.Table, error) {
	occurredAt = s.resolveTime(occurredAt)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Table{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	table, err := lockTable(ctx, tx, tableID)
	if err != nil {
		return models.Table{}, err
	}

	if ticketID == "" {
		// Clearing never touches the previously seated ticket: settled
		// bill, freed table.
		_, err = tx.Exec(ctx, `
			UPDATE dining_tables
			SET status = $1, occupying_ticket_id = NULL
			WHERE table_id = $2
		`, models.TableAvailable, tableID)
		if err != nil {
			return models.Table{}, err
		}
		if err = tx.Commit(ctx); err != nil {
			return models.Table{}, err
		}
		table.Status = models.TableAvailable
		table.OccupyingTicketID = nil
		table.OccupyingTicket = nil
		return table, nil
	}

	if table.OccupyingTicketID != nil && *table.OccupyingTicketID != ticketID {
		err = store.ErrTableOccupied
		return models.Table{}, err
	}

	var ticket models.Ticket
	row := tx.QueryRow(ctx, `
		SELECT ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
		FROM tickets
		WHERE ticket_id = $1
		FOR UPDATE
	`, ticketID)
	if err = scanTicket(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrTicketNotFound
		}
		return models.Table{}, err
	}
	if !store.ValidTransition("assign", ticket.Status) {
		err = store.ErrInvalidTransition
		return models.Table{}, err
	}

	var occupiedElsewhere bool
	row = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM dining_tables
			WHERE occupying_ticket_id = $1 AND table_id <> $2
		)
	`, ticketID, tableID)
	if err = row.Scan(&occupiedElsewhere); err != nil {
		return models.Table{}, err
	}
	if occupiedElsewhere {
		err = store.ErrTicketAlreadySeated
		return models.Table{}, err
	}

	if ticket.Status != models.StatusSeated {
		if _, err = tx.Exec(ctx, `
			UPDATE tickets SET status = $1, updated_at = $2 WHERE ticket_id = $3
		`, models.StatusSeated, occurredAt, ticketID); err != nil {
			return models.Table{}, err
		}
		ticket.Status = models.StatusSeated
		ticket.UpdatedAt = occurredAt
	}
	if _, err = tx.Exec(ctx, `
		UPDATE dining_tables
		SET status = $1, occupying_ticket_id = $2
		WHERE table_id = $3
	`, models.TableOccupied, ticketID, tableID); err != nil {
		return models.Table{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Table{}, err
	}

	table.Status = models.TableOccupied
	table.OccupyingTicketID = &ticket.TicketID
	table.OccupyingTicket = &ticket
	return table, nil
}

func lockTable(ctx context.Context, tx pgx.Tx, tableID string) (models.Table, error) {
	var table models.Table
	var occupying sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT table_id, label, capacity, status, occupying_ticket_id
		FROM dining_tables
		WHERE table_id = $1
		FOR UPDATE
	`, tableID)
	if err := row.Scan(&table.TableID, &table.Label, &table.Capacity, &table.Status, &occupying); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Table{}, store.ErrTableNotFound
		}
		return models.Table{}, err
	}
	table.OccupyingTicketID = nullStringPtr(occupying)
	return table, nil
}

func (s *Store) DeleteTable(ctx context.Context, tableID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM dining_tables
		WHERE table_id = $1 AND status = $2
	`, tableID, models.TableAvailable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status string
	row := s.pool.QueryRow(ctx, `SELECT status FROM dining_tables WHERE table_id = $1`, tableID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrTableNotFound
		}
		return err
	}
	return store.ErrTableOccupied
}

func (s *Store) CreateReservation(ctx context.Context, input store.CreateReservationInput) (models.Reservation, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" || input.PartySize <= 0 || input.ReservationTime.IsZero() {
		return models.Reservation{}, store.ErrInvalidInput
	}
	createdAt := s.resolveTime(input.CreatedAt)

	var reservation models.Reservation
	var tableIDNull sql.NullString
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reservations (reservation_id, customer_name, customer_phone, reservation_time, party_size, table_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING reservation_id, customer_name, customer_phone, reservation_time, party_size, table_id, status, created_at
	`, uuid.NewString(), name, strings.TrimSpace(input.CustomerPhone), input.ReservationTime, input.PartySize, nullIfEmpty(input.TableID), models.ReservationPending, createdAt)
	if err := row.Scan(&reservation.ReservationID, &reservation.CustomerName, &reservation.CustomerPhone, &reservation.ReservationTime, &reservation.PartySize, &tableIDNull, &reservation.Status, &reservation.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return models.Reservation{}, store.ErrTableNotFound
		}
		return models.Reservation{}, err
	}
	reservation.TableID = nullStringPtr(tableIDNull)
	return reservation, nil
}

func (s *Store) ListPendingReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.reservation_id, r.customer_name, r.customer_phone, r.reservation_time, r.party_size, r.table_id, d.label, r.status, r.created_at
		FROM reservations r
		LEFT JOIN dining_tables d ON d.table_id = r.table_id
		WHERE r.status = $1
		ORDER BY r.reservation_time ASC
	`, models.ReservationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		var tableIDNull, labelNull sql.NullString
		if err := rows.Scan(&reservation.ReservationID, &reservation.CustomerName, &reservation.CustomerPhone, &reservation.ReservationTime, &reservation.PartySize, &tableIDNull, &labelNull, &reservation.Status, &reservation.CreatedAt); err != nil {
			return nil, err
		}
		reservation.TableID = nullStringPtr(tableIDNull)
		reservation.TableLabel = nullStringPtr(labelNull)
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// CheckInReservation runs the whole conversion in one transaction: validate
// the pending reservation, lock and validate the named table, allocate a
// number, insert the seated ticket, occupy the table, flip the reservation.
// Any failure rolls the lot back, so no seated ticket can outlive a failed
// check-in.
func (s *Store) CheckInReservation(ctx context.Context, input store.CheckInInput) (models.Ticket, error) {
	if input.UnitPrice < 0 {
		return models.Ticket{}, store.ErrInvalidInput
	}
	checkedInAt := s.resolveTime(input.CheckedInAt)
	day := s.clock.DayKey(checkedInAt)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var partySize int
	var status string
	var tableIDNull sql.NullString
	row := tx.QueryRow(ctx, `
		SELECT party_size, status, table_id
		FROM reservations
		WHERE reservation_id = $1
		FOR UPDATE
	`, input.ReservationID)
	if err = row.Scan(&partySize, &status, &tableIDNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrReservationNotFound
		}
		return models.Ticket{}, err
	}
	if status != models.ReservationPending {
		err = store.ErrInvalidState
		return models.Ticket{}, err
	}

	if tableIDNull.Valid {
		var table models.Table
		table, err = lockTable(ctx, tx, tableIDNull.String)
		if err != nil {
			return models.Ticket{}, err
		}
		if table.OccupyingTicketID != nil {
			err = store.ErrTableOccupied
			return models.Ticket{}, err
		}
	}

	number, err := nextTicketNumber(ctx, tx, day)
	if err != nil {
		return models.Ticket{}, err
	}

	var ticket models.Ticket
	row = tx.QueryRow(ctx, `
		INSERT INTO tickets (ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ticket_id, number, party_size, total_price, status, business_day, created_at, updated_at
	`, uuid.NewString(), number, partySize, int64(partySize)*input.UnitPrice, models.StatusSeated, day, checkedInAt)
	if err = scanTicket(row, &ticket); err != nil {
		return models.Ticket{}, err
	}

	if tableIDNull.Valid {
		if _, err = tx.Exec(ctx, `
			UPDATE dining_tables
			SET status = $1, occupying_ticket_id = $2
			WHERE table_id = $3
		`, models.TableOccupied, ticket.TicketID, tableIDNull.String); err != nil {
			return models.Ticket{}, err
		}
	}

	if _, err = tx.Exec(ctx, `
		UPDATE reservations SET status = $1 WHERE reservation_id = $2
	`, models.ReservationCheckedIn, input.ReservationID); err != nil {
		return models.Ticket{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) CancelReservation(ctx context.Context, reservationID string) (models.Reservation, error) {
	var reservation models.Reservation
	var tableIDNull sql.NullString
	row := s.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = $1
		WHERE reservation_id = $2 AND status = $3
		RETURNING reservation_id, customer_name, customer_phone, reservation_time, party_size, table_id, status, created_at
	`, models.ReservationCancelled, reservationID, models.ReservationPending)
	if err := row.Scan(&reservation.ReservationID, &reservation.CustomerName, &reservation.CustomerPhone, &reservation.ReservationTime, &reservation.PartySize, &tableIDNull, &reservation.Status, &reservation.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, s.disambiguateReservation(ctx, reservationID)
		}
		return models.Reservation{}, err
	}
	reservation.TableID = nullStringPtr(tableIDNull)
	return reservation, nil
}

func (s *Store) disambiguateReservation(ctx context.Context, reservationID string) error {
	var status string
	row := s.pool.QueryRow(ctx, `SELECT status FROM reservations WHERE reservation_id = $1`, reservationID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrReservationNotFound
		}
		return err
	}
	return store.ErrInvalidState
}

func (s *Store) CloseShift(ctx context.Context, input store.CloseShiftInput) (models.ShiftRecord, error) {
	if input.ClosedBy == "" || input.CashCounted < 0 {
		return models.ShiftRecord{}, store.ErrInvalidInput
	}
	closedAt := s.resolveTime(input.ClosedAt)
	day := s.clock.DayKey(closedAt)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.ShiftRecord{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	start, end := s.clock.TodayWindow(closedAt)
	var systemTotal int64
	row := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0)
		FROM tickets
		WHERE created_at >= $1 AND created_at < $2 AND status = $3
	`, start, end, models.StatusSeated)
	if err = row.Scan(&systemTotal); err != nil {
		return models.ShiftRecord{}, err
	}

	record := models.ShiftRecord{
		ShiftID:     uuid.NewString(),
		ClosedBy:    input.ClosedBy,
		ClosedAt:    closedAt,
		BusinessDay: day,
		SystemTotal: systemTotal,
		CashCounted: input.CashCounted,
		Variance:    input.CashCounted - systemTotal,
		Note:        input.Note,
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO shift_records (shift_id, closed_by, closed_at, business_day, system_total, cash_counted, variance, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.ShiftID, record.ClosedBy, record.ClosedAt, record.BusinessDay, record.SystemTotal, record.CashCounted, record.Variance, record.Note); err != nil {
		return models.ShiftRecord{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.ShiftRecord{}, err
	}
	return record, nil
}

func (s *Store) ListShifts(ctx context.Context, limit int) ([]models.ShiftRecord, error) {
	if limit <= 0 {
		limit = s.shiftListDefault
	}
	rows, err := s.pool.Query(ctx, `
		SELECT shift_id, closed_by, closed_at, business_day, system_total, cash_counted, variance, note
		FROM shift_records
		ORDER BY closed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ShiftRecord
	for rows.Next() {
		var record models.ShiftRecord
		if err := rows.Scan(&record.ShiftID, &record.ClosedBy, &record.ClosedAt, &record.BusinessDay, &record.SystemTotal, &record.CashCounted, &record.Variance, &record.Note); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	view, err := s.TodayView(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	tables, err := s.ListTables(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	reservations, err := s.ListPendingReservations(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.Snapshot{
		Current:             view.Current,
		Waiting:             view.Waiting,
		TotalToday:          view.TotalToday,
		Tables:              tables,
		PendingReservations: reservations,
	}, nil
}

func (s *Store) UnitPrice(ctx context.Context) (int64, error) {
	var raw string
	row := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, unitPriceKey)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.fallbackPrice, nil
		}
		return 0, err
	}
	price, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || price < 0 {
		return s.fallbackPrice, nil
	}
	return price, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (store.Session, error) {
	var session store.Session
	var expiresNull sql.NullTime
	row := s.pool.QueryRow(ctx, `
		SELECT session_id, user_id, name, role, expires_at
		FROM sessions
		WHERE session_id = $1
	`, sessionID)
	if err := row.Scan(&session.SessionID, &session.UserID, &session.Name, &session.Role, &expiresNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Session{}, store.ErrSessionNotFound
		}
		return store.Session{}, err
	}
	if expiresNull.Valid {
		session.ExpiresAt = expiresNull.Time
		if session.ExpiresAt.Before(s.clock.Now()) {
			return store.Session{}, store.ErrSessionNotFound
		}
	}
	return session, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *models.Ticket) error {
	return row.Scan(&ticket.TicketID, &ticket.Number, &ticket.PartySize, &ticket.TotalPrice, &ticket.Status, &ticket.BusinessDay, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func scanTableJoin(row rowScanner) (models.Table, error) {
	var table models.Table
	var occupying sql.NullString
	var ticketID sql.NullString
	var number sql.NullInt64
	var partySize sql.NullInt64
	var totalPrice sql.NullInt64
	var status sql.NullString
	var businessDay sql.NullString
	var createdAt sql.NullTime
	var updatedAt sql.NullTime
	if err := row.Scan(&table.TableID, &table.Label, &table.Capacity, &table.Status, &occupying,
		&ticketID, &number, &partySize, &totalPrice, &status, &businessDay, &createdAt, &updatedAt); err != nil {
		return models.Table{}, err
	}
	table.OccupyingTicketID = nullStringPtr(occupying)
	if ticketID.Valid {
		table.OccupyingTicket = &models.Ticket{
			TicketID:    ticketID.String,
			Number:      int(number.Int64),
			PartySize:   int(partySize.Int64),
			TotalPrice:  totalPrice.Int64,
			Status:      status.String,
			BusinessDay: businessDay.String,
			CreatedAt:   createdAt.Time,
			UpdatedAt:   updatedAt.Time,
		}
	}
	return table, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
