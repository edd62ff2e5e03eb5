package memory

import (
	"context"

	"dinequeue/internal/models"
	"dinequeue/internal/store"

	"github.com/google/uuid"
)

func (s *Store) CloseShift(ctx context.Context, input store.CloseShiftInput) (models.ShiftRecord, error) {
	if input.ClosedBy == "" || input.CashCounted < 0 {
		return models.ShiftRecord{}, store.ErrInvalidInput
	}
	closedAt := s.resolveTime(input.ClosedAt)
	day := s.clock.DayKey(closedAt)
	start, end := s.clock.TodayWindow(closedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Settled revenue is summed over the closing day's window, not over the
	// whole table: yesterday's seated parties belong to yesterday's close.
	var systemTotal int64
	for _, ticket := range s.tickets {
		if ticket.Status != models.StatusSeated {
			continue
		}
		if ticket.CreatedAt.Before(start) || !ticket.CreatedAt.Before(end) {
			continue
		}
		systemTotal += ticket.TotalPrice
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
	s.shifts = append(s.shifts, record)
	return record, nil
}

func (s *Store) ListShifts(ctx context.Context, limit int) ([]models.ShiftRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.ShiftRecord, 0, limit)
	for i := len(s.shifts) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, s.shifts[i])
	}
	return records, nil
}
