package models

import "time"

// ShiftRecord is the end-of-period cash reconciliation entry. SystemTotal is
// the sum of total_price over seated tickets created within the business-day
// window at close time; Variance = CashCounted - SystemTotal. Records are
// immutable once written.
type ShiftRecord struct {
	ShiftID     string    `json:"shift_id"`
	ClosedBy    string    `json:"closed_by"`
	ClosedAt    time.Time `json:"closed_at"`
	BusinessDay string    `json:"business_day"`
	SystemTotal int64     `json:"system_total"`
	CashCounted int64     `json:"cash_counted"`
	Variance    int64     `json:"variance"`
	Note        string    `json:"note,omitempty"`
}
