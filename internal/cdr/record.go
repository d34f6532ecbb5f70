package cdr

import "strconv"

// Record is one synthetic call-detail row. Fields are independently sampled;
// the only invariants are column order and count (see Header).
//
// NOTE: This is a generation-side model only. Nothing reads records back;
// each one is serialized, written and discarded.
type Record struct {
	CallerID        string
	Recipient       string
	CallDate        string // DD/MM/YYYY
	EndTime         string // HH:MM:SS
	DurationSeconds int
	Cost            string
	Reference       string
	Currency        string
}

// Header returns the fixed column header. Fields() must stay in this order.
func Header() []string {
	return []string{
		"caller_id",
		"recipient",
		"call_date",
		"end_time",
		"duration",
		"cost",
		"reference",
		"currency",
	}
}

// Fields serializes the record in header order.
func (r Record) Fields() []string {
	return []string{
		r.CallerID,
		r.Recipient,
		r.CallDate,
		r.EndTime,
		strconv.Itoa(r.DurationSeconds),
		r.Cost,
		r.Reference,
		r.Currency,
	}
}
