package models

import "time"

// Holiday is a closed date range for a facility. Ranges are inclusive and
// non-overlapping per facility; the materializer and the booking walk both
// skip covered dates.
type Holiday struct {
	ID         string    `bson:"id" json:"id"`
	FacilityID string    `bson:"facility_id" json:"facility_id"`
	StartDate  string    `bson:"start_date" json:"start_date"` // "YYYY-MM-DD"
	EndDate    string    `bson:"end_date" json:"end_date"`     // "YYYY-MM-DD"
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Covers reports whether date falls inside the holiday range.
func (h *Holiday) Covers(date string) bool {
	return h.StartDate <= date && date <= h.EndDate
}
