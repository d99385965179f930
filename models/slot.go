package models

import "time"

// Slot types partition a facility day into bookable windows.
const (
	SlotMorning   = "MORNING"
	SlotAfternoon = "AFTERNOON"
	SlotEvening   = "EVENING"
)

// ValidSlotType reports whether s is a known slot type.
func ValidSlotType(s string) bool {
	return s == SlotMorning || s == SlotAfternoon || s == SlotEvening
}

// SlotTemplate is the owner-defined recurring offering for a facility and
// time-of-day: time window, capacity, pass pricing and a validity window.
// Unique per (facility, slot type).
type SlotTemplate struct {
	ID         string `bson:"id" json:"id"`
	FacilityID string `bson:"facility_id" json:"facility_id"`
	SlotType   string `bson:"slot_type" json:"slot_type"`
	StartTime  string `bson:"start_time" json:"start_time"` // "HH:MM"
	EndTime    string `bson:"end_time" json:"end_time"`     // "HH:MM"
	Capacity   int    `bson:"capacity" json:"capacity"`

	// Pass pricing in minor currency units. A nil price means the pass
	// duration is not offered; at least one must be set.
	Price1Day *int64 `bson:"price_1_day,omitempty" json:"price_1_day,omitempty"`
	Price3Day *int64 `bson:"price_3_day,omitempty" json:"price_3_day,omitempty"`
	Price7Day *int64 `bson:"price_7_day,omitempty" json:"price_7_day,omitempty"`

	ValidFrom string    `bson:"valid_from" json:"valid_from"` // "YYYY-MM-DD"
	ValidTill string    `bson:"valid_till" json:"valid_till"` // "YYYY-MM-DD"
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PriceFor resolves the base amount for a pass duration, nil when unsupported.
func (t *SlotTemplate) PriceFor(passDays int) *int64 {
	switch passDays {
	case 1:
		return t.Price1Day
	case 3:
		return t.Price3Day
	case 7:
		return t.Price7Day
	}
	return nil
}

// CapacitySlot is one materialized bookable unit for a calendar date.
// Unique per (facility, date, slot type). Invariant: 0 <= booked <= capacity.
// Rows are inserted lazily by the materializer and never deleted; booked is
// only mutated by guarded updates.
type CapacitySlot struct {
	ID         string `bson:"id" json:"id"`
	FacilityID string `bson:"facility_id" json:"facility_id"`
	Date       string `bson:"date" json:"date"` // "YYYY-MM-DD"
	SlotType   string `bson:"slot_type" json:"slot_type"`
	Capacity   int    `bson:"capacity" json:"capacity"`
	Booked     int    `bson:"booked" json:"booked"`
}
